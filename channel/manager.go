// SPDX-License-Identifier: EPL-2.0

package channel

import (
	"errors"
	"fmt"

	"github.com/ik5/sndrender/clock"
	"github.com/ik5/sndrender/engine"
)

// Backend is the engine surface the manager drives.
type Backend interface {
	engine.Sounds
	engine.Channels
	OutputRate() int
	SetCallbacks(cb engine.Callbacks)
}

// Params3D describes a positioned start.
type Params3D struct {
	Listener      Listener
	Volume        float64
	Rolloff       Rolloff
	DistanceScale float64
	Pitch         int
	// Priority lowers the sound's default priority for this start only.
	Priority int
	Position engine.Vec3
	Velocity engine.Vec3
	Flags    Flags
}

// startSlot carries the rolloff of the channel being started until its
// session is attached.
type startSlot struct {
	rolloff Rolloff
	scale   float64
}

// Manager starts, stops and tracks sessions. It is not safe for concurrent
// use.
type Manager struct {
	eng      Backend
	clock    *clock.Virtual
	notify   Notifier
	pitched  bool
	sessions map[engine.Tag]*Session
	lastTag  engine.Tag
	starting *startSlot
}

// NewManager installs the manager's engine callbacks on eng. A nil notifier
// discards notifications. When pitched is false pitch arguments are ignored.
func NewManager(eng Backend, clk *clock.Virtual, n Notifier, pitched bool) *Manager {
	if n == nil {
		n = nopNotifier{}
	}

	m := &Manager{
		eng:      eng,
		clock:    clk,
		notify:   n,
		pitched:  pitched,
		sessions: make(map[engine.Tag]*Session),
	}
	eng.SetCallbacks(engine.Callbacks{
		OnEnd:     m.onEnd,
		OnVirtual: m.onVirtual,
		Rolloff:   m.rolloff,
	})
	return m
}

// Active returns the number of sessions with a live channel.
func (m *Manager) Active() int { return len(m.sessions) }

func (m *Manager) frequency(base float64, pitch int) float64 {
	if m.pitched && pitch != 0 {
		return base * float64(pitch) / NormalPitch
	}
	return base
}

func group(flags Flags) engine.Group {
	if flags&FlagNoPause != 0 {
		return engine.GroupSFX
	}
	return engine.GroupPausableSFX
}

func loopMode(mode engine.Mode, flags Flags) engine.Mode {
	if flags&FlagLoop == 0 {
		// Loop off overrides normal and bidi.
		return mode | engine.ModeLoopOff
	}
	mode &^= engine.ModeLoopOff
	if mode&(engine.ModeLoopNormal|engine.ModeLoopBidi) == 0 {
		mode |= engine.ModeLoopNormal
	}
	return mode
}

// Start plays snd head-relative. When reuse is non-nil the sound resumes
// where reuse would be now and reuse becomes the returned session.
func (m *Manager) Start(snd engine.Sound, volume float64, pitch int, flags Flags, reuse *Session) (*Session, error) {
	var freq float64
	if info, err := m.eng.SoundInfo(snd); err == nil {
		freq = m.frequency(info.Frequency, pitch)
	}

	m.starting = nil

	c, err := m.eng.PlaySound(snd, group(flags), true)
	if err != nil {
		return nil, err
	}

	mode, err := m.eng.ChannelMode(c)
	if err != nil {
		mode = 0
	}
	mode = loopMode(mode&^engine.Mode3D|engine.Mode2D, flags)

	if err := m.setup(c, snd, mode, freq, volume, flags, nil, reuse); err != nil {
		return nil, err
	}
	return m.attach(c, snd, flags, volume, reuse), nil
}

// Start3D plays snd positioned in the world.
func (m *Manager) Start3D(snd engine.Sound, p Params3D, reuse *Session) (*Session, error) {
	info, infoErr := m.eng.SoundInfo(snd)

	var freq float64
	if infoErr == nil {
		freq = m.frequency(info.Frequency, p.Pitch)
		prio := min(max(info.Priority-p.Priority, 1), 256)
		_ = m.eng.SetSoundDefaults(snd, info.Frequency, prio)
	}

	m.starting = &startSlot{rolloff: p.Rolloff, scale: p.DistanceScale}

	c, err := m.eng.PlaySound(snd, group(p.Flags), true)

	if infoErr == nil {
		_ = m.eng.SetSoundDefaults(snd, info.Frequency, info.Priority)
	}

	if err != nil {
		m.starting = nil
		return nil, err
	}

	mode, err := m.eng.ChannelMode(c)
	if err != nil {
		mode = engine.Mode3D
	}
	mode = loopMode(mode, p.Flags)
	mode = m.headSettings(p.Listener, c, p.Position, p.Flags&FlagArea != 0, mode)

	volume := p.Volume
	var at *[2]engine.Vec3
	if mode&engine.Mode3D != 0 {
		at = &[2]engine.Vec3{p.Position, p.Velocity}
		if infoErr == nil && info.Channels > 1 {
			// Both sides of a stereo sound sum to the same point.
			volume *= 0.5
		}
	}

	if err := m.setup(c, snd, mode, freq, volume, p.Flags, at, reuse); err != nil {
		m.starting = nil
		return nil, err
	}

	s := m.attach(c, snd, p.Flags, volume, reuse)
	s.rolloff = p.Rolloff
	s.distScale = p.DistanceScale
	return s, nil
}

// setup configures a freshly played, still paused channel. at carries the
// position and velocity of positioned channels.
func (m *Manager) setup(c engine.Channel, snd engine.Sound, mode engine.Mode, freq, volume float64, flags Flags, at *[2]engine.Vec3, reuse *Session) error {
	if err := m.eng.SetChannelMode(c, mode); err != nil {
		return m.abort(c, err)
	}
	if freq != 0 {
		if err := m.eng.SetChannelParam(c, engine.ParamFrequency, freq); err != nil {
			return m.abort(c, err)
		}
	}
	if err := m.eng.SetChannelParam(c, engine.ParamVolume, volume); err != nil {
		return m.abort(c, err)
	}
	if at != nil {
		if err := m.eng.Set3DAttributes(c, at[0], at[1]); err != nil {
			return m.abort(c, err)
		}
	}
	return m.finish(c, snd, freq, flags, reuse)
}

// finish resumes, applies the reverb send and unpauses.
func (m *Manager) finish(c engine.Channel, snd engine.Sound, freq float64, flags Flags, reuse *Session) error {
	if err := m.resume(c, snd, reuse, flags, freq); err != nil {
		return m.abort(c, err)
	}
	if flags&FlagNoReverb != 0 {
		if err := m.eng.SetChannelParam(c, engine.ParamReverbWet, 0); err != nil {
			return m.abort(c, err)
		}
	}
	if err := m.eng.SetChannelParam(c, engine.ParamPaused, 0); err != nil {
		return m.abort(c, err)
	}
	return nil
}

func (m *Manager) abort(c engine.Channel, err error) error {
	_ = m.eng.StopChannel(c)
	return err
}

// attach binds c to a session under a fresh tag.
func (m *Manager) attach(c engine.Channel, snd engine.Sound, flags Flags, volume float64, reuse *Session) *Session {
	s := reuse
	if s == nil {
		s = &Session{StartTime: m.clock.Now()}
	} else if s.tag != 0 {
		delete(m.sessions, s.tag)
	}

	m.lastTag++
	s.tag = m.lastTag
	s.channel = c
	s.sound = snd
	s.loop = flags&FlagLoop != 0
	s.volume = volume
	s.virtual = false
	m.sessions[s.tag] = s

	_ = m.eng.SetChannelTag(c, s.tag)
	m.starting = nil
	return s
}

// MarkStartTime records the current virtual time as the start of s without
// playing anything.
func (m *Manager) MarkStartTime(s *Session) {
	s.StartTime = m.clock.Now()
}

// Stop stops the channel of s. The end notification arrives with the next
// engine update; if the engine no longer knows the channel the session is
// ended immediately.
func (m *Manager) Stop(s *Session) error {
	if !s.Playing() {
		return nil
	}

	err := m.eng.StopChannel(s.channel)
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrInvalidHandle) || engine.Code(err) == engine.CodeInvalidHandle {
		m.ended(s)
		return nil
	}
	return fmt.Errorf("stopping channel: %w", err)
}

// StopAll stops every live session.
func (m *Manager) StopAll() {
	for _, s := range m.sessions {
		_ = m.Stop(s)
	}
}

// SetVolume changes the volume of s.
func (m *Manager) SetVolume(s *Session, volume float64) error {
	if !s.Playing() {
		return nil
	}
	s.volume = volume
	return m.eng.SetChannelParam(s.channel, engine.ParamVolume, volume)
}

// Position returns the playback position of s in sample frames, or 0 when
// it is not playing.
func (m *Manager) Position(s *Session) uint64 {
	if !s.Playing() {
		return 0
	}
	v, err := m.eng.ChannelParam(s.channel, engine.ParamPosition)
	if err != nil || v < 0 {
		return 0
	}
	return uint64(v)
}

// Audibility returns the volume of s after attenuation, or 0 when it is not
// playing.
func (m *Manager) Audibility(s *Session) float64 {
	if !s.Playing() {
		return 0
	}
	v, err := m.eng.ChannelParam(s.channel, engine.ParamAudibility)
	if err != nil {
		return 0
	}
	return v
}

// UpdateParams3D moves s. The panning mode is only written when it changes
// and is taken as 3D when the engine cannot report it. Position and velocity
// are always written.
func (m *Manager) UpdateParams3D(l Listener, s *Session, area bool, pos, vel engine.Vec3) error {
	if !s.Playing() {
		return nil
	}

	old, err := m.eng.ChannelMode(s.channel)
	if err != nil {
		old = engine.Mode3D
	}

	mode := m.headSettings(l, s.channel, pos, area, old)
	if mode != old {
		if err := m.eng.SetChannelMode(s.channel, mode); err != nil {
			return err
		}
	}
	return m.eng.Set3DAttributes(s.channel, pos, vel)
}

func (m *Manager) ended(s *Session) {
	if _, ok := m.sessions[s.tag]; !ok {
		return
	}
	delete(m.sessions, s.tag)
	s.channel = 0
	m.notify.ChannelEnded(s)
}

func (m *Manager) onEnd(tag engine.Tag) {
	if s, ok := m.sessions[tag]; ok {
		m.ended(s)
	}
}

func (m *Manager) onVirtual(tag engine.Tag, virtual bool) {
	s, ok := m.sessions[tag]
	if !ok {
		return
	}
	s.virtual = virtual
	m.notify.ChannelVirtualChanged(s, virtual)
}

func (m *Manager) rolloff(tag engine.Tag, distance float64) float64 {
	if m.starting != nil && m.starting.rolloff != nil {
		return m.starting.rolloff.Volume(distance * m.starting.scale)
	}
	if s, ok := m.sessions[tag]; ok && s.rolloff != nil {
		return s.rolloff.Volume(distance * s.distScale)
	}
	return 0
}
