// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"fmt"
	"io"
	"log"

	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/channel"
	"github.com/ik5/sndrender/clock"
	"github.com/ik5/sndrender/dsp"
	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/listener"
)

// Renderer drives one engine from the game loop. It is not safe for
// concurrent use; call it from the update thread only.
type Renderer struct {
	eng    engine.Engine
	cfg    Config
	logger *log.Logger
	reg    *audio.Registry

	clock    *clock.Virtual
	sync     *clock.Sync
	channels *channel.Manager
	graph    *dsp.Graph
	listener *listener.Tracker

	closed bool
}

// New builds the renderer state on top of eng. Effect nodes eng cannot
// provide are logged and reported by Degraded; they never fail New.
func New(eng engine.Engine, cfg Config) (*Renderer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	rate := eng.OutputRate()
	if rate <= 0 {
		return nil, fmt.Errorf("output rate %d: %w", rate, ErrNoOutput)
	}

	reg := cfg.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}

	cfg.WaterCutoff = dsp.ClampCutoff(cfg.WaterCutoff)

	r := &Renderer{
		eng:    eng,
		cfg:    cfg,
		logger: logger,
		reg:    reg,
		clock:  clock.NewVirtual(rate, cfg.TicRate),
	}
	r.sync = clock.NewSync(eng, r.clock)
	r.channels = channel.NewManager(eng, r.clock, cfg.Notifier, cfg.Pitched)
	r.graph = dsp.Build(eng, cfg.WaterCutoff, logger)
	r.listener = listener.NewTracker(eng, r.graph, cfg.WaterCutoff, cfg.WaterReverb, logger)

	if err := r.SetSFXVolume(cfg.SFXVolume); err != nil {
		return nil, err
	}
	if err := r.SetMusicVolume(cfg.MusicVolume); err != nil {
		return nil, err
	}

	return r, nil
}

// Config returns the settings the renderer was built with.
func (r *Renderer) Config() Config { return r.cfg }

// Degraded lists the effect nodes that could not be built.
func (r *Renderer) Degraded() []error { return r.graph.Degraded() }

// OutputRate returns the engine's output sample rate.
func (r *Renderer) OutputRate() int { return r.eng.OutputRate() }

// Now returns the virtual time in output samples.
func (r *Renderer) Now() uint64 { return r.clock.Now() }

// Advance moves virtual time one tick past the engine clock and runs the
// engine update, which delivers end and virtual notifications.
func (r *Renderer) Advance() error {
	if r.closed {
		return ErrClosed
	}

	now, err := r.eng.Clock()
	if err != nil {
		return fmt.Errorf("reading engine clock: %w", err)
	}
	r.clock.Advance(now)

	return r.eng.Update()
}

// Sync freezes virtual time and suspends the mixer for a save or load when
// on is true, and releases both when on is false. Nesting panics.
func (r *Renderer) Sync(on bool) error {
	if on {
		return r.sync.Enter()
	}
	return r.sync.Leave()
}

// Synced reports whether Sync(true) is in effect.
func (r *Renderer) Synced() bool { return r.sync.Entered() }

// StartSound plays snd without positioning. reuse resumes a session saved
// or stopped earlier.
func (r *Renderer) StartSound(snd engine.Sound, volume float64, pitch int, flags channel.Flags, reuse *channel.Session) (*channel.Session, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return r.channels.Start(snd, volume, pitch, flags, reuse)
}

// StartSound3D plays snd at a position in the world.
func (r *Renderer) StartSound3D(snd engine.Sound, p channel.Params3D, reuse *channel.Session) (*channel.Session, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return r.channels.Start3D(snd, p, reuse)
}

// MarkStartTime stamps s with the current virtual time.
func (r *Renderer) MarkStartTime(s *channel.Session) { r.channels.MarkStartTime(s) }

// StopChannel stops s.
func (r *Renderer) StopChannel(s *channel.Session) error {
	if r.closed {
		return ErrClosed
	}
	return r.channels.Stop(s)
}

// SetChannelVolume changes the volume of s.
func (r *Renderer) SetChannelVolume(s *channel.Session, volume float64) error {
	if r.closed {
		return ErrClosed
	}
	return r.channels.SetVolume(s, volume)
}

// GetPlaybackPosition returns the position of s in sample frames.
func (r *Renderer) GetPlaybackPosition(s *channel.Session) uint64 { return r.channels.Position(s) }

// GetAudibility returns the attenuated volume of s.
func (r *Renderer) GetAudibility(s *channel.Session) float64 { return r.channels.Audibility(s) }

// UpdateListener pushes the listener pose, reverb environment and underwater
// state for this tick.
func (r *Renderer) UpdateListener(s listener.State) error {
	if r.closed {
		return ErrClosed
	}
	return r.listener.Update(s)
}

// SetForcedEnvironment overrides the listener's reverb environment until it
// is called with nil.
func (r *Renderer) SetForcedEnvironment(env *listener.Environment) {
	r.listener.SetForcedEnvironment(env)
}

// Environment returns the reverb environment last pushed to the engine.
func (r *Renderer) Environment() *listener.Environment { return r.listener.Environment() }

// UpdateSoundParams3D moves a positioned session.
func (r *Renderer) UpdateSoundParams3D(l channel.Listener, s *channel.Session, area bool, pos, vel engine.Vec3) error {
	if r.closed {
		return ErrClosed
	}
	return r.channels.UpdateParams3D(l, s, area, pos, vel)
}

// SetSFXVolume sets the volume of every sound effect.
func (r *Renderer) SetSFXVolume(volume float64) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.eng.SetGroupParam(engine.GroupSFX, engine.ParamVolume, volume); err != nil {
		return fmt.Errorf("setting sfx volume: %w", err)
	}
	return nil
}

// SetMusicVolume sets the volume of the music group.
func (r *Renderer) SetMusicVolume(volume float64) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.eng.SetGroupParam(engine.GroupMusic, engine.ParamVolume, volume); err != nil {
		return fmt.Errorf("setting music volume: %w", err)
	}
	return nil
}

// SetSFXPaused pauses the pausable sound effects for reason slot. They stay
// paused while any slot holds them.
func (r *Renderer) SetSFXPaused(paused bool, slot int) error {
	if r.closed {
		return ErrClosed
	}
	return r.graph.SetSFXPaused(paused, slot)
}

// SetInactive applies the application focus state.
func (r *Renderer) SetInactive(state dsp.Inactive) error {
	if r.closed {
		return ErrClosed
	}
	return r.graph.SetInactive(state)
}

// Close stops every channel and releases the effect nodes. Later calls do
// nothing. Methods that return an error report ErrClosed afterwards; the
// queries report nothing playing.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	r.channels.StopAll()
	return r.graph.Close()
}
