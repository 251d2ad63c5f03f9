// SPDX-License-Identifier: EPL-2.0

package channel

import "github.com/ik5/sndrender/engine"

// Flags select how a sound is started.
type Flags uint32

const (
	FlagLoop Flags = 1 << iota
	// FlagAbsTime makes StartTime of the reused session an absolute seek
	// target in sample frames.
	FlagAbsTime
	// FlagNoPause routes the sound past the pausable group.
	FlagNoPause
	FlagNoReverb
	FlagArea
)

// NormalPitch is the pitch value that leaves the frequency unchanged.
const NormalPitch = 128

// Listener is the part of the listener state panning depends on.
type Listener struct {
	Position engine.Vec3
	Valid    bool
}

// Session is one logical playback instance.
type Session struct {
	// StartTime is the virtual time the sound started at, or with FlagAbsTime
	// the frame to resume from.
	StartTime uint64

	// UserData is left for the caller.
	UserData any

	channel   engine.Channel
	sound     engine.Sound
	tag       engine.Tag
	rolloff   Rolloff
	distScale float64
	loop      bool
	volume    float64
	virtual   bool
}

// Playing reports whether the session has a live engine channel.
func (s *Session) Playing() bool { return s != nil && s.channel != 0 }

// Channel returns the engine channel, or 0 when not playing.
func (s *Session) Channel() engine.Channel { return s.channel }

// Sound returns the sound last started on the session.
func (s *Session) Sound() engine.Sound { return s.sound }

// Looping reports whether the session was started with FlagLoop.
func (s *Session) Looping() bool { return s.loop }

// Volume returns the last requested volume.
func (s *Session) Volume() float64 { return s.volume }

// Virtual reports whether the engine last marked the channel virtual.
func (s *Session) Virtual() bool { return s.virtual }

// Rolloff returns the curve and distance scale used for 3D attenuation.
func (s *Session) Rolloff() (Rolloff, float64) { return s.rolloff, s.distScale }

// Notifier receives channel notifications from the engine's update.
type Notifier interface {
	ChannelEnded(s *Session)
	ChannelVirtualChanged(s *Session, virtual bool)
}

type nopNotifier struct{}

func (nopNotifier) ChannelEnded(*Session)                {}
func (nopNotifier) ChannelVirtualChanged(*Session, bool) {}
