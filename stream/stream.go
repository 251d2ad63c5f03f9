// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"

	"github.com/ik5/sndrender/engine"
)

// Engine is the backend surface a stream needs.
type Engine interface {
	engine.Sounds
	engine.Channels
	engine.Streams
}

// State is where a stream is in its life cycle.
type State int

const (
	Opening State = iota
	Ready
	Playing
	// Stalled means the engine is starving the channel; it is muted.
	Stalled
	// Reconnecting is a network stream being reopened. It moves to Ready
	// once the engine has connected, and the next Poll plays it again.
	Reconnecting
	Ended
)

var stateNames = [...]string{"Opening", "Ready", "Playing", "Stalled", "Reconnecting", "Ended"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// musicPriority keeps streams from being stolen by effects.
const musicPriority = 1

// outputs is the number of speaker levels set on a stream channel.
const outputs = 8

// Stream is one streamed sound and the channel playing it.
type Stream struct {
	eng    Engine
	logger *log.Logger
	src    Source

	sound   engine.Sound
	channel engine.Channel
	state   State

	// ended is set by the read callback, possibly from the mixing thread.
	ended atomic.Bool

	justStarted bool
	starved     bool
	closed      bool
	loop        bool
	volume      float64
}

// Open creates the engine stream for src. It does not start playback.
func Open(eng Engine, src Source, logger *log.Logger) (*Stream, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Stream{eng: eng, logger: logger, src: src, volume: 1}

	desc := src.desc()
	if src.kind == engine.StreamCallback {
		read := src.read
		desc.Read = func(buf []byte) bool {
			if s.ended.Load() {
				return false
			}
			if !read(buf) {
				s.ended.Store(true)
				return false
			}
			return true
		}
	}

	if err := s.create(desc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stream) create(desc engine.StreamDesc) error {
	snd, err := s.eng.CreateStream(desc)
	if err != nil {
		return fmt.Errorf("stream: open: %w", err)
	}
	s.sound = snd

	if info, err := s.eng.SoundInfo(snd); err == nil {
		_ = s.eng.SetSoundDefaults(snd, info.Frequency, musicPriority)
	}

	s.state = Ready
	if st, err := s.eng.StreamStatus(snd); err == nil && st.State != engine.OpenReady {
		s.state = Opening
	}
	return nil
}

// Sound returns the engine stream, or 0 after Close.
func (s *Stream) Sound() engine.Sound { return s.sound }

// Channel returns the playing channel, or 0.
func (s *Stream) Channel() engine.Channel { return s.channel }

// State returns the state reached by the last call.
func (s *Stream) State() State { return s.state }

// Volume returns the last requested volume.
func (s *Stream) Volume() float64 { return s.volume }

// Play starts the stream on the music group. Network streams ignore loop.
func (s *Stream) Play(loop bool, volume float64) error {
	if s.sound == 0 {
		return ErrEnded
	}
	if s.src.kind == engine.StreamURL {
		loop = false
	}

	mode := engine.Mode2D | engine.ModeLoopOff
	if loop {
		mode = engine.Mode2D | engine.ModeLoopNormal
		// A bidirectional loop tag survives a looping restart.
		if info, err := s.eng.SoundInfo(s.sound); err == nil && info.Mode.Has(engine.ModeLoopBidi) {
			mode = engine.Mode2D | engine.ModeLoopBidi
		}
	}
	if err := s.eng.SetSoundMode(s.sound, mode); err != nil {
		return fmt.Errorf("stream: play: %w", err)
	}

	ch, err := s.eng.PlaySound(s.sound, engine.GroupMusic, true)
	if err != nil {
		return fmt.Errorf("stream: play: %w", err)
	}

	levels := make([]float64, outputs)
	for i := range levels {
		levels[i] = 1
	}
	_ = s.eng.SetMixLevels(ch, levels)

	for _, p := range []struct {
		param engine.Param
		value float64
	}{
		{engine.ParamVolume, volume},
		{engine.ParamReverbWet, 0},
		{engine.ParamPaused, 0},
	} {
		if err := s.eng.SetChannelParam(ch, p.param, p.value); err != nil {
			_ = s.eng.StopChannel(ch)
			return fmt.Errorf("stream: play: %w", err)
		}
	}

	s.channel = ch
	s.ended.Store(false)
	s.justStarted = true
	s.starved = false
	s.loop = loop
	s.volume = volume
	s.state = Playing
	return nil
}

// Stop stops the channel. The stream stays open and can be played again.
func (s *Stream) Stop() error {
	s.justStarted = false
	if s.channel == 0 {
		return nil
	}
	err := s.eng.StopChannel(s.channel)
	s.channel = 0
	if s.state != Ended {
		s.state = Ready
	}
	return err
}

// Close stops playback, releases the engine stream and closes a File
// source. Calling it again does nothing.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.Stop()
	if s.sound != 0 {
		if rerr := s.eng.ReleaseSound(s.sound); err == nil {
			err = rerr
		}
		s.sound = 0
	}
	if s.src.src != nil {
		if cerr := s.src.src.Close(); err == nil {
			err = cerr
		}
	}
	s.state = Ended
	return err
}

// SetPaused pauses or resumes the channel.
func (s *Stream) SetPaused(paused bool) error {
	if s.channel == 0 {
		return ErrNoChannel
	}
	v := 0.0
	if paused {
		v = 1
	}
	return s.eng.SetChannelParam(s.channel, engine.ParamPaused, v)
}

// SetVolume sets the channel volume. While the stream is starving the
// channel stays muted and the volume applies once it recovers.
func (s *Stream) SetVolume(volume float64) error {
	s.volume = volume
	if s.channel == 0 || s.starved {
		return nil
	}
	return s.eng.SetChannelParam(s.channel, engine.ParamVolume, volume)
}

// Position returns the playback position in milliseconds, or 0 when not
// playing.
func (s *Stream) Position() uint64 {
	if s.channel == 0 {
		return 0
	}
	ms, err := s.eng.ChannelParam(s.channel, engine.ParamPositionMS)
	if err != nil || ms < 0 {
		return 0
	}
	return uint64(ms)
}

// SetPosition seeks to ms milliseconds.
func (s *Stream) SetPosition(ms uint64) error {
	if s.channel == 0 {
		return ErrNoChannel
	}
	return s.eng.SetChannelParam(s.channel, engine.ParamPositionMS, float64(ms))
}

// SetOrder seeks to a pattern order in tracker formats.
func (s *Stream) SetOrder(order int) error {
	if s.channel == 0 {
		return ErrNoChannel
	}
	return s.eng.SetChannelParam(s.channel, engine.ParamOrder, float64(order))
}

// Poll advances the state machine and returns the new state. Ended is
// final.
func (s *Stream) Poll() State {
	if s.state == Ended {
		return Ended
	}
	if s.sound == 0 {
		return s.finish()
	}

	st, err := s.eng.StreamStatus(s.sound)
	if err != nil {
		st.State = engine.OpenError
	}
	if st.State == engine.OpenError {
		return s.finish()
	}

	if s.channel != 0 {
		if playing, err := s.eng.IsPlaying(s.channel); err != nil || !playing {
			return s.finish()
		}
	}
	if s.ended.Load() {
		return s.finish()
	}

	if s.src.kind == engine.StreamURL && s.channel != 0 && !s.justStarted && st.State == engine.OpenReady {
		return s.reconnect()
	}

	if s.justStarted && st.State == engine.OpenPlaying {
		s.justStarted = false
	}

	if s.channel == 0 {
		if st.State == engine.OpenReady {
			if s.justStarted {
				if s.state == Reconnecting {
					s.state = Ready
					return s.state
				}
				if err := s.Play(s.loop, s.volume); err != nil {
					s.logger.Printf("stream: restart failed: %v", err)
					return s.finish()
				}
			} else if s.state == Opening || s.state == Reconnecting {
				s.state = Ready
			}
		}
		return s.state
	}

	if st.Starving != s.starved {
		v := s.volume
		if st.Starving {
			v = 0
		}
		_ = s.eng.SetChannelParam(s.channel, engine.ParamVolume, v)
		s.starved = st.Starving
		if st.Starving {
			s.state = Stalled
		} else {
			s.state = Playing
		}
	}
	return s.state
}

func (s *Stream) finish() State {
	if s.channel != 0 {
		_ = s.eng.StopChannel(s.channel)
		s.channel = 0
	}
	s.state = Ended
	return Ended
}

// reconnect recreates a stalled network stream without blocking.
func (s *Stream) reconnect() State {
	s.logger.Printf("stream: reconnecting %s", s.src.url)

	_ = s.eng.StopChannel(s.channel)
	_ = s.eng.ReleaseSound(s.sound)
	s.channel, s.sound = 0, 0

	desc := s.src.desc()
	desc.Loop = s.loop
	desc.NonBlocking = true
	snd, err := s.eng.CreateStream(desc)
	if err != nil {
		s.logger.Printf("stream: reconnect failed: %v", err)
		return s.finish()
	}
	s.sound = snd
	s.justStarted = true
	s.state = Reconnecting
	return s.state
}

// Stats describes the stream for diagnostics.
func (s *Stream) Stats() string {
	var b strings.Builder

	if s.sound != 0 {
		if st, err := s.eng.StreamStatus(s.sound); err == nil {
			fed := "Well-fed"
			if st.Starving {
				fed = "Starving"
			}
			fmt.Fprintf(&b, "%s,%3d%% buffered, %s", st.State, st.PercentBuffered, fed)
		}
	}

	if s.channel == 0 {
		b.WriteString(", not playing")
	} else {
		s.channelStats(&b)
	}

	if s.justStarted {
		b.WriteString(" JS")
	}
	if s.ended.Load() {
		b.WriteString(" XX")
	}
	return b.String()
}

func (s *Stream) channelStats(b *strings.Builder) {
	if pos, err := s.eng.ChannelParam(s.channel, engine.ParamPositionMS); err == nil {
		fmt.Fprintf(b, ", %d", int64(pos))
		if info, err := s.eng.SoundInfo(s.sound); err == nil {
			fmt.Fprintf(b, "/%d", info.LengthMS)
		}
		b.WriteString(" ms")
	}
	if vol, err := s.eng.ChannelParam(s.channel, engine.ParamVolume); err == nil {
		fmt.Fprintf(b, ", %d%%", int(vol*100))
	}
	if paused, err := s.eng.ChannelParam(s.channel, engine.ParamPaused); err == nil && paused != 0 {
		b.WriteString(", paused")
	}
	if playing, err := s.eng.IsPlaying(s.channel); err == nil && playing {
		b.WriteString(", playing")
	}
	if freq, err := s.eng.ChannelParam(s.channel, engine.ParamFrequency); err == nil {
		fmt.Fprintf(b, ", %g Hz", freq)
	}
}
