// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"strings"
	"testing"

	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/internal/audiotest"
	"github.com/ik5/sndrender/internal/enginetest"
)

var errBoom = errors.New("boom")

func callbackSource(read func([]byte) bool) Source {
	if read == nil {
		read = func([]byte) bool { return true }
	}
	return Callback(read, 4096, engine.FormatPCM16, 2, 22050)
}

func open(t *testing.T, f *enginetest.Fake, src Source) *Stream {
	t.Helper()

	s, err := Open(f, src, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func play(t *testing.T, f *enginetest.Fake, src Source, loop bool, volume float64) (*Stream, *enginetest.Channel) {
	t.Helper()

	s := open(t, f, src)
	if err := s.Play(loop, volume); err != nil {
		t.Fatalf("Play: %v", err)
	}
	ch, ok := f.Channels[s.Channel()]
	if !ok {
		t.Fatal("Play did not create a channel")
	}
	return s, ch
}

func TestOpen(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s := open(t, f, callbackSource(nil))

	if s.State() != Ready {
		t.Errorf("state %v, want Ready", s.State())
	}
	call, ok := f.Last("SetSoundDefaults")
	if !ok || call.Args[2] != musicPriority {
		t.Errorf("SetSoundDefaults %v, want priority %d", call, musicPriority)
	}
	desc := f.Sounds[s.Sound()].StreamDesc
	if desc.Kind != engine.StreamCallback || desc.BufferBytes != 4096 || desc.Frequency != 22050 {
		t.Errorf("stream desc %+v", desc)
	}
}

func TestOpenDefaultBuffer(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s := open(t, f, URL("http://example.com/radio"))
	if got := f.Sounds[s.Sound()].StreamDesc.BufferBytes; got != DefaultBufferBytes {
		t.Errorf("buffer %d, want %d", got, DefaultBufferBytes)
	}

	s = open(t, f, URL("http://example.com/radio").WithBuffer(1024))
	if got := f.Sounds[s.Sound()].StreamDesc.BufferBytes; got != 1024 {
		t.Errorf("buffer %d, want 1024", got)
	}
}

func TestOpenFailure(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	f.FailOn("CreateStream", errBoom)

	if _, err := Open(f, callbackSource(nil), nil); !errors.Is(err, errBoom) {
		t.Errorf("Open error = %v, want %v", err, errBoom)
	}
}

func TestPlay(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, ch := play(t, f, callbackSource(nil), true, 0.6)

	if s.State() != Playing {
		t.Errorf("state %v, want Playing", s.State())
	}
	if ch.Group != engine.GroupMusic {
		t.Errorf("group %v, want Music", ch.Group)
	}
	if ch.Mode != engine.Mode2D|engine.ModeLoopNormal {
		t.Errorf("mode %b", ch.Mode)
	}
	want := map[engine.Param]float64{
		engine.ParamVolume:    0.6,
		engine.ParamReverbWet: 0,
		engine.ParamPaused:    0,
	}
	for p, v := range want {
		if ch.Params[p] != v {
			t.Errorf("param %d = %v, want %v", p, ch.Params[p], v)
		}
	}
	if len(ch.MixLevels) != 8 {
		t.Errorf("mix levels %v, want 8 outputs", ch.MixLevels)
	}
	for _, l := range ch.MixLevels {
		if l != 1 {
			t.Errorf("mix levels %v, want all 1", ch.MixLevels)
			break
		}
	}
}

func TestURLNeverLoops(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	_, ch := play(t, f, URL("http://example.com/radio"), true, 1)

	if ch.Mode != engine.Mode2D|engine.ModeLoopOff {
		t.Errorf("mode %b, want loop off", ch.Mode)
	}
}

func TestStarvationMutes(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, ch := play(t, f, callbackSource(nil), false, 0.8)

	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenPlaying, Starving: true})
	if st := s.Poll(); st != Stalled {
		t.Errorf("state %v, want Stalled", st)
	}
	if v := ch.Params[engine.ParamVolume]; v != 0 {
		t.Errorf("volume %v while starving, want 0", v)
	}

	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenPlaying})
	if st := s.Poll(); st != Playing {
		t.Errorf("state %v, want Playing", st)
	}
	if v := ch.Params[engine.ParamVolume]; v != 0.8 {
		t.Errorf("volume %v after recovery, want 0.8", v)
	}
	if n := f.Count("PlaySound"); n != 1 {
		t.Errorf("PlaySound called %d times, want 1", n)
	}
}

func TestVolumeDeferredWhileStarving(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, ch := play(t, f, callbackSource(nil), false, 0.8)

	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenPlaying, Starving: true})
	s.Poll()

	if err := s.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if v := ch.Params[engine.ParamVolume]; v != 0 {
		t.Errorf("volume %v while starving, want 0", v)
	}

	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenPlaying})
	s.Poll()
	if v := ch.Params[engine.ParamVolume]; v != 0.5 {
		t.Errorf("volume %v after recovery, want 0.5", v)
	}
}

func TestPollEnds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		end  func(f *enginetest.Fake, s *Stream)
	}{
		{"error state", func(f *enginetest.Fake, s *Stream) {
			f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenError})
		}},
		{"status failure", func(f *enginetest.Fake, _ *Stream) {
			f.FailOn("StreamStatus", errBoom)
		}},
		{"channel finished", func(f *enginetest.Fake, s *Stream) {
			f.End(s.Channel())
		}},
		{"callback exhausted", func(f *enginetest.Fake, s *Stream) {
			f.Sounds[s.Sound()].StreamDesc.Read(make([]byte, 16))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := enginetest.New(48000)
			more := true
			s, ch := play(t, f, callbackSource(func([]byte) bool { return more }), false, 1)
			more = false

			tt.end(f, s)
			if st := s.Poll(); st != Ended {
				t.Fatalf("state %v, want Ended", st)
			}
			if !ch.Stopped {
				t.Error("channel still playing")
			}
			if s.Channel() != 0 {
				t.Error("channel kept after the end")
			}
			if err := s.SetPosition(0); !errors.Is(err, ErrNoChannel) {
				t.Errorf("SetPosition error = %v, want %v", err, ErrNoChannel)
			}
		})
	}
}

func TestCallbackStopsReadingAfterEnd(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	reads := 0
	s := open(t, f, callbackSource(func([]byte) bool {
		reads++
		return reads < 2
	}))

	read := f.Sounds[s.Sound()].StreamDesc.Read
	buf := make([]byte, 16)
	for range 4 {
		read(buf)
	}
	if reads != 2 {
		t.Errorf("callback read %d times, want 2", reads)
	}
}

func TestURLReconnect(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, first := play(t, f, URL("http://example.com/radio"), false, 0.7)
	old := s.Sound()

	// Ready before the stream ever reported playing is not a stall.
	if st := s.Poll(); st != Playing {
		t.Fatalf("state %v, want Playing", st)
	}

	f.SetStreamStatus(old, engine.StreamStatus{State: engine.OpenPlaying})
	s.Poll()

	f.SetStreamStatus(old, engine.StreamStatus{State: engine.OpenReady})
	if st := s.Poll(); st != Reconnecting {
		t.Fatalf("state %v, want Reconnecting", st)
	}
	if !first.Stopped || !f.Sounds[old].Released {
		t.Error("stalled stream not torn down")
	}
	if s.Sound() == old || s.Sound() == 0 {
		t.Fatal("stream not recreated")
	}
	if !f.Sounds[s.Sound()].StreamDesc.NonBlocking {
		t.Error("reconnect blocks")
	}

	if st := s.Poll(); st != Reconnecting {
		t.Errorf("state %v while connecting, want Reconnecting", st)
	}

	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenReady})
	if st := s.Poll(); st != Ready {
		t.Fatalf("state %v once connected, want Ready", st)
	}
	if n := f.Count("PlaySound"); n != 1 {
		t.Errorf("PlaySound called %d times before restart, want 1", n)
	}
	if st := s.Poll(); st != Playing {
		t.Fatalf("state %v, want Playing", st)
	}
	if n := f.Count("PlaySound"); n != 2 {
		t.Errorf("PlaySound called %d times, want 2", n)
	}
	if v := f.Channels[s.Channel()].Params[engine.ParamVolume]; v != 0.7 {
		t.Errorf("volume %v after reconnect, want 0.7", v)
	}
}

func TestURLReconnectFailure(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, _ := play(t, f, URL("http://example.com/radio"), false, 1)

	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenPlaying})
	s.Poll()

	f.FailOn("CreateStream", errBoom)
	f.SetStreamStatus(s.Sound(), engine.StreamStatus{State: engine.OpenReady})
	if st := s.Poll(); st != Ended {
		t.Errorf("state %v, want Ended", st)
	}
	if err := s.Play(false, 1); !errors.Is(err, ErrEnded) {
		t.Errorf("Play error = %v, want %v", err, ErrEnded)
	}
}

func TestSeekNeedsChannel(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s := open(t, f, callbackSource(nil))

	for name, fn := range map[string]func() error{
		"SetPosition": func() error { return s.SetPosition(10) },
		"SetOrder":    func() error { return s.SetOrder(1) },
		"SetPaused":   func() error { return s.SetPaused(true) },
	} {
		if err := fn(); !errors.Is(err, ErrNoChannel) {
			t.Errorf("%s error = %v, want %v", name, err, ErrNoChannel)
		}
	}
	if s.Position() != 0 {
		t.Errorf("Position = %d without a channel", s.Position())
	}
}

func TestSeek(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, ch := play(t, f, callbackSource(nil), true, 1)

	if err := s.SetPosition(1500); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if got := s.Position(); got != 1500 {
		t.Errorf("Position = %d, want 1500", got)
	}
	if err := s.SetOrder(3); err != nil {
		t.Fatalf("SetOrder: %v", err)
	}
	if ch.Params[engine.ParamOrder] != 3 {
		t.Errorf("order %v, want 3", ch.Params[engine.ParamOrder])
	}
	if err := s.SetPaused(true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	if ch.Params[engine.ParamPaused] != 1 {
		t.Error("channel not paused")
	}
}

func TestStopAndReplay(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s, ch := play(t, f, callbackSource(nil), false, 1)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !ch.Stopped || s.State() != Ready {
		t.Errorf("after Stop: stopped=%v state=%v", ch.Stopped, s.State())
	}

	// A stopped stream is not restarted behind the caller's back.
	if st := s.Poll(); st != Ready {
		t.Errorf("state %v, want Ready", st)
	}
	if n := f.Count("PlaySound"); n != 1 {
		t.Errorf("PlaySound called %d times, want 1", n)
	}

	if err := s.Play(false, 1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.State() != Playing {
		t.Errorf("state %v, want Playing", s.State())
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	s := open(t, f, callbackSource(nil))

	if got, want := s.Stats(), "Ready,  0% buffered, Well-fed, not playing"; got != want {
		t.Errorf("Stats = %q, want %q", got, want)
	}

	if err := s.Play(false, 0.5); err != nil {
		t.Fatalf("Play: %v", err)
	}
	got := s.Stats()
	for _, want := range []string{", 50%", ", playing", ", 22050 Hz", " JS"} {
		if !strings.Contains(got, want) {
			t.Errorf("Stats = %q, missing %q", got, want)
		}
	}
}

func TestCloseFileSource(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	src := audiotest.NewSilentSource(44100, 2, 100)
	s, _ := play(t, f, File(src), false, 1)
	snd := s.Sound()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.Closed() {
		t.Error("source not closed")
	}
	if !f.Sounds[snd].Released {
		t.Error("engine stream not released")
	}
	if s.Poll() != Ended {
		t.Error("closed stream not ended")
	}

	f.ResetCalls()
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("second Close touched the engine: %v", f.Calls)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if Reconnecting.String() != "Reconnecting" || State(42).String() != "Unknown" {
		t.Error("unexpected state names")
	}
}
