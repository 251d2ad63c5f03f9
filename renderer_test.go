// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/sndrender/asset"
	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/channel"
	"github.com/ik5/sndrender/dsp"
	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/formats/wav"
	"github.com/ik5/sndrender/internal/audiotest"
	"github.com/ik5/sndrender/internal/enginetest"
	"github.com/ik5/sndrender/listener"
	"github.com/ik5/sndrender/stream"
)

type endRecorder struct {
	ended []*channel.Session
}

func (n *endRecorder) ChannelEnded(s *channel.Session)              { n.ended = append(n.ended, s) }
func (n *endRecorder) ChannelVirtualChanged(*channel.Session, bool) {}

func newRenderer(t *testing.T, rate int, cfg Config) (*Renderer, *enginetest.Fake) {
	t.Helper()

	f := enginetest.New(rate)
	r, err := New(f, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, f
}

func rawSound(frames int) asset.Raw {
	return asset.Raw{
		Data:      make([]byte, frames*2),
		Frequency: 22050,
		Channels:  1,
		Bits:      16,
		LoopStart: asset.NoLoop,
	}
}

func wavData(t *testing.T, rate, channels int, samples []int16) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := wav.WriteWAV16(buf, rate, channels, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}
	return buf.Bytes()
}

func TestNewRejectsEngineWithoutOutput(t *testing.T) {
	t.Parallel()

	_, err := New(enginetest.New(0), DefaultConfig())
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("New() error = %v, want ErrNoOutput", err)
	}
}

func TestNewAppliesGroupVolumes(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SFXVolume = 0.5
	cfg.MusicVolume = 0.25
	_, f := newRenderer(t, 48000, cfg)

	if got := f.GroupParams[engine.GroupSFX][engine.ParamVolume]; got != 0.5 {
		t.Errorf("sfx volume = %v, want 0.5", got)
	}
	if got := f.GroupParams[engine.GroupMusic][engine.ParamVolume]; got != 0.25 {
		t.Errorf("music volume = %v, want 0.25", got)
	}
}

func TestNewDegradesWithoutFailing(t *testing.T) {
	t.Parallel()

	f := enginetest.New(48000)
	f.FailOn("CreateNode", errors.New("no dsp"))

	r, err := New(f, DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(r.Degraded()) != 1 {
		t.Fatalf("Degraded() = %v, want one cause", r.Degraded())
	}
	if !errors.Is(r.Degraded()[0], dsp.ErrGraphDegraded) {
		t.Errorf("Degraded()[0] = %v, want ErrGraphDegraded", r.Degraded()[0])
	}
}

func TestAdvanceAndSync(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.TicRate = 35
	r, f := newRenderer(t, 35000, cfg)

	f.Now = 1000
	if err := r.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if r.Now() != 2000 {
		t.Errorf("Now() = %d, want 2000", r.Now())
	}
	if f.Updates != 1 {
		t.Errorf("engine updates = %d, want 1", f.Updates)
	}

	f.Now = 5000
	if err := r.Sync(true); err != nil {
		t.Fatalf("Sync(true) error = %v", err)
	}
	if f.Locked != 1 || !r.Synced() {
		t.Fatalf("locked = %d, synced = %v", f.Locked, r.Synced())
	}

	f.Now = 9000
	_ = r.Advance()
	if r.Now() != 5000 {
		t.Errorf("Now() while synced = %d, want 5000", r.Now())
	}

	if err := r.Sync(false); err != nil {
		t.Fatalf("Sync(false) error = %v", err)
	}
	_ = r.Advance()
	if r.Now() != 10000 {
		t.Errorf("Now() after sync = %d, want 10000", r.Now())
	}
	if f.Locked != 0 {
		t.Errorf("locked = %d, want 0", f.Locked)
	}
}

func TestSyncNestedPanics(t *testing.T) {
	t.Parallel()

	r, _ := newRenderer(t, 48000, DefaultConfig())
	if err := r.Sync(true); err != nil {
		t.Fatalf("Sync(true) error = %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("nested Sync(true) did not panic")
		}
	}()
	_ = r.Sync(true)
}

func TestStartAndStopNotifies(t *testing.T) {
	t.Parallel()

	n := &endRecorder{}
	cfg := DefaultConfig()
	cfg.Notifier = n
	r, f := newRenderer(t, 48000, cfg)

	snd, err := r.LoadSoundRaw(rawSound(1000))
	if err != nil {
		t.Fatalf("LoadSoundRaw() error = %v", err)
	}

	s, err := r.StartSound(snd, 0.5, channel.NormalPitch, channel.FlagNoPause, nil)
	if err != nil {
		t.Fatalf("StartSound() error = %v", err)
	}
	ch := f.Channels[s.Channel()]
	if ch.Group != engine.GroupSFX {
		t.Errorf("group = %v, want SFX", ch.Group)
	}
	if ch.Params[engine.ParamPaused] != 0 {
		t.Error("channel left paused")
	}

	if err := r.SetChannelVolume(s, 0.25); err != nil {
		t.Fatalf("SetChannelVolume() error = %v", err)
	}
	if got := r.GetAudibility(s); got != 0.25 {
		t.Errorf("GetAudibility() = %v, want 0.25", got)
	}

	if err := r.StopChannel(s); err != nil {
		t.Fatalf("StopChannel() error = %v", err)
	}
	if len(n.ended) != 0 {
		t.Fatal("end notified before the engine update")
	}

	if err := r.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if len(n.ended) != 1 || n.ended[0] != s {
		t.Fatalf("ended = %v, want the stopped session", n.ended)
	}
	if s.Playing() {
		t.Error("session still playing after its end")
	}
	if r.GetPlaybackPosition(s) != 0 {
		t.Error("stopped session reports a position")
	}
}

func TestStartSound3D(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())
	snd, err := r.LoadSoundRaw(rawSound(1000))
	if err != nil {
		t.Fatalf("LoadSoundRaw() error = %v", err)
	}

	s, err := r.StartSound3D(snd, channel.Params3D{
		Listener:      channel.Listener{Valid: true},
		Volume:        1,
		Rolloff:       channel.LinearRolloff{Min: 0, Max: 1000},
		DistanceScale: 1,
		Position:      engine.Vec3{X: 500},
	}, nil)
	if err != nil {
		t.Fatalf("StartSound3D() error = %v", err)
	}
	if got := f.Channels[s.Channel()].Pos; got.X != 500 {
		t.Errorf("position = %v, want x 500", got)
	}

	if err := r.UpdateSoundParams3D(channel.Listener{Valid: true}, s, false, engine.Vec3{X: 600}, engine.Vec3{}); err != nil {
		t.Fatalf("UpdateSoundParams3D() error = %v", err)
	}
	if got := f.Channels[s.Channel()].Pos; got.X != 600 {
		t.Errorf("position after update = %v, want x 600", got)
	}
}

func TestMarkStartTime(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 35000, DefaultConfig())
	f.Now = 3000
	_ = r.Advance()

	var s channel.Session
	r.MarkStartTime(&s)
	if s.StartTime != 4000 {
		t.Errorf("StartTime = %d, want 4000", s.StartTime)
	}
}

func TestLoadSoundRawLoop(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())

	raw := rawSound(100)
	raw.LoopStart, raw.LoopEnd = 10, -1
	snd, err := r.LoadSoundRaw(raw)
	if err != nil {
		t.Fatalf("LoadSoundRaw() error = %v", err)
	}

	got := f.Sounds[snd]
	if got.LoopStart != 10 || got.LoopEnd != 99 {
		t.Errorf("loop = %d-%d, want 10-99", got.LoopStart, got.LoopEnd)
	}
	if r.SampleLength(snd) != 100 {
		t.Errorf("SampleLength() = %d, want 100", r.SampleLength(snd))
	}
	if r.MSLength(snd) != 4 {
		t.Errorf("MSLength() = %d, want 4", r.MSLength(snd))
	}
}

func TestLoadSoundRawInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"less than one frame", []byte{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, f := newRenderer(t, 48000, DefaultConfig())

			_, err := r.LoadSoundRaw(asset.Raw{Data: tt.data, Frequency: 22050, Channels: 1, Bits: 16})
			if !errors.Is(err, asset.ErrAssetInvalid) {
				t.Fatalf("LoadSoundRaw() error = %v, want ErrAssetInvalid", err)
			}
			if f.Count("CreateSound") != 0 {
				t.Error("invalid asset reached the engine")
			}
		})
	}
}

func TestLoadSoundDetectsFormat(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())

	snd, err := r.LoadSound(wavData(t, 8000, 2, []int16{1, 2, 3, 4, 5, 6}), "")
	if err != nil {
		t.Fatalf("LoadSound() error = %v", err)
	}

	desc := f.Sounds[snd].Desc
	if desc.Format != engine.FormatFloat || desc.Frequency != 8000 || desc.Channels != 2 {
		t.Errorf("desc = %+v", desc)
	}
	if r.SampleLength(snd) != 3 {
		t.Errorf("SampleLength() = %d, want 3", r.SampleLength(snd))
	}
}

func TestLoadSoundErrors(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())

	if _, err := r.LoadSound([]byte("not a sound"), ""); !errors.Is(err, audio.ErrUnknownFormat) {
		t.Errorf("unknown data error = %v, want ErrUnknownFormat", err)
	}
	if _, err := r.LoadSound(nil, FormatWAV); !errors.Is(err, asset.ErrAssetInvalid) {
		t.Errorf("empty data error = %v, want ErrAssetInvalid", err)
	}
	if _, err := r.LoadSound([]byte("RIFF\x04\x00\x00\x00JUNK"), FormatWAV); !errors.Is(err, asset.ErrAssetInvalid) {
		t.Errorf("corrupt data error = %v, want ErrAssetInvalid", err)
	}
	if f.Count("CreateSound") != 0 {
		t.Error("undecodable data reached the engine")
	}

	f.FailOn("CreateSound", errors.New("out of memory"))
	if _, err := r.LoadSound(wavData(t, 8000, 1, []int16{1, 2}), FormatWAV); engine.Code(err) != engine.CodeInternal {
		t.Errorf("engine failure error = %v", err)
	}
}

func TestUnloadAndLengths(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())

	if err := r.UnloadSound(0); err != nil {
		t.Errorf("UnloadSound(0) error = %v", err)
	}
	if r.MSLength(0) != 0 || r.SampleLength(12345) != 0 {
		t.Error("unknown sounds report a length")
	}

	snd, _ := r.LoadSoundRaw(rawSound(10))
	if err := r.UnloadSound(snd); err != nil {
		t.Fatalf("UnloadSound() error = %v", err)
	}
	if !f.Sounds[snd].Released {
		t.Error("sound not released")
	}
}

func TestVolumesPauseAndFocus(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())

	_ = r.SetSFXVolume(0.3)
	_ = r.SetMusicVolume(0.6)
	if f.GroupParams[engine.GroupSFX][engine.ParamVolume] != 0.3 || f.GroupParams[engine.GroupMusic][engine.ParamVolume] != 0.6 {
		t.Errorf("group params = %v", f.GroupParams)
	}

	_ = r.SetSFXPaused(true, 0)
	_ = r.SetSFXPaused(true, 1)
	_ = r.SetSFXPaused(false, 0)
	if f.GroupParams[engine.GroupPausableSFX][engine.ParamPaused] != 1 {
		t.Error("pausable group resumed while a slot still holds it")
	}
	_ = r.SetSFXPaused(false, 1)
	if f.GroupParams[engine.GroupPausableSFX][engine.ParamPaused] != 0 {
		t.Error("pausable group still paused")
	}

	if err := r.SetInactive(dsp.Complete); err != nil {
		t.Fatalf("SetInactive() error = %v", err)
	}
	if f.Nodes[f.Target].Active {
		t.Error("output target still active")
	}
}

func TestUpdateListener(t *testing.T) {
	t.Parallel()

	r, f := newRenderer(t, 48000, DefaultConfig())

	if err := r.UpdateListener(listener.State{Valid: true, Underwater: true}); err != nil {
		t.Fatalf("UpdateListener() error = %v", err)
	}
	if got := f.GroupParams[engine.GroupPausableSFX][engine.ParamPitch]; got != 0.7937005 {
		t.Errorf("pausable pitch = %v, want 0.7937005", got)
	}
	if f.Count("SetReverb") != 0 {
		t.Error("default environment pushed on the first update")
	}

	env := listener.Environments()[2]
	r.SetForcedEnvironment(env)
	_ = r.UpdateListener(listener.State{Valid: true})
	if r.Environment() != env || f.Count("SetReverb") != 1 {
		t.Errorf("environment = %v, reverb pushes = %d", r.Environment().Name, f.Count("SetReverb"))
	}
	if got := f.GroupParams[engine.GroupPausableSFX][engine.ParamPitch]; got != 1 {
		t.Errorf("pausable pitch after surfacing = %v, want 1", got)
	}
}

func TestStreams(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.StreamBuffer = 64 * 1024
	r, f := newRenderer(t, 48000, cfg)

	cb, err := r.CreateStream(func([]byte) bool { return true }, 4096, engine.FormatPCM16, 2, 44100)
	if err != nil {
		t.Fatalf("CreateStream() error = %v", err)
	}
	if cb.State() != stream.Ready {
		t.Errorf("callback stream state = %v, want Ready", cb.State())
	}

	file, err := r.OpenStream(bytes.NewReader(wavData(t, 8000, 1, []int16{1, 2, 3})), FormatWAV)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	desc := f.Sounds[file.Sound()].StreamDesc
	if desc.Kind != engine.StreamSource || desc.Source == nil || desc.BufferBytes != 64*1024 {
		t.Errorf("file stream desc = %+v", desc)
	}

	url, err := r.OpenURLStream("http://example.com/radio.ogg")
	if err != nil {
		t.Fatalf("OpenURLStream() error = %v", err)
	}
	if desc := f.Sounds[url.Sound()].StreamDesc; desc.Kind != engine.StreamURL || desc.URL != "http://example.com/radio.ogg" {
		t.Errorf("url stream desc = %+v", desc)
	}

	if _, err := r.OpenStream(bytes.NewReader(nil), "flac"); !errors.Is(err, audio.ErrUnknownFormat) {
		t.Errorf("unknown stream format error = %v", err)
	}
}

type taggedDecoder map[string]string

func (d taggedDecoder) Decode(io.Reader) (audio.Source, error) {
	return audiotest.NewSilentSource(44100, 2, 44100).WithTags(d), nil
}

func TestOpenStreamAppliesLoopTags(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Registry = audio.NewRegistry()
	cfg.Registry.Register("tagged", taggedDecoder{
		asset.TagLoopStart: "1000",
		asset.TagLoopEnd:   "20000",
		asset.TagLoopBidi:  "on",
	})
	r, f := newRenderer(t, 48000, cfg)
	f.DefaultLength = 44100

	s, err := r.OpenStream(bytes.NewReader(nil), "tagged")
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}

	snd := f.Sounds[s.Sound()]
	if snd.LoopStart != 1000 || snd.LoopEnd != 19999 {
		t.Errorf("loop = %d-%d, want 1000-19999", snd.LoopStart, snd.LoopEnd)
	}
	if !snd.Info.Mode.Has(engine.ModeLoopBidi) {
		t.Errorf("mode = %b, want bidirectional loop", snd.Info.Mode)
	}

	if err := s.Play(true, 1); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !snd.Info.Mode.Has(engine.ModeLoopBidi) {
		t.Errorf("mode after Play = %b, want bidirectional loop", snd.Info.Mode)
	}
}

func TestDecodeSample(t *testing.T) {
	t.Parallel()

	r, _ := newRenderer(t, 48000, DefaultConfig())

	tests := []struct {
		name    string
		outLen  int
		samples []int16
		want    []int16
	}{
		{"padded", 10, []int16{-4, -2}, []int16{-4, -2, 0, 0, 0}},
		{"truncated", 4, []int16{-4, -2, -1}, []int16{-4, -2}},
		{"exact", 6, []int16{0, -256, -512}, []int16{0, -256, -512}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.DecodeSample(tt.outLen, wavData(t, 11025, 1, tt.samples), FormatWAV)
			if err != nil {
				t.Fatalf("DecodeSample() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeSampleRejectsStereo(t *testing.T) {
	t.Parallel()

	r, _ := newRenderer(t, 48000, DefaultConfig())

	_, err := r.DecodeSample(8, wavData(t, 11025, 2, []int16{1, 2, 3, 4}), "")
	if !errors.Is(err, ErrUnsupportedSample) {
		t.Fatalf("DecodeSample() error = %v, want ErrUnsupportedSample", err)
	}
}

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), FormatWAV},
		{"riff not wave", []byte("RIFF\x24\x00\x00\x00AVI "), ""},
		{"ogg", []byte("OggS\x00"), FormatVorbis},
		{"aiff", []byte("FORM\x00\x00\x00\x10AIFF"), FormatAIFF},
		{"aifc", []byte("FORM\x00\x00\x00\x10AIFC"), FormatAIFF},
		{"mp3 id3", []byte("ID3\x03\x00"), FormatMP3},
		{"mp3 frame", []byte{0xff, 0xfb, 0x90, 0x00}, FormatMP3},
		{"short", []byte("RI"), ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Sniff(tt.data); got != tt.want {
				t.Errorf("Sniff() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	n := &endRecorder{}
	cfg := DefaultConfig()
	cfg.Notifier = n
	r, f := newRenderer(t, 48000, cfg)

	snd, _ := r.LoadSoundRaw(rawSound(100))
	s, err := r.StartSound(snd, 1, channel.NormalPitch, 0, nil)
	if err != nil {
		t.Fatalf("StartSound() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !f.Channels[s.Channel()].Stopped {
		t.Error("channel not stopped by Close")
	}
	released := f.Count("ReleaseNode")
	if released == 0 {
		t.Error("effect nodes not released")
	}

	if err := r.Close(); err != nil || f.Count("ReleaseNode") != released {
		t.Errorf("second Close() = %v, released %d more nodes", err, f.Count("ReleaseNode")-released)
	}

	if _, err := r.StartSound(snd, 1, channel.NormalPitch, 0, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("StartSound() after Close error = %v, want ErrClosed", err)
	}
	if err := r.Advance(); !errors.Is(err, ErrClosed) {
		t.Errorf("Advance() after Close error = %v, want ErrClosed", err)
	}
	if _, err := r.LoadSoundRaw(rawSound(10)); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadSoundRaw() after Close error = %v, want ErrClosed", err)
	}

	calls := len(f.Calls)
	for name, fn := range map[string]func() error{
		"StopChannel":         func() error { return r.StopChannel(s) },
		"SetChannelVolume":    func() error { return r.SetChannelVolume(s, 0.5) },
		"UpdateSoundParams3D": func() error { return r.UpdateSoundParams3D(channel.Listener{Valid: true}, s, false, engine.Vec3{X: 10}, engine.Vec3{}) },
		"SetSFXVolume":        func() error { return r.SetSFXVolume(0.5) },
		"SetMusicVolume":      func() error { return r.SetMusicVolume(0.5) },
		"SetSFXPaused":        func() error { return r.SetSFXPaused(true, 0) },
		"SetInactive":         func() error { return r.SetInactive(dsp.Mute) },
	} {
		if err := fn(); !errors.Is(err, ErrClosed) {
			t.Errorf("%s() after Close error = %v, want ErrClosed", name, err)
		}
	}
	if len(f.Calls) != calls {
		t.Errorf("closed renderer made %d engine calls", len(f.Calls)-calls)
	}
}
