// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/engine"
)

// chunkBytes caps a single callback read.
const chunkBytes = 16 * 1024

// feed pulls stream data on demand from the mixing side.
type feed struct {
	kind     engine.StreamKind
	read     func(buf []byte) bool
	format   engine.SampleFormat
	channels int
	chunk    []byte

	src  audio.Source
	fbuf []float32

	pending [][2]float64
	pos     uint64
	eof     bool

	voice *voice
}

func (e *Engine) CreateStream(desc engine.StreamDesc) (engine.Sound, error) {
	const op = "CreateStream"

	f := &feed{kind: desc.Kind}
	info := engine.SoundInfo{Priority: 128, Mode: engine.Mode2D | engine.ModeLoopOff}

	switch desc.Kind {
	case engine.StreamCallback:
		if desc.Read == nil || desc.Frequency <= 0 || desc.Channels <= 0 {
			return 0, engine.Fail(op, engine.CodeInvalidParam, nil)
		}
		if desc.Format != engine.FormatFloat {
			if _, err := decodePCM(nil, desc.Format); err != nil {
				return 0, engine.Fail(op, engine.CodeFormat, err)
			}
		}
		f.read, f.format, f.channels = desc.Read, desc.Format, desc.Channels
		f.chunk = make([]byte, min(max(desc.BufferBytes, 1024), chunkBytes))
		info.Frequency = float64(desc.Frequency)
		info.Channels = desc.Channels

	case engine.StreamSource:
		if desc.Source == nil || desc.Source.SampleRate() <= 0 {
			return 0, engine.Fail(op, engine.CodeInvalidParam, nil)
		}
		f.src = desc.Source
		f.channels = max(desc.Source.Channels(), 1)
		size := max(desc.Source.BufSize(), 256)
		f.fbuf = make([]float32, size-size%f.channels)
		info.Frequency = float64(desc.Source.SampleRate())
		info.Channels = f.channels
		if sk, ok := desc.Source.(audio.Seeker); ok {
			info.Length = uint64(max(sk.Frames(), 0))
			info.LengthMS = info.Length * 1000 / uint64(desc.Source.SampleRate())
		}

	default:
		return 0, engine.Fail(op, engine.CodeUnsupported, engine.ErrUnsupported)
	}

	if desc.Loop {
		info.Mode = engine.Mode2D | engine.ModeLoopNormal
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := engine.Sound(e.id())
	e.sounds[s] = &sound{info: info, rate: info.Frequency, feed: f}
	return s, nil
}

// StreamStatus reports Streaming while a channel plays the stream. Data is
// pulled synchronously, so streams are always fully buffered and never
// starve.
func (e *Engine) StreamStatus(s engine.Sound) (engine.StreamStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("StreamStatus", s)
	if err != nil {
		return engine.StreamStatus{}, err
	}
	if snd.feed == nil {
		return engine.StreamStatus{}, engine.Fail("StreamStatus", engine.CodeInvalidParam, nil)
	}

	st := engine.StreamStatus{State: engine.OpenReady, PercentBuffered: 100}
	if v := snd.feed.voice; v != nil && !v.done {
		st.State = engine.OpenPlaying
	}
	return st, nil
}

func (f *feed) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		if len(f.pending) == 0 {
			if f.eof || !f.pull() {
				break
			}
			continue
		}
		c := copy(samples[n:], f.pending)
		f.pending = f.pending[c:]
		f.pos += uint64(c)
		n += c
	}
	return n, n > 0
}

func (f *feed) Err() error { return nil }

func (f *feed) position() uint64 { return f.pos }

func (f *feed) seek(frame uint64) error {
	sk, ok := f.src.(audio.Seeker)
	if !ok {
		return engine.Fail("SetChannelParam", engine.CodeUnsupported, engine.ErrUnsupported)
	}
	if err := sk.SeekFrame(int64(frame)); err != nil {
		return engine.Fail("SetChannelParam", engine.CodeInvalidParam, err)
	}
	f.pending, f.pos, f.eof = nil, frame, false
	return nil
}

// rewind prepares the feed for a new channel.
func (f *feed) rewind() {
	f.pending = nil
	if f.pos == 0 {
		return
	}
	if sk, ok := f.src.(audio.Seeker); ok && sk.SeekFrame(0) == nil {
		f.pos, f.eof = 0, false
	}
}

// detach stops the feed from pulling any more data.
func (f *feed) detach() {
	f.eof = true
	f.pending = nil
}

func (f *feed) loops() bool {
	return f.voice != nil && f.voice.loops()
}

// pull refills pending. It returns false at the end of the data.
func (f *feed) pull() bool {
	if f.kind == engine.StreamCallback {
		return f.pullCallback()
	}
	return f.pullSource(true)
}

func (f *feed) pullCallback() bool {
	if !f.read(f.chunk) {
		f.eof = true
		return false
	}

	var samples []float32
	if f.format == engine.FormatFloat {
		samples = make([]float32, len(f.chunk)/4)
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.chunk[4*i:]))
		}
	} else {
		samples, _ = decodePCM(f.chunk, f.format)
	}
	f.pending = frames(samples, f.channels)
	return len(f.pending) > 0
}

func (f *feed) pullSource(rewind bool) bool {
	n, err := f.src.ReadSamples(f.fbuf)
	if n > 0 {
		f.pending = frames(f.fbuf[:n], f.channels)
		return true
	}
	if err != nil && !errors.Is(err, io.EOF) {
		f.eof = true
		return false
	}

	// End of data, or a source that made no progress.
	if rewind && f.loops() {
		if sk, ok := f.src.(audio.Seeker); ok && sk.SeekFrame(0) == nil {
			f.pos = 0
			return f.pullSource(false)
		}
	}
	f.eof = true
	return false
}
