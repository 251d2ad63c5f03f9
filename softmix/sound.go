// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"fmt"

	"github.com/gopxl/beep"

	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/utils"
)

type sound struct {
	buf  *beep.Buffer
	info engine.SoundInfo
	// rate is the native sample rate, used for millisecond positions.
	rate float64

	loopStart, loopEnd uint64

	// feed is set for streams.
	feed *feed
}

// looping reports whether m loops. Bidirectional loops play forward.
func looping(m engine.Mode) bool {
	return m&(engine.ModeLoopNormal|engine.ModeLoopBidi) != 0
}

// frames converts interleaved samples to stereo frames. Mono is copied to
// both sides; channels past the second are dropped.
func frames(samples []float32, channels int) [][2]float64 {
	if channels < 1 {
		channels = 1
	}
	out := make([][2]float64, len(samples)/channels)
	for i := range out {
		l := float64(samples[i*channels])
		r := l
		if channels > 1 {
			r = float64(samples[i*channels+1])
		}
		out[i] = [2]float64{l, r}
	}
	return out
}

func decodePCM(data []byte, format engine.SampleFormat) ([]float32, error) {
	switch format {
	case engine.FormatPCM8:
		return utils.PCMToFloat32(data, 8)
	case engine.FormatPCM16:
		return utils.PCMToFloat32(data, 16)
	case engine.FormatPCM32:
		return utils.PCMToFloat32(data, 32)
	}
	return nil, fmt.Errorf("%w: sample format %d", engine.ErrUnsupported, format)
}

// frameStreamer plays a fixed slice of frames once. It fills beep buffers.
type frameStreamer struct {
	data [][2]float64
	pos  int
}

func (f *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	if f.pos >= len(f.data) {
		return 0, false
	}
	n := copy(samples, f.data[f.pos:])
	f.pos += n
	return n, true
}

func (f *frameStreamer) Err() error { return nil }

func (e *Engine) CreateSound(desc engine.SoundDesc) (engine.Sound, error) {
	if desc.Frequency <= 0 {
		return 0, engine.Fail("CreateSound", engine.CodeInvalidParam, nil)
	}

	samples := desc.Samples
	if desc.Format != engine.FormatFloat {
		var err error
		if samples, err = decodePCM(desc.Data, desc.Format); err != nil {
			return 0, engine.Fail("CreateSound", engine.CodeFormat, err)
		}
	}
	data := frames(samples, desc.Channels)
	if len(data) == 0 {
		return 0, engine.Fail("CreateSound", engine.CodeInvalidParam, nil)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: beep.SampleRate(desc.Frequency), NumChannels: 2, Precision: 3})
	buf.Append(&frameStreamer{data: data})

	length := uint64(buf.Len())
	mode := desc.Mode
	if mode == 0 {
		mode = engine.Mode2D | engine.ModeLoopOff
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := engine.Sound(e.id())
	e.sounds[s] = &sound{
		buf:  buf,
		rate: float64(desc.Frequency),
		info: engine.SoundInfo{
			Frequency: float64(desc.Frequency),
			Priority:  128,
			Channels:  max(desc.Channels, 1),
			Length:    length,
			LengthMS:  length * 1000 / uint64(desc.Frequency),
			Mode:      mode,
		},
		loopEnd: length - 1,
	}
	return s, nil
}

func (e *Engine) sound(op string, s engine.Sound) (*sound, error) {
	snd, ok := e.sounds[s]
	if !ok {
		return nil, invalid(op)
	}
	return snd, nil
}

// ReleaseSound frees s and stops every channel playing it.
func (e *Engine) ReleaseSound(s engine.Sound) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("ReleaseSound", s)
	if err != nil {
		return err
	}
	for _, v := range e.channels {
		if v.snd == snd {
			e.stop(v)
		}
	}
	if snd.feed != nil {
		snd.feed.detach()
	}
	delete(e.sounds, s)
	return nil
}

func (e *Engine) SoundInfo(s engine.Sound) (engine.SoundInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("SoundInfo", s)
	if err != nil {
		return engine.SoundInfo{}, err
	}
	return snd.info, nil
}

func (e *Engine) SetSoundDefaults(s engine.Sound, frequency float64, priority int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("SetSoundDefaults", s)
	if err != nil {
		return err
	}
	if frequency <= 0 || priority < 0 || priority > 256 {
		return engine.Fail("SetSoundDefaults", engine.CodeInvalidParam, nil)
	}
	snd.info.Frequency = frequency
	snd.info.Priority = priority
	return nil
}

func (e *Engine) SetLoopPoints(s engine.Sound, start, end uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("SetLoopPoints", s)
	if err != nil {
		return err
	}
	if snd.feed != nil {
		return engine.Fail("SetLoopPoints", engine.CodeUnsupported, engine.ErrUnsupported)
	}
	if start > end || end >= snd.info.Length {
		return engine.Fail("SetLoopPoints", engine.CodeInvalidParam, nil)
	}
	snd.loopStart, snd.loopEnd = start, end
	return nil
}

func (e *Engine) SetSoundMode(s engine.Sound, m engine.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("SetSoundMode", s)
	if err != nil {
		return err
	}
	snd.info.Mode = m
	return nil
}
