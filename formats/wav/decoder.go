// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/sndrender/audio"
)

const formatPCM = 1

// smpl chunk loop type for ping-pong loops.
const loopAlternating = 1

// source serves a fully decoded WAV from memory so it can seek freely.
type source struct {
	samples    []float32
	pos        int
	sampleRate int
	channels   int
	tags       map[string]string
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

func (s *source) Tags() map[string]string { return s.tags }

func (s *source) Frames() int64 { return int64(len(s.samples) / s.channels) }

func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.Frames() {
		return fmt.Errorf("seek to frame %d: %w", frame, io.ErrUnexpectedEOF)
	}
	s.pos = int(frame) * s.channels
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}

	n := copy(dst, s.samples[s.pos:])
	s.pos += n
	if s.pos >= len(s.samples) {
		return n, io.EOF
	}
	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading wav data: %w", err)
	}

	dec := gowav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if dec.WavAudioFormat != formatPCM {
		return nil, ErrOnlyPCMSupported
	}
	if dec.NumChans == 0 {
		return nil, ErrBadChannelCount
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrNoSampleData
	}

	samples, err := normalize(buf, int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	return &source{
		samples:    samples,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		tags:       readTags(data),
	}, nil
}

func normalize(buf *goaudio.IntBuffer, bitDepth int) ([]float32, error) {
	out := make([]float32, len(buf.Data))

	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		for i, v := range buf.Data {
			out[i] = float32(v-128) / 128.0
		}
	case 16, 24, 32:
		scale := float64(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			out[i] = float32(float64(v) / scale)
		}
	default:
		return nil, ErrUnsupportedDepth
	}

	return out, nil
}

// readTags maps INFO text and the first sampler loop to tag names. Loop ends
// are stored exclusive, the way LOOP_END tags are written by hand.
func readTags(data []byte) map[string]string {
	dec := gowav.NewDecoder(bytes.NewReader(data))
	dec.ReadMetadata()
	md := dec.Metadata
	if md == nil {
		return nil
	}

	tags := make(map[string]string)
	for k, v := range map[string]string{
		"TITLE":   md.Title,
		"ARTIST":  md.Artist,
		"COMMENT": md.Comments,
		"GENRE":   md.Genre,
	} {
		if v != "" {
			tags[k] = v
		}
	}

	if si := md.SamplerInfo; si != nil && len(si.Loops) > 0 && si.Loops[0] != nil {
		loop := si.Loops[0]
		tags["LOOP_START"] = strconv.FormatUint(uint64(loop.Start), 10)
		tags["LOOP_END"] = strconv.FormatUint(uint64(loop.End)+1, 10)
		if loop.Type == loopAlternating {
			tags["LOOP_BIDI"] = "1"
		}
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}
