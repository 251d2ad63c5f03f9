// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/sndrender/audio"
)

// go-mp3 always produces 16-bit stereo.
const (
	channels      = 2
	bytesPerFrame = 4
)

// ErrNotSeekable is returned by SeekFrame when the input is not an io.Seeker.
var ErrNotSeekable = errors.New("mp3 stream is not seekable")

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type byteSeeker interface {
	Seek(int64, int) (int64, error)
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	channels   int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

// Frames reports the decoded length, or 0 when it is unknown.
func (s *source) Frames() int64 {
	bs, ok := s.dec.(byteSeeker)
	if !ok {
		return 0
	}
	n := bs.Length()
	if n < 0 {
		return 0
	}
	return n / bytesPerFrame
}

func (s *source) SeekFrame(frame int64) error {
	bs, ok := s.dec.(byteSeeker)
	if !ok || bs.Length() < 0 {
		return ErrNotSeekable
	}
	if _, err := bs.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("seek to frame %d: %w", frame, err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	samples := n / 2
	for i := range samples {
		val := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(val) / 32768.0
	}

	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   channels,
		buf:        make([]byte, 8192),
	}, nil
}
