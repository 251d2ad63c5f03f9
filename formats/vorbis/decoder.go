// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ik5/sndrender/audio"
	"github.com/jfreymuth/oggvorbis"
)

// ErrNotSeekable is returned by SeekFrame when the underlying reader
// cannot seek.
var ErrNotSeekable = errors.New("vorbis stream is not seekable")

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type positioner interface {
	SetPosition(int64) error
	Length() int64
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	frameBuf   []float32
	tags       map[string]string
	seekable   bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.frameBuf) }

func (s *source) Tags() map[string]string { return s.tags }

func (s *source) Frames() int64 {
	p, ok := s.dec.(positioner)
	if !ok || !s.seekable {
		return 0
	}
	return p.Length()
}

func (s *source) SeekFrame(frame int64) error {
	p, ok := s.dec.(positioner)
	if !ok || !s.seekable {
		return ErrNotSeekable
	}
	if err := p.SetPosition(frame); err != nil {
		return fmt.Errorf("seek to frame %d: %w", frame, err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// oggvorbis.Reader.Read returns samples, not frames, but only whole
	// frames are ever written.
	want := len(dst) / s.channels * s.channels
	if cap(s.frameBuf) < want {
		s.frameBuf = make([]float32, want)
	}
	s.frameBuf = s.frameBuf[:want]

	n, err := s.dec.Read(s.frameBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	copy(dst, s.frameBuf[:n])
	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	_, seekable := r.(io.Seeker)

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		frameBuf:   make([]float32, 4096),
		tags:       parseComments(dec.CommentHeader().Comments),
		seekable:   seekable,
	}, nil
}

// parseComments turns "KEY=value" vorbis comments into a tag map with
// upper-case keys. Later duplicates win.
func parseComments(comments []string) map[string]string {
	if len(comments) == 0 {
		return nil
	}

	tags := make(map[string]string, len(comments))
	for _, c := range comments {
		k, v, ok := strings.Cut(c, "=")
		if !ok || k == "" {
			continue
		}
		tags[strings.ToUpper(k)] = v
	}
	return tags
}
