// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"fmt"
	"io"

	"github.com/ik5/sndrender/asset"
	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/stream"
)

// CreateStream opens a stream fed by read. read fills its buffer with PCM in
// format and returns false when the stream is over. It may be called from
// the mixing thread.
func (r *Renderer) CreateStream(read func(buf []byte) bool, bufBytes int, format engine.SampleFormat, channels, rate int) (*stream.Stream, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return stream.Open(r.eng, stream.Callback(read, bufBytes, format, channels, rate), r.logger)
}

// OpenStream decodes rd with the registry's format decoder and streams it.
// Loop tags in the data set the loop range used when the stream is played
// looping. Closing the stream closes the decoder.
func (r *Renderer) OpenStream(rd io.Reader, format string) (*stream.Stream, error) {
	if r.closed {
		return nil, ErrClosed
	}

	src, err := r.reg.Decode(format, rd)
	if err != nil {
		return nil, err
	}

	s, err := stream.Open(r.eng, stream.File(src).WithBuffer(r.cfg.StreamBuffer), r.logger)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("opening %s stream: %w", format, err)
	}

	asset.ApplyLoop(r.eng, s.Sound(), audio.Tags(src), r.logger)
	return s, nil
}

// OpenURLStream streams from a network location. Network streams never
// loop, so no loop tags are applied.
func (r *Renderer) OpenURLStream(url string) (*stream.Stream, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return stream.Open(r.eng, stream.URL(url).WithBuffer(r.cfg.StreamBuffer), r.logger)
}
