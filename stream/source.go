// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/engine"
)

// DefaultBufferBytes is the decode buffer used when a source sets none.
const DefaultBufferBytes = 512 * 1024

// Source describes where stream data comes from.
type Source struct {
	kind     engine.StreamKind
	read     func(buf []byte) bool
	format   engine.SampleFormat
	channels int
	rate     int
	src      audio.Source
	url      string
	bufBytes int
}

// Callback streams PCM produced by read. read fills buf and returns false
// once it has nothing more to give; the stream then ends. The engine may
// call read from its mixing thread.
func Callback(read func(buf []byte) bool, bufBytes int, format engine.SampleFormat, channels, rate int) Source {
	return Source{
		kind:     engine.StreamCallback,
		read:     read,
		format:   format,
		channels: channels,
		rate:     rate,
		bufBytes: bufBytes,
	}
}

// File streams an already opened decoder source. Closing the stream closes
// src.
func File(src audio.Source) Source {
	return Source{kind: engine.StreamSource, src: src}
}

// URL streams from a network location.
func URL(url string) Source {
	return Source{kind: engine.StreamURL, url: url}
}

// WithBuffer returns a copy of s that asks for a bytes sized buffer.
func (s Source) WithBuffer(bytes int) Source {
	s.bufBytes = bytes
	return s
}

// Kind reports the source type.
func (s Source) Kind() engine.StreamKind { return s.kind }

func (s Source) desc() engine.StreamDesc {
	buf := s.bufBytes
	if buf <= 0 {
		buf = DefaultBufferBytes
	}
	return engine.StreamDesc{
		Kind:        s.kind,
		Read:        s.read,
		BufferBytes: buf,
		Format:      s.format,
		Channels:    s.channels,
		Frequency:   s.rate,
		Source:      s.src,
		URL:         s.url,
	}
}
