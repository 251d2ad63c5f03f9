// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"maps"
	"math"
)

// ErrSeekRange is returned by SeekFrame for a frame outside the source.
var ErrSeekRange = errors.New("seek out of range")

// MockSource is a test helper that generates audio data for testing.
// It implements audio.Source, audio.Seeker and audio.Tagger without
// importing the audio package.
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int
	position    int
	waveform    func(frame int, channel int) float32
	tags        map[string]string
	closed      bool
}

// NewMockSource creates a mock source of totalFrames frames whose values
// come from waveform.
func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return 0.0
	})
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return value
	})
}

// WithTags attaches metadata tags. Keys should be upper-case.
func (m *MockSource) WithTags(tags map[string]string) *MockSource {
	m.tags = maps.Clone(tags)
	return m
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

func (m *MockSource) Tags() map[string]string { return m.tags }

func (m *MockSource) Frames() int64 { return int64(m.totalFrames) }

// Position returns the next frame to be read.
func (m *MockSource) Position() int { return m.position }

func (m *MockSource) SeekFrame(frame int64) error {
	if frame < 0 || frame > int64(m.totalFrames) {
		return ErrSeekRange
	}
	m.position = int(frame)
	return nil
}

// Reset rewinds the source to the first frame.
func (m *MockSource) Reset() {
	m.position = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.position >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalFrames-m.position)

	for frame := range frames {
		idx := m.position + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(idx, ch)
		}
	}

	m.position += frames
	n := frames * m.channels

	if m.position >= m.totalFrames {
		return n, io.EOF
	}
	return n, nil
}
