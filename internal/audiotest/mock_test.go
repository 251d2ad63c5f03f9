// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
	"testing"
)

func TestMockSourceReadsToEOF(t *testing.T) {
	t.Parallel()

	src := NewMockSource(8000, 2, 5, func(frame, ch int) float32 {
		return float32(frame*10 + ch)
	})

	buf := make([]float32, 6)
	n, err := src.ReadSamples(buf)
	if err != nil || n != 6 {
		t.Fatalf("first read = %d, %v", n, err)
	}
	if buf[5] != 21 {
		t.Errorf("buf[5] = %v, want 21", buf[5])
	}

	n, err = src.ReadSamples(buf)
	if !errors.Is(err, io.EOF) || n != 4 {
		t.Fatalf("second read = %d, %v; want 4, EOF", n, err)
	}
}

func TestMockSourceSeek(t *testing.T) {
	t.Parallel()

	src := NewConstantSource(8000, 1, 10, 0.5)

	if err := src.SeekFrame(7); err != nil {
		t.Fatalf("SeekFrame: %v", err)
	}
	if src.Position() != 7 {
		t.Errorf("Position = %d", src.Position())
	}
	if err := src.SeekFrame(11); !errors.Is(err, ErrSeekRange) {
		t.Errorf("SeekFrame(11) err = %v", err)
	}

	src.Reset()
	if src.Position() != 0 {
		t.Errorf("Position after Reset = %d", src.Position())
	}
}

func TestMockSourceTagsAreCopied(t *testing.T) {
	t.Parallel()

	tags := map[string]string{"LOOP_START": "5"}
	src := NewSilentSource(8000, 1, 10).WithTags(tags)
	tags["LOOP_START"] = "9"

	if got := src.Tags()["LOOP_START"]; got != "5" {
		t.Errorf("LOOP_START = %q, want 5", got)
	}
}
