// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"errors"
	"io"
	"testing"

	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/internal/audiotest"
)

type toneDecoder struct{}

func (toneDecoder) Decode(io.Reader) (audio.Source, error) {
	src := audiotest.NewConstantSource(22050, 2, 300, 0.25)
	return src.WithTags(map[string]string{"LOOP_START": "10"}), nil
}

func TestDecode(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	reg.Register("tone", toneDecoder{})

	dec, err := Decode(reg, "tone", []byte{1})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if dec.Desc.Format != engine.FormatFloat {
		t.Errorf("Format = %v", dec.Desc.Format)
	}
	if dec.Desc.Channels != 2 || dec.Desc.Frequency != 22050 {
		t.Errorf("layout = %d ch @ %d", dec.Desc.Channels, dec.Desc.Frequency)
	}
	if len(dec.Desc.Samples) != 600 {
		t.Errorf("samples = %d, want 600", len(dec.Desc.Samples))
	}
	if dec.Tags["LOOP_START"] != "10" {
		t.Errorf("tags = %v", dec.Tags)
	}
}

type corruptDecoder struct{}

func (corruptDecoder) Decode(io.Reader) (audio.Source, error) {
	return nil, errors.New("not a WAV file")
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	reg.Register("wav", corruptDecoder{})

	tests := []struct {
		name   string
		format string
		data   []byte
		want   []error
	}{
		{"empty data", "wav", nil, []error{ErrAssetInvalid}},
		{"unknown format", "tone", []byte{1}, []error{ErrAssetInvalid, audio.ErrUnknownFormat}},
		{"corrupt data", "wav", []byte("RIFF\x00\x00"), []error{ErrAssetInvalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(reg, tt.format, tt.data)
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Decode() error = %v, want %v", err, want)
				}
			}
		})
	}
}
