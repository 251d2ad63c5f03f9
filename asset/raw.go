// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"fmt"
	"slices"

	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/utils"
)

// NoLoop disables the loop points of a Raw asset.
const NoLoop = -1

// Raw is headerless PCM.
type Raw struct {
	Data      []byte
	Frequency int
	Channels  int
	// Bits is 8, 16 or 32; -8 means signed 8-bit.
	Bits int
	// LoopStart is a frame index, or NoLoop.
	LoopStart int
	// LoopEnd is an inclusive frame index; -1 means the last frame.
	LoopEnd int
}

func (r Raw) format() (engine.SampleFormat, error) {
	switch r.Bits {
	case 8, -8:
		return engine.FormatPCM8, nil
	case 16:
		return engine.FormatPCM16, nil
	case 32:
		return engine.FormatPCM32, nil
	}
	return 0, fmt.Errorf("%d-bit samples: %w", r.Bits, ErrAssetInvalid)
}

// Frames returns the number of sample frames in r.
func (r Raw) Frames() int {
	f, err := r.format()
	if err != nil {
		return 0
	}
	return len(r.Data) / (f.BytesPerSample() * max(r.Channels, 1))
}

// Desc builds the engine descriptor. The caller's data is never modified.
func (r Raw) Desc() (engine.SoundDesc, error) {
	if len(r.Data) == 0 {
		return engine.SoundDesc{}, fmt.Errorf("empty sample data: %w", ErrAssetInvalid)
	}
	if r.Frequency <= 0 {
		return engine.SoundDesc{}, fmt.Errorf("sample rate %d: %w", r.Frequency, ErrAssetInvalid)
	}

	format, err := r.format()
	if err != nil {
		return engine.SoundDesc{}, err
	}
	if r.Frames() == 0 {
		return engine.SoundDesc{}, fmt.Errorf("%d bytes is less than one frame: %w", len(r.Data), ErrAssetInvalid)
	}

	data := r.Data
	if r.Bits == -8 {
		data = slices.Clone(r.Data)
		utils.FlipSign8(data)
	}

	return engine.SoundDesc{
		Data:      data,
		Format:    format,
		Channels:  max(r.Channels, 1),
		Frequency: r.Frequency,
		Mode:      engine.Mode3D,
	}, nil
}

// Loop returns the inclusive loop range, if r has one.
func (r Raw) Loop() (start, end uint64, ok bool) {
	if r.LoopStart < 0 {
		return 0, 0, false
	}

	frames := r.Frames()
	last := r.LoopEnd
	if last == -1 {
		last = frames - 1
	}
	if last < r.LoopStart || last >= frames {
		return 0, 0, false
	}
	return uint64(r.LoopStart), uint64(last), true
}
