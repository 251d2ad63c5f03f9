// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"bytes"
	"fmt"

	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/engine"
)

// Decoded is a compressed asset decoded to float samples.
type Decoded struct {
	Desc engine.SoundDesc
	Tags map[string]string
}

// Decode decodes data with the decoder registered for format. Data the
// decoder rejects is reported as ErrAssetInvalid.
func Decode(reg *audio.Registry, format string, data []byte) (Decoded, error) {
	if len(data) == 0 {
		return Decoded{}, fmt.Errorf("empty %s data: %w", format, ErrAssetInvalid)
	}

	src, err := reg.Decode(format, bytes.NewReader(data))
	if err != nil {
		return Decoded{}, fmt.Errorf("decoding %s: %w: %w", format, ErrAssetInvalid, err)
	}
	defer src.Close()

	samples, err := audio.ReadAll(src)
	if err != nil {
		return Decoded{}, fmt.Errorf("reading %s samples: %w", format, err)
	}
	if len(samples) == 0 {
		return Decoded{}, fmt.Errorf("%s data has no samples: %w", format, ErrAssetInvalid)
	}

	return Decoded{
		Desc: engine.SoundDesc{
			Samples:   samples,
			Format:    engine.FormatFloat,
			Channels:  src.Channels(),
			Frequency: src.SampleRate(),
			Mode:      engine.Mode3D,
		},
		Tags: audio.Tags(src),
	}, nil
}
