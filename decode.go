// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/sndrender/utils"
)

// DecodeSample decodes a compressed mono sample into outLen bytes of 16-bit
// PCM, returned as outLen/2 samples. A sample shorter than that is padded
// with silence. codec names a registry format; "" detects it from the data.
func (r *Renderer) DecodeSample(outLen int, coded []byte, codec string) ([]int16, error) {
	if codec == "" {
		codec = Sniff(coded)
	}

	src, err := r.reg.Decode(codec, bytes.NewReader(coded))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if ch := src.Channels(); ch != 1 {
		return nil, fmt.Errorf("%d channels: %w", ch, ErrUnsupportedSample)
	}

	out := make([]int16, max(outLen, 0)/2)
	buf := make([]float32, max(src.BufSize(), 256))

	filled := 0
	for filled < len(out) {
		n, err := src.ReadSamples(buf[:min(len(buf), len(out)-filled)])
		for i := range n {
			out[filled+i] = utils.Float32ToInt16(buf[i])
		}
		filled += n

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s sample: %w", codec, err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}
