// SPDX-License-Identifier: EPL-2.0

// Package utils holds PCM sample conversions shared by the decoders and the
// software mixer.
package utils

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnsupportedBits is returned for sample widths other than 8, 16 and 32.
var ErrUnsupportedBits = errors.New("unsupported PCM bit depth")

// Float32ToInt16 clamps x to [-1, 1] and scales it to int16.
func Float32ToInt16(x float32) int16 {
	if x >= 1 {
		return math.MaxInt16
	}
	if x <= -1 {
		return math.MinInt16
	}
	if x < 0 {
		return int16(x * 32768.0)
	}
	return int16(x * 32767.0)
}

// FlipSign8 converts signed 8-bit PCM to unsigned in place (and back).
func FlipSign8(data []byte) {
	for i := range data {
		data[i] ^= 0x80
	}
}

// PCMToFloat32 converts little-endian integer PCM to floats in [-1, 1].
// 8-bit data is unsigned, wider data is signed. A trailing partial sample is
// ignored.
func PCMToFloat32(data []byte, bits int) ([]float32, error) {
	switch bits {
	case 8:
		out := make([]float32, len(data))
		for i, b := range data {
			out[i] = float32(int(b)-128) / 128.0
		}
		return out, nil

	case 16:
		out := make([]float32, len(data)/2)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(data[2*i:]))
			out[i] = float32(v) / 32768.0
		}
		return out, nil

	case 32:
		out := make([]float32, len(data)/4)
		for i := range out {
			v := int32(binary.LittleEndian.Uint32(data[4*i:]))
			out[i] = float32(float64(v) / 2147483648.0)
		}
		return out, nil
	}

	return nil, ErrUnsupportedBits
}

// Int16ToFloat32 converts decoded int16 samples to floats in [-1, 1].
func Int16ToFloat32(dst []float32, src []int16) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i]) / 32768.0
	}
	return n
}
