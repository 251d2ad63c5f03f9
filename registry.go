// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"bytes"

	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/formats/aiff"
	"github.com/ik5/sndrender/formats/mp3"
	"github.com/ik5/sndrender/formats/vorbis"
	"github.com/ik5/sndrender/formats/wav"
)

// Format keys of DefaultRegistry.
const (
	FormatWAV    = "wav"
	FormatVorbis = "ogg"
	FormatMP3    = "mp3"
	FormatAIFF   = "aiff"
)

// DefaultRegistry returns a registry with every bundled decoder.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(FormatWAV, wav.Decoder{})
	reg.Register(FormatVorbis, vorbis.Decoder{})
	reg.Register(FormatMP3, mp3.Decoder{})
	reg.Register(FormatAIFF, aiff.Decoder{})
	return reg
}

// Sniff guesses the format of data from its leading bytes. It returns ""
// when nothing matches.
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return FormatAIFF
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0:
		// MPEG frame sync
		return FormatMP3
	}
	return ""
}
