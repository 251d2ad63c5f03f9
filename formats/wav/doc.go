// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes WAV files.
//
// Decoding uses github.com/go-audio/wav and supports integer PCM at 8, 16,
// 24 and 32 bits. The whole file is decoded into memory, so the returned
// source implements audio.Seeker as well as audio.Tagger.
//
// # Tags
//
// The first loop of a "smpl" chunk is exposed as LOOP_START / LOOP_END
// (end exclusive, in sample frames) and LOOP_BIDI for ping-pong loops. INFO
// text fields are exposed as TITLE, ARTIST, COMMENT and GENRE.
//
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	start := audio.Tags(src)["LOOP_START"]
//
// # Writing
//
// WriteWAV16 writes interleaved 16-bit PCM with a canonical 44-byte header:
//
//	err := wav.WriteWAV16(file, 48000, 2, samples)
package wav
