// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio with github.com/hajimehoshi/go-mp3.
//
// Output is always interleaved stereo. When the input is an io.Seeker the
// source implements audio.Seeker, which lets streamed music be restarted
// or positioned without reopening the file.
package mp3
