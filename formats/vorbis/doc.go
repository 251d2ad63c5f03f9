// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with github.com/jfreymuth/oggvorbis.
//
// Vorbis comments are exposed through audio.Tagger with upper-case keys, so
// a file carrying LOOP_START=4410 is read as
//
//	audio.Tags(src)["LOOP_START"] // "4410"
//
// When the input implements io.Seeker the source also implements
// audio.Seeker and positions are addressed in sample frames.
package vorbis
