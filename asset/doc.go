// SPDX-License-Identifier: EPL-2.0

// Package asset turns game sound data into engine sound descriptors.
//
// Raw PCM lumps carry their own rate, channel count and bit depth. A bit
// depth of -8 marks signed 8-bit data, which is converted to the unsigned
// form engines expect. Compressed data is decoded through an
// audio.Registry and its metadata tags are kept so loop points can be
// applied once the sound exists.
//
// # Loop tags
//
// LOOP_START and LOOP_END hold either a plain sample count or a time in the
// form [[hh:]mm:]ss[.fff]. LOOP_END is exclusive. A start without an end
// loops to the end of the sound; an end without a start loops from 0.
// LOOP_BIDI set to on, true, yes or 1 requests a ping-pong loop.
package asset
