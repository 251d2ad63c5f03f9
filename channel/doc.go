// SPDX-License-Identifier: EPL-2.0

// Package channel manages playback sessions on top of an engine.
//
// A Session is the logical identity of one playing sound. Its engine channel
// may be stolen or evicted and later replaced, and Manager.Start re-creates
// it at the position it would have reached had it never stopped.
//
// Two resume policies exist. With FlagAbsTime the session's StartTime is
// read as an absolute frame to seek to, which is how restored save games
// hand back positions; StartTime is then rewritten so later restarts see a
// consistent start. Otherwise the resume offset is the virtual time elapsed
// since StartTime, wrapped to the sound length for looping sounds.
//
// 3D channels blend between head-relative and world-relative panning.
// Area sounds fade from fully head-relative at the listener to fully
// positioned at BlendRadius. Point sounds become head-relative only when
// they sit on the listener.
//
// Engine notifications arrive through engine.Callbacks during the engine's
// Update. They are keyed by a tag unique to each physical channel, so a
// late notification for a replaced channel is ignored.
package channel
