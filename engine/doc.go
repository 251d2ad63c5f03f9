// SPDX-License-Identifier: EPL-2.0

// Package engine describes the capability surface sndrender consumes from an
// external mixing engine.
//
// The engine itself is opaque: it owns decoded samples, playback channels,
// channel groups and DSP units. This package only names the operations the
// rest of the module needs, split into small interfaces so each component
// depends on the part it uses:
//
//   - Sounds: create, release and describe engine-resident samples
//   - Channels: play, stop and parameterize playback instances
//   - Graph: channel-group heads and DSP node routing
//   - System: clock, listener, reverb, callbacks and the periodic update
//   - Streams: streaming sounds for music
//
// # Errors
//
// Every operation fails with a *BackendError carrying the backend's status
// code. Implementations never retry; the caller decides whether to degrade
// or abort:
//
//	ch, err := eng.PlaySound(snd, engine.GroupPausableSFX, true)
//	var be *engine.BackendError
//	if errors.As(err, &be) {
//	    log.Printf("play failed with code %d", be.Code)
//	}
//
// Querying a channel that already ended fails with an error matching
// ErrNotPlaying.
//
// # Callbacks
//
// End-of-playback and virtual-voice notifications are only delivered from
// inside Update. Rolloff is asked for whenever the engine recomputes distance
// attenuation.
package engine
