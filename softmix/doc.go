// SPDX-License-Identifier: EPL-2.0

// Package softmix is a software engine built on beep.
//
// Engine implements every engine interface and is itself a beep.Streamer:
// hand it to speaker.Play or pull it directly to render offline. Channels
// are beep streamer chains (buffer, resampler, volume, pan, ctrl) mixed
// into one beep.Mixer per channel group:
//
//	Pausable SFX voices -> pitch resampler -> ctrl ─┐
//	SFX voices ─────────────────────────────────────┴> SFX ─┐
//	Music voices ───────────────────────────────────────────┴> target
//
// Mixer nodes may be created and wired for bookkeeping, and connection mix
// levels on the path from the pausable group into the SFX group are
// honoured. Low-pass and reverb units are not provided; CreateNode reports
// them as unsupported.
//
// All methods are safe for concurrent use with Stream. Callbacks never run
// with the engine's lock held.
package softmix
