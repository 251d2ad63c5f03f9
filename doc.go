// SPDX-License-Identifier: EPL-2.0

// Package sndrender is the game-side state of a sound renderer that sits on
// top of an external mixing engine.
//
// The engine owns mixing, resampling and effect processing. This package
// decides what to ask it for: when a channel starts and where a resumed
// sound picks up, how positioned sounds blend into head-relative panning,
// which effect units sit between the sound effect groups and the output, and
// which reverb environment the listener hears.
//
// # Quick Start
//
// Any engine.Engine can be driven. The softmix package provides one in
// software on top of gopxl/beep:
//
//	mix := softmix.New(48000)
//	r, err := sndrender.New(mix, sndrender.LoadConfig())
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	snd, _ := r.LoadSound(data, "")
//	sess, _ := r.StartSound(snd, 1, channel.NormalPitch, 0, nil)
//
// Once per game tick:
//
//	r.UpdateListener(listener.State{Position: pos, Angle: yaw, Valid: true})
//	r.Advance()
//
// # Virtual Time
//
// Sounds started during a tick are stamped one tick past the engine clock,
// so that a session stopped and restarted later (after a save and load, for
// example) resumes where it would have been. Sync(true) freezes that clock
// and suspends the mixer while the game state is written or read.
//
// # Formats
//
// LoadSound, OpenStream and DecodeSample decode through an audio.Registry.
// DefaultRegistry knows WAV, Ogg Vorbis, MP3 and AIFF; Sniff picks one from
// the leading bytes of the data. Loop points embedded as LOOP_START,
// LOOP_END and LOOP_BIDI tags are applied after loading.
//
// # Configuration
//
// LoadConfig reads the SNDRENDER_* environment variables on top of
// DefaultConfig.
package sndrender
