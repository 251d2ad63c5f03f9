// SPDX-License-Identifier: EPL-2.0

// Package dsp builds and maintains the effect routing between the pausable
// SFX group and the SFX group.
//
// The routing after Build is
//
//	PausableSFX -> Placeholder -> SFX                 (dry connection)
//	               Placeholder -> LowPass -> Reverb -> SFX
//
// The placeholder is a bypassed mixer. It gives the engine's own SFX reverb
// unit, which some backends create lazily, a fixed place to be moved to:
// HookReverb finds that unit among the output target's inputs and rewires
// it into the placeholder so the underwater chain also colours reverb.
//
// Every node is optional. A creation or connection failure during Build is
// logged and recorded as ErrGraphDegraded, and the effect is unavailable.
package dsp
