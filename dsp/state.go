// SPDX-License-Identifier: EPL-2.0

package dsp

import "github.com/ik5/sndrender/engine"

// Inactive is the application focus state.
type Inactive int

const (
	Active Inactive = iota
	// Complete stops all processing, reverb tails included.
	Complete
	// Mute keeps processing but silences the output.
	Mute
)

// SetInactive applies the focus state to the output target.
func (g *Graph) SetInactive(state Inactive) error {
	if g.target == 0 {
		return nil
	}

	mix, active := 1.0, true
	switch state {
	case Complete:
		active = false
	case Mute:
		mix = 0
	}

	if err := g.eng.SetNodeParam(g.target, engine.NodeGain, mix); err != nil {
		return err
	}
	return g.eng.SetNodeActive(g.target, active)
}

// SetSFXPaused records a pause reason in slot. The pausable group is paused
// while any slot is set.
func (g *Graph) SetSFXPaused(paused bool, slot int) error {
	old := g.paused
	if paused {
		g.paused |= 1 << slot
	} else {
		g.paused &^= 1 << slot
	}

	switch {
	case old != 0 && g.paused == 0:
		return g.eng.SetGroupParam(engine.GroupPausableSFX, engine.ParamPaused, 0)
	case old == 0 && g.paused != 0:
		return g.eng.SetGroupParam(engine.GroupPausableSFX, engine.ParamPaused, 1)
	}
	return nil
}

// SFXPaused reports whether any pause slot is set.
func (g *Graph) SFXPaused() bool { return g.paused != 0 }
