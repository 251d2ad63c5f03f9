// SPDX-License-Identifier: EPL-2.0

package dsp

import "github.com/ik5/sndrender/engine"

// HookReverb moves the engine's SFX reverb unit from the output target into
// the placeholder. It returns true once the move has happened and does
// nothing after that.
func (g *Graph) HookReverb() bool {
	if g.hooked {
		return true
	}
	if g.target == 0 || g.placeholder == 0 {
		return false
	}

	inputs, err := g.eng.Inputs(g.target)
	if err != nil {
		return false
	}

	var unit engine.Node
	for i := len(inputs) - 1; i >= 0; i-- {
		if t, err := g.eng.NodeType(inputs[i]); err == nil && t == engine.NodeSFXReverb {
			unit = inputs[i]
			break
		}
	}
	if unit == 0 {
		return false
	}

	if err := g.eng.Disconnect(g.target, unit); err != nil {
		return false
	}
	if _, err := g.eng.Connect(g.placeholder, unit); err != nil {
		return false
	}

	g.hooked = true
	return true
}
