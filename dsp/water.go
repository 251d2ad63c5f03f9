// SPDX-License-Identifier: EPL-2.0

package dsp

import "github.com/ik5/sndrender/engine"

// SetUnderwater engages or releases the underwater effect. The engine is
// only touched when on, cutoff or reverb differ from the last call, and
// cutoff and reverb are ignored while the effect is off.
func (g *Graph) SetUnderwater(on bool, cutoff float64, reverb bool) error {
	cutoff = ClampCutoff(cutoff)
	next := underwater{on: on, cutoff: cutoff, reverb: reverb}

	if next.on == g.state.on && (!on || next == g.state) {
		g.state = next
		return nil
	}

	var err error
	if on {
		err = g.engage(cutoff, reverb)
	} else {
		err = g.release()
	}
	if err != nil {
		return err
	}
	g.state = next
	return nil
}

func (g *Graph) engage(cutoff float64, reverb bool) error {
	if err := g.eng.SetGroupParam(engine.GroupPausableSFX, engine.ParamPitch, underwaterPitch); err != nil {
		return err
	}
	if g.lowPass == 0 {
		return nil
	}

	if cutoff != 0 && cutoff != g.cutoff {
		if err := g.eng.SetNodeParam(g.lowPass, engine.LowPassCutoff, cutoff); err != nil {
			return err
		}
		g.cutoff = cutoff
	}
	if err := g.eng.SetNodeActive(g.lowPass, true); err != nil {
		return err
	}

	if g.reverb != 0 && reverb {
		if err := g.eng.SetNodeActive(g.reverb, true); err != nil {
			return err
		}
		if err := g.eng.SetNodeBypass(g.reverb, false); err != nil {
			return err
		}
		return g.eng.SetConnectionMix(g.dry, 0)
	}

	// Keep some dry signal so high frequencies are not lost entirely.
	if err := g.eng.SetConnectionMix(g.dry, underwaterDryMix); err != nil {
		return err
	}
	if g.reverb != 0 {
		if err := g.eng.SetNodeActive(g.reverb, true); err != nil {
			return err
		}
		return g.eng.SetNodeBypass(g.reverb, true)
	}
	return nil
}

func (g *Graph) release() error {
	if err := g.eng.SetGroupParam(engine.GroupPausableSFX, engine.ParamPitch, 1); err != nil {
		return err
	}
	if g.lowPass == 0 {
		return nil
	}

	if err := g.eng.SetConnectionMix(g.dry, 1); err != nil {
		return err
	}
	if err := g.eng.SetNodeActive(g.lowPass, false); err != nil {
		return err
	}
	if g.reverb != 0 {
		return g.eng.SetNodeActive(g.reverb, false)
	}
	return nil
}
