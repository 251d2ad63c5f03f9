// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"io"
	"log"

	"github.com/ik5/sndrender/engine"
)

// Low-pass cutoff limits in Hz.
const (
	MinCutoff = 10.0
	MaxCutoff = 22000.0
)

// Water chain parameters. The reverb values are empirical.
const (
	waterResonance    = 2
	waterLowShelf     = 150
	waterHFReference  = 10000
	waterDryLevel     = 0
	waterHFDecayRatio = 100
	waterDecayTime    = 0.25
	waterDensity      = 100
	waterDiffusion    = 100
	underwaterPitch   = 0.7937005 // four semitones down
	underwaterDryMix  = 0.1
)

// ClampCutoff limits a low-pass cutoff to the usable range. 0 stays 0 and
// means the filter is disabled.
func ClampCutoff(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return min(max(hz, MinCutoff), MaxCutoff)
}

type underwater struct {
	on     bool
	cutoff float64
	reverb bool
}

// Graph is the effect routing with named slots. A zero slot is unavailable.
type Graph struct {
	eng    engine.Graph
	logger *log.Logger

	sfxHead     engine.Node
	target      engine.Node
	placeholder engine.Node
	lowPass     engine.Node
	reverb      engine.Node
	dry         engine.Connection

	degraded []error
	hooked   bool
	state    underwater
	cutoff   float64
	paused   uint32
}

// Build creates the underwater chain. It never fails; missing pieces are
// reported by Degraded. cutoff is the initial low-pass cutoff in Hz.
func Build(eng engine.Graph, cutoff float64, logger *log.Logger) *Graph {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	g := &Graph{eng: eng, logger: logger, cutoff: ClampCutoff(cutoff)}
	g.state = underwater{cutoff: g.cutoff}

	lp, err := eng.CreateNode(engine.NodeLowPass)
	if err != nil {
		g.degrade("could not create underwater lowpass unit", err)
	} else {
		g.lowPass = lp
		if rv, err := eng.CreateNode(engine.NodeSFXReverb); err != nil {
			g.degrade("could not create underwater reverb unit", err)
		} else {
			g.reverb = rv
		}
	}

	if g.lowPass != 0 {
		g.wireWater()
	}

	if target, err := eng.OutputTarget(); err != nil {
		g.degrade("could not find output target", err)
	} else {
		g.target = target
	}

	return g
}

func (g *Graph) degrade(msg string, err error) {
	g.logger.Printf("%s: %v", msg, err)
	g.degraded = append(g.degraded, fmt.Errorf("%w: %s: %w", ErrGraphDegraded, msg, err))
}

// wireWater inserts the placeholder and hangs the water chain off it,
// keeping the existing pausable to SFX connection until the placeholder
// replaces it.
func (g *Graph) wireWater() {
	sfx, err := g.eng.GroupHead(engine.GroupSFX)
	if err != nil {
		g.degrade("could not find sfx head", err)
		g.dropWater()
		return
	}
	src, err := g.eng.GroupHead(engine.GroupPausableSFX)
	if err != nil {
		g.degrade("could not find pausable sfx head", err)
		g.dropWater()
		return
	}
	dry, err := g.eng.Connection(sfx, src)
	if err != nil {
		g.degrade("pausable sfx is not routed into sfx", err)
		g.dropWater()
		return
	}
	g.sfxHead, g.dry = sfx, dry

	if ph, conn, ok := g.insertPlaceholder(sfx, src); ok {
		g.placeholder, g.dry = ph, conn
		src = ph
	}

	if _, err := g.eng.Connect(g.lowPass, src); err != nil {
		g.degrade("could not connect underwater lowpass unit", err)
		g.dropWater()
		return
	}
	_ = g.eng.SetNodeActive(g.lowPass, false)
	_ = g.eng.SetNodeParam(g.lowPass, engine.LowPassCutoff, g.cutoff)
	_ = g.eng.SetNodeParam(g.lowPass, engine.LowPassResonance, waterResonance)

	if g.reverb != 0 && !g.wireReverb(sfx) {
		_ = g.eng.ReleaseNode(g.reverb)
		g.reverb = 0
	}

	if g.reverb == 0 {
		if _, err := g.eng.Connect(sfx, g.lowPass); err != nil {
			g.degrade("could not connect underwater lowpass output", err)
		}
	}
}

func (g *Graph) insertPlaceholder(sfx, src engine.Node) (engine.Node, engine.Connection, bool) {
	ph, err := g.eng.CreateNode(engine.NodeMixer)
	if err != nil {
		g.degrade("could not create reverb placeholder", err)
		return 0, 0, false
	}

	if _, err := g.eng.Connect(ph, src); err != nil {
		g.degrade("could not connect reverb placeholder", err)
		_ = g.eng.ReleaseNode(ph)
		return 0, 0, false
	}

	conn, err := g.eng.Connect(sfx, ph)
	if err != nil {
		g.degrade("could not connect reverb placeholder output", err)
		_ = g.eng.ReleaseNode(ph)
		return 0, 0, false
	}

	_ = g.eng.Disconnect(sfx, src)
	_ = g.eng.SetNodeActive(ph, true)
	_ = g.eng.SetNodeBypass(ph, true)
	return ph, conn, true
}

func (g *Graph) wireReverb(sfx engine.Node) bool {
	if _, err := g.eng.Connect(g.reverb, g.lowPass); err != nil {
		g.degrade("could not connect underwater reverb unit", err)
		return false
	}
	if _, err := g.eng.Connect(sfx, g.reverb); err != nil {
		g.degrade("could not connect underwater reverb output", err)
		return false
	}

	for _, p := range []struct {
		param engine.NodeParam
		value float64
	}{
		{engine.ReverbLowShelfFrequency, waterLowShelf},
		{engine.ReverbHFReference, waterHFReference},
		{engine.ReverbDryLevel, waterDryLevel},
		{engine.ReverbHFDecayRatio, waterHFDecayRatio},
		{engine.ReverbDecayTime, waterDecayTime},
		{engine.ReverbDensity, waterDensity},
		{engine.ReverbDiffusion, waterDiffusion},
	} {
		_ = g.eng.SetNodeParam(g.reverb, p.param, p.value)
	}
	_ = g.eng.SetNodeActive(g.reverb, false)
	return true
}

func (g *Graph) dropWater() {
	if g.reverb != 0 {
		_ = g.eng.ReleaseNode(g.reverb)
		g.reverb = 0
	}
	if g.lowPass != 0 {
		_ = g.eng.ReleaseNode(g.lowPass)
		g.lowPass = 0
	}
}

// Degraded lists what Build could not provide.
func (g *Graph) Degraded() []error { return g.degraded }

// LowPass returns the water low-pass node, or 0.
func (g *Graph) LowPass() engine.Node { return g.lowPass }

// Reverb returns the water reverb node, or 0.
func (g *Graph) Reverb() engine.Node { return g.reverb }

// Placeholder returns the reverb placeholder node, or 0.
func (g *Graph) Placeholder() engine.Node { return g.placeholder }

// Hooked reports whether the engine's SFX reverb has been moved into the
// placeholder.
func (g *Graph) Hooked() bool { return g.hooked }

// Underwater reports whether the underwater effect is engaged.
func (g *Graph) Underwater() bool { return g.state.on }

// Close releases the nodes Build created. Calling it again does nothing.
func (g *Graph) Close() error {
	var first error
	for _, n := range []*engine.Node{&g.reverb, &g.lowPass, &g.placeholder} {
		if *n == 0 {
			continue
		}
		if err := g.eng.ReleaseNode(*n); err != nil && first == nil {
			first = err
		}
		*n = 0
	}
	g.hooked = false
	return first
}
