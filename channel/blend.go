// SPDX-License-Identifier: EPL-2.0

package channel

import (
	"math"

	"github.com/ik5/sndrender/engine"
)

const (
	// BlendRadius is the distance at which area sounds are fully positioned.
	BlendRadius = 32.0

	// HeadRelativeDistance is how close a point sound must be to the
	// listener to play head-relative.
	HeadRelativeDistance = 0.0004

	// spreadLevel is sqrt(0.5), the level of a centred equal-power pan.
	spreadLevel = 0.70711

	speakerOutputs = 8
)

// BlendLevel returns the 3D level of an area sound at distance from the
// listener: 0 on the listener, 1 at or beyond BlendRadius, linear between.
func BlendLevel(distance float64) float64 {
	switch {
	case distance <= 0:
		return 0
	case distance >= BlendRadius:
		return 1
	}
	return 1 - (BlendRadius-distance)/BlendRadius
}

// headSettings returns the mode c should use at pos. Area sounds keep their
// mode and get a blended 3D level instead, written only when it changed.
func (m *Manager) headSettings(l Listener, c engine.Channel, pos engine.Vec3, area bool, mode engine.Mode) engine.Mode {
	if !l.Valid {
		return mode
	}

	distSq := l.Position.Sub(pos).LengthSquared()

	if area {
		level := BlendLevel(math.Sqrt(distSq))
		old, err := m.eng.ChannelParam(c, engine.Param3DLevel)
		if err == nil && old != level {
			_ = m.eng.SetChannelParam(c, engine.Param3DLevel, level)
			if level < 1 {
				// Let the sound come from every speaker, not just the front.
				_ = m.eng.SetMixLevels(c, spread)
			}
		}
		return mode
	}

	if distSq < HeadRelativeDistance*HeadRelativeDistance {
		return mode&^engine.Mode3D | engine.Mode2D
	}
	return mode&^engine.Mode2D | engine.Mode3D
}

var spread = func() []float64 {
	levels := make([]float64, speakerOutputs)
	for i := range levels {
		levels[i] = spreadLevel
	}
	return levels
}()
