// SPDX-License-Identifier: EPL-2.0

package listener

import (
	"math"

	"github.com/ik5/sndrender/engine"
)

// Properties is a room description in the classic environmental reverb
// units: levels in millibels, times in seconds.
type Properties struct {
	Room             float64
	RoomHF           float64
	RoomLF           float64
	DecayTime        float64
	DecayHFRatio     float64
	DecayLFRatio     float64
	Reflections      float64
	ReflectionsDelay float64
	Reverb           float64
	ReverbDelay      float64
	HFReference      float64
	Diffusion        float64
	Density          float64
}

// Environment is a named reverb setting. Identity matters: the tracker
// pushes reverb when the environment pointer changes or Modified is set.
type Environment struct {
	Name       string
	Properties Properties
	// Modified forces the next Update to push the properties again.
	Modified bool
	// SoftwareWater engages the underwater effect whatever the listener
	// state.
	SoftwareWater bool
}

// Environments returns fresh copies of the predefined environments. The
// first one is the default used when the listener has none.
func Environments() []*Environment {
	return []*Environment{
		{Name: "Off", Properties: Properties{
			Room: -10000, RoomHF: -10000, DecayTime: 1, DecayHFRatio: 1, DecayLFRatio: 1,
			Reflections: -2602, ReflectionsDelay: 0.007, Reverb: 200, ReverbDelay: 0.011,
			HFReference: 5000,
		}},
		{Name: "Generic", Properties: Properties{
			Room: -1000, RoomHF: -100, DecayTime: 1.49, DecayHFRatio: 0.83, DecayLFRatio: 1,
			Reflections: -2602, ReflectionsDelay: 0.007, Reverb: 200, ReverbDelay: 0.011,
			HFReference: 5000, Diffusion: 100, Density: 100,
		}},
		{Name: "Hallway", Properties: Properties{
			Room: -1000, RoomHF: -300, DecayTime: 1.49, DecayHFRatio: 0.59, DecayLFRatio: 1,
			Reflections: -1219, ReflectionsDelay: 0.007, Reverb: 441, ReverbDelay: 0.011,
			HFReference: 5000, Diffusion: 100, Density: 100,
		}},
		{Name: "Cave", Properties: Properties{
			Room: -1000, DecayTime: 2.91, DecayHFRatio: 1.3, DecayLFRatio: 1,
			Reflections: -602, ReflectionsDelay: 0.015, Reverb: -302, ReverbDelay: 0.022,
			HFReference: 5000, Diffusion: 100, Density: 100,
		}},
		{Name: "Arena", Properties: Properties{
			Room: -1000, RoomHF: -698, DecayTime: 7.24, DecayHFRatio: 0.33, DecayLFRatio: 1,
			Reflections: -1166, ReflectionsDelay: 0.02, Reverb: 16, ReverbDelay: 0.03,
			HFReference: 5000, Diffusion: 100, Density: 100,
		}},
		{Name: "Underwater", SoftwareWater: true, Properties: Properties{
			Room: -1000, RoomHF: -4000, DecayTime: 1.49, DecayHFRatio: 0.1, DecayLFRatio: 1,
			Reflections: -449, ReflectionsDelay: 0.007, Reverb: 1700, ReverbDelay: 0.011,
			HFReference: 5000, Diffusion: 100, Density: 100,
		}},
	}
}

// Convert maps room properties onto the engine's reverb parameters.
func Convert(p Properties) engine.ReverbParams {
	lateEarly := math.Pow(10, (p.Reverb-p.Reflections)/2000)
	power := math.Pow(10, p.Reflections/1000) + math.Pow(10, p.Reverb/1000)

	mix := 100.0
	if p.Reflections > -10000 {
		mix = lateEarly / (lateEarly + 1) * 100
	}

	return engine.ReverbParams{
		DecayTime:         p.DecayTime * 1000,
		EarlyDelay:        p.ReflectionsDelay * 1000,
		LateDelay:         p.ReverbDelay * 1000,
		HFReference:       p.HFReference,
		HFDecayRatio:      clamp(p.DecayHFRatio*100, 0, 100),
		Diffusion:         p.Diffusion,
		Density:           p.Density,
		LowShelfFrequency: p.DecayLFRatio,
		LowShelfGain:      clamp(p.RoomLF/100, -48, 12),
		HighCut:           clamp(highCut(p), 20, 20000),
		EarlyLateMix:      mix,
		WetLevel:          clamp(10*math.Log10(power)+p.Room/100, -80, 20),
	}
}

// highCut derives the high-cut frequency from the HF room gain. Only rooms
// with a low-frequency cut get one.
func highCut(p Properties) float64 {
	if p.RoomLF >= 0 {
		return 20000
	}
	g := math.Pow(10, p.RoomHF/2000)
	ratio := (1 - g) / g
	if ratio <= 0 {
		return 20000
	}
	return p.HFReference / math.Sqrt(ratio)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
