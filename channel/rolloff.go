// SPDX-License-Identifier: EPL-2.0

package channel

import "math"

// Rolloff maps a scaled distance to a volume factor in [0, 1].
type Rolloff interface {
	Volume(distance float64) float64
}

// LinearRolloff fades linearly from full volume at Min to silence at Max.
type LinearRolloff struct {
	Min, Max float64
}

func (r LinearRolloff) Volume(d float64) float64 {
	switch {
	case d <= r.Min:
		return 1
	case d >= r.Max:
		return 0
	}
	return (r.Max - d) / (r.Max - r.Min)
}

// LogRolloff is the inverse distance law starting at Min.
type LogRolloff struct {
	Min    float64
	Factor float64
}

func (r LogRolloff) Volume(d float64) float64 {
	if d <= r.Min {
		return 1
	}
	return r.Min / (r.Min + r.Factor*(d-r.Min))
}

// CustomRolloff interpolates Curve, which spans distances Min to Max.
type CustomRolloff struct {
	Min, Max float64
	Curve    []float64
}

func (r CustomRolloff) Volume(d float64) float64 {
	n := len(r.Curve)
	switch {
	case n == 0 || d >= r.Max:
		return 0
	case d <= r.Min:
		return r.Curve[0]
	case n == 1:
		return r.Curve[0]
	}

	pos := (d - r.Min) / (r.Max - r.Min) * float64(n-1)
	i := int(math.Floor(pos))
	if i >= n-1 {
		return r.Curve[n-1]
	}
	frac := pos - float64(i)
	return r.Curve[i] + (r.Curve[i+1]-r.Curve[i])*frac
}
