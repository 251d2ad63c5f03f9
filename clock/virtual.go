// SPDX-License-Identifier: EPL-2.0

package clock

// Virtual is the monotonic virtual time clock. The zero value is not usable;
// create one with NewVirtual.
type Virtual struct {
	now    uint64
	step   uint64
	frozen bool
}

// NewVirtual returns a clock that advances by outputRate/ticRate samples per
// tick. A non-positive ticRate is treated as one tick per second.
func NewVirtual(outputRate, ticRate int) *Virtual {
	if ticRate <= 0 {
		ticRate = 1
	}
	if outputRate < 0 {
		outputRate = 0
	}
	return &Virtual{step: uint64(outputRate / ticRate)}
}

// Now returns the current virtual time in output samples.
func (v *Virtual) Now() uint64 { return v.now }

// Step returns the number of samples one tick advances the clock by.
func (v *Virtual) Step() uint64 { return v.step }

// Frozen reports whether the clock is held by Sync.
func (v *Virtual) Frozen() bool { return v.frozen }

// Advance moves the clock to one tick past engineNow. It never moves the
// clock backwards and does nothing while frozen.
func (v *Virtual) Advance(engineNow uint64) uint64 {
	if v.frozen {
		return v.now
	}
	v.forward(engineNow + v.step)
	return v.now
}

// Set restores the clock from a snapshot. Values behind the current time are
// ignored.
func (v *Virtual) Set(t uint64) {
	v.forward(t)
}

func (v *Virtual) forward(t uint64) {
	if t > v.now {
		v.now = t
	}
}
