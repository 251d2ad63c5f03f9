// SPDX-License-Identifier: EPL-2.0

package listener

import (
	"errors"
	"io"
	"log"
	"math"

	"github.com/ik5/sndrender/engine"
)

// System is the engine surface the tracker pushes to.
type System interface {
	SetListener(pos, vel, forward, up engine.Vec3) error
	SetReverb(p engine.ReverbParams) error
}

// Water is the effect routing the tracker drives.
type Water interface {
	SetUnderwater(on bool, cutoff float64, reverb bool) error
	HookReverb() bool
}

// State is the listener as the game sees it this tick.
type State struct {
	Position engine.Vec3
	Velocity engine.Vec3
	// Angle is the yaw in radians.
	Angle      float64
	Valid      bool
	Underwater bool
	// Environment is the zone's reverb, or nil for the default.
	Environment *Environment
}

// Tracker remembers the last environment pushed to the engine.
type Tracker struct {
	sys    System
	water  Water
	logger *log.Logger

	def    *Environment
	forced *Environment
	prev   *Environment

	cutoff float64
	reverb bool
	hooked bool
}

// NewTracker returns a tracker whose default environment is the first of
// Environments. cutoff and reverb are the underwater low-pass cutoff and
// whether the water reverb is wanted.
func NewTracker(sys System, water Water, cutoff float64, reverb bool, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	def := Environments()[0]
	return &Tracker{
		sys:    sys,
		water:  water,
		logger: logger,
		def:    def,
		prev:   def,
		cutoff: cutoff,
		reverb: reverb,
	}
}

// SetWater changes the underwater settings used from the next Update.
func (t *Tracker) SetWater(cutoff float64, reverb bool) {
	t.cutoff, t.reverb = cutoff, reverb
}

// SetForcedEnvironment overrides every listener environment until it is
// called with nil.
func (t *Tracker) SetForcedEnvironment(env *Environment) {
	t.forced = env
}

// Environment returns the environment last pushed to the engine.
func (t *Tracker) Environment() *Environment { return t.prev }

// Default returns the environment used when the listener has none.
func (t *Tracker) Default() *Environment { return t.def }

// Update pushes s to the engine. An invalid listener is ignored.
func (t *Tracker) Update(s State) error {
	if !s.Valid {
		return nil
	}

	var errs []error

	forward := engine.Vec3{X: math.Cos(s.Angle), Z: math.Sin(s.Angle)}
	up := engine.Vec3{Y: 1}
	if err := t.sys.SetListener(s.Position, s.Velocity, forward, up); err != nil {
		errs = append(errs, err)
	}

	env := t.forced
	if env == nil {
		env = s.Environment
	}
	if env == nil {
		env = t.def
	}

	if env != t.prev || env.Modified {
		t.logger.Printf("reverb environment %s", env.Name)
		env.Modified = false
		if err := t.sys.SetReverb(Convert(env.Properties)); err != nil {
			errs = append(errs, err)
		}
		t.prev = env

		if !t.hooked {
			t.hooked = t.water.HookReverb()
		}
	}

	on := (s.Underwater && t.cutoff != 0) || env.SoftwareWater
	if err := t.water.SetUnderwater(on, t.cutoff, t.reverb); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
