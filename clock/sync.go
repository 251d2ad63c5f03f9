// SPDX-License-Identifier: EPL-2.0

package clock

import "fmt"

// Mixer is the part of the engine Sync needs.
type Mixer interface {
	Clock() (uint64, error)
	Lock() error
	Unlock() error
}

// Sync is the coarse save/load lock.
type Sync struct {
	mixer    Mixer
	clock    *Virtual
	entered  bool
	snapshot uint64
}

// NewSync returns a Sync guarding clk and mixer.
func NewSync(mixer Mixer, clk *Virtual) *Sync {
	return &Sync{mixer: mixer, clock: clk}
}

// Entered reports whether the lock is held.
func (s *Sync) Entered() bool { return s.entered }

// Snapshot returns the engine clock captured by the last Enter.
func (s *Sync) Snapshot() uint64 { return s.snapshot }

// Enter locks the mixer, captures its clock and freezes virtual time.
// Calling Enter while already entered panics.
func (s *Sync) Enter() error {
	if s.entered {
		panic("clock: Sync entered while already entered")
	}

	if err := s.mixer.Lock(); err != nil {
		return fmt.Errorf("locking mixer: %w", err)
	}

	now, err := s.mixer.Clock()
	if err != nil {
		_ = s.mixer.Unlock()
		return fmt.Errorf("reading mixer clock: %w", err)
	}

	s.clock.Set(now)
	s.snapshot = now
	s.clock.frozen = true
	s.entered = true
	return nil
}

// Leave unlocks the mixer and lets virtual time advance again. Calling Leave
// without a matching Enter panics.
func (s *Sync) Leave() error {
	if !s.entered {
		panic("clock: Sync left without being entered")
	}

	s.entered = false
	s.clock.frozen = false

	if err := s.mixer.Unlock(); err != nil {
		return fmt.Errorf("unlocking mixer: %w", err)
	}
	return nil
}
