// SPDX-License-Identifier: EPL-2.0

// Package clock keeps the virtual time base shared by every channel session.
//
// Virtual time is a monotonically increasing count of output samples. It is
// advanced once per game tick to one tick past the engine's own mixer clock,
// so any sound started before the next tick is stamped as starting exactly
// one tick from now. Resume offsets for evicted channels are computed as the
// difference between the current virtual time and a session's recorded start.
//
// Sync freezes the virtual clock and locks the engine's mixing side while a
// saved game is restored. Entering Sync twice is a programming error and
// panics.
package clock
