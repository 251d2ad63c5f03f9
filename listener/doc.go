// SPDX-License-Identifier: EPL-2.0

// Package listener pushes the player's ears to the engine once per tick.
//
// Tracker.Update sends the listener pose, switches the global reverb when
// the acoustic environment changes and keeps the underwater effect in step
// with the listener. Environments use the classic room property set; Convert
// maps it onto the engine's reverb parameters.
package listener
