// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ik5/sndrender/engine"
)

// Tag names read from sound metadata.
const (
	TagLoopStart = "LOOP_START"
	TagLoopEnd   = "LOOP_END"
	TagLoopBidi  = "LOOP_BIDI"
)

// Loop is a custom loop range in sample frames. End is exclusive.
type Loop struct {
	Start, End uint64
	Set        bool
	Bidi       bool
}

// LoopPoints reads the loop tags. length is the sound length in frames and
// frequency converts millisecond tags to frames. Invalid tags are reported
// in the returned error but do not prevent the valid ones from applying.
func LoopPoints(tags map[string]string, length uint64, frequency float64) (Loop, error) {
	var (
		loop    Loop
		pts     [2]uint64
		have    [2]bool
		errs    []error
		tagKeys = [2]string{TagLoopStart, TagLoopEnd}
	)

	for i, key := range tagKeys {
		raw, ok := tags[key]
		if !ok {
			continue
		}
		v, samples, ok := ParseTimeTag(raw)
		if !ok {
			errs = append(errs, fmt.Errorf("%s %q: %w", key, raw, ErrBadTimeTag))
			continue
		}
		if !samples {
			v = uint64(float64(v) * frequency / 1000)
		}
		pts[i], have[i] = v, true
	}

	switch {
	case have[0] && !have[1]:
		pts[1], have[1] = length, true
	case !have[0] && have[1]:
		pts[0], have[0] = 0, true
	}

	if have[0] && have[1] {
		loop.Start, loop.End = pts[0], pts[1]
		loop.Set = true
	}

	switch strings.ToLower(strings.TrimSpace(tags[TagLoopBidi])) {
	case "on", "true", "yes", "1":
		loop.Bidi = true
	}

	return loop, errors.Join(errs...)
}

// ApplyLoop reads the loop tags and applies them to s. Problems are logged
// and never fail the load.
func ApplyLoop(eng engine.Sounds, s engine.Sound, tags map[string]string, logger *log.Logger) {
	if len(tags) == 0 {
		return
	}

	info, err := eng.SoundInfo(s)
	if err != nil {
		logger.Printf("reading sound info for loop tags: %v", err)
		return
	}

	loop, err := LoopPoints(tags, info.Length, info.Frequency)
	if err != nil {
		logger.Printf("invalid loop tag: %v", err)
	}

	if loop.Set {
		if loop.End <= loop.Start {
			logger.Printf("setting custom loop points failed: empty range %d-%d", loop.Start, loop.End)
		} else if err := eng.SetLoopPoints(s, loop.Start, loop.End-1); err != nil {
			logger.Printf("setting custom loop points failed: %v", err)
		}
	}

	if loop.Bidi {
		mode := info.Mode&^(engine.ModeLoopOff|engine.ModeLoopNormal) | engine.ModeLoopBidi
		if err := eng.SetSoundMode(s, mode); err != nil {
			logger.Printf("setting bidirectional loop failed: %v", err)
		}
	}
}
