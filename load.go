// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"fmt"

	"github.com/ik5/sndrender/asset"
	"github.com/ik5/sndrender/engine"
)

// LoadSound decodes a compressed sound and creates it in the engine. format
// is a registry key; "" detects it from the data. Loop tags embedded in the
// data are applied afterwards and never fail the load.
func (r *Renderer) LoadSound(data []byte, format string) (engine.Sound, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if format == "" {
		format = Sniff(data)
	}

	dec, err := asset.Decode(r.reg, format, data)
	if err != nil {
		return 0, err
	}

	snd, err := r.eng.CreateSound(dec.Desc)
	if err != nil {
		r.logger.Printf("failed to allocate sample: %v", err)
		return 0, fmt.Errorf("creating %s sound: %w", format, err)
	}

	asset.ApplyLoop(r.eng, snd, dec.Tags, r.logger)
	return snd, nil
}

// LoadSoundRaw creates a sound from headerless PCM. Signed 8-bit data is
// converted without touching raw.Data.
func (r *Renderer) LoadSoundRaw(raw asset.Raw) (engine.Sound, error) {
	if r.closed {
		return 0, ErrClosed
	}

	desc, err := raw.Desc()
	if err != nil {
		return 0, err
	}

	snd, err := r.eng.CreateSound(desc)
	if err != nil {
		r.logger.Printf("failed to allocate sample: %v", err)
		return 0, fmt.Errorf("creating raw sound: %w", err)
	}

	if start, end, ok := raw.Loop(); ok {
		if err := r.eng.SetLoopPoints(snd, start, end); err != nil {
			r.logger.Printf("setting loop points %d-%d failed: %v", start, end, err)
		}
	}
	return snd, nil
}

// UnloadSound releases snd. The zero sound is ignored.
func (r *Renderer) UnloadSound(snd engine.Sound) error {
	if snd == 0 {
		return nil
	}
	return r.eng.ReleaseSound(snd)
}

// MSLength returns the length of snd in milliseconds, or 0 when unknown.
func (r *Renderer) MSLength(snd engine.Sound) uint64 {
	if snd == 0 {
		return 0
	}
	info, err := r.eng.SoundInfo(snd)
	if err != nil {
		return 0
	}
	return info.LengthMS
}

// SampleLength returns the length of snd in sample frames, or 0 when
// unknown.
func (r *Renderer) SampleLength(snd engine.Sound) uint64 {
	if snd == 0 {
		return 0
	}
	info, err := r.eng.SoundInfo(snd)
	if err != nil {
		return 0
	}
	return info.Length
}
