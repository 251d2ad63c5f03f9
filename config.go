// SPDX-License-Identifier: EPL-2.0

package sndrender

import (
	"log"
	"os"
	"strconv"

	"github.com/ik5/sndrender/audio"
	"github.com/ik5/sndrender/channel"
	"github.com/ik5/sndrender/dsp"
)

// Environment variables read by LoadConfig.
const (
	EnvWaterCutoff  = "SNDRENDER_WATER_LP"
	EnvWaterReverb  = "SNDRENDER_WATER_REVERB"
	EnvTicRate      = "SNDRENDER_TIC_RATE"
	EnvPitched      = "SNDRENDER_PITCHED"
	EnvSFXVolume    = "SNDRENDER_SFX_VOLUME"
	EnvMusicVolume  = "SNDRENDER_MUSIC_VOLUME"
	EnvStreamBuffer = "SNDRENDER_STREAM_BUFFER"
)

// Config holds the renderer settings.
type Config struct {
	// WaterCutoff is the underwater low-pass cutoff in Hz. 0 disables the
	// filter and the underwater effect of non-water environments.
	WaterCutoff float64
	// WaterReverb selects the water reverb over the 10% dry mix.
	WaterReverb bool
	// TicRate is the number of game ticks per second.
	TicRate int
	// Pitched enables pitch arguments of StartSound and StartSound3D.
	Pitched bool

	SFXVolume   float64
	MusicVolume float64

	// StreamBuffer is the decode buffer of file and network streams in bytes.
	StreamBuffer int

	// Logger receives initialization and load problems. nil discards them.
	Logger *log.Logger
	// Notifier receives channel end and virtual notifications.
	Notifier channel.Notifier
	// Registry decodes compressed sounds. nil uses DefaultRegistry.
	Registry *audio.Registry
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		WaterCutoff:  250,
		WaterReverb:  true,
		TicRate:      35,
		SFXVolume:    1,
		MusicVolume:  1,
		StreamBuffer: 512 * 1024,
	}
}

// LoadConfig returns DefaultConfig overlaid with the environment. Malformed
// values are ignored.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvWaterCutoff); v != "" {
		if hz, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.WaterCutoff = dsp.ClampCutoff(hz)
		}
	}

	if v := os.Getenv(EnvWaterReverb); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.WaterReverb = on
		}
	}

	if v := os.Getenv(EnvTicRate); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			cfg.TicRate = rate
		}
	}

	if v := os.Getenv(EnvPitched); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Pitched = on
		}
	}

	// Volumes are 0-100.
	if v := os.Getenv(EnvSFXVolume); v != "" {
		if vol, err := strconv.Atoi(v); err == nil {
			cfg.SFXVolume = percent(vol)
		}
	}
	if v := os.Getenv(EnvMusicVolume); v != "" {
		if vol, err := strconv.Atoi(v); err == nil {
			cfg.MusicVolume = percent(vol)
		}
	}

	// KiB
	if v := os.Getenv(EnvStreamBuffer); v != "" {
		if kib, err := strconv.Atoi(v); err == nil && kib > 0 {
			cfg.StreamBuffer = kib * 1024
		}
	}

	return cfg
}

func percent(v int) float64 {
	return float64(min(max(v, 0), 100)) / 100
}
