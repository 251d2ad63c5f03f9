// SPDX-License-Identifier: EPL-2.0

package engine

import "github.com/ik5/sndrender/audio"

// Handles are opaque to callers. The zero value never names a live object.
type (
	Sound      uint32
	Channel    uint32
	Node       uint32
	Connection uint32
)

// Tag is the per-channel user value delivered back through Callbacks.
type Tag uint64

// Group selects the channel group a channel plays through.
type Group int

const (
	GroupSFX Group = iota
	GroupPausableSFX
	GroupMusic
)

func (g Group) String() string {
	switch g {
	case GroupSFX:
		return "SFX"
	case GroupPausableSFX:
		return "Pausable SFX"
	case GroupMusic:
		return "Music"
	}
	return "Unknown"
}

// Param names a channel or group attribute.
type Param int

const (
	ParamVolume Param = iota
	ParamFrequency
	ParamPaused
	// ParamPosition is measured in PCM sample frames of the sound.
	ParamPosition
	ParamPositionMS
	// ParamOrder is the format-native order number (tracker modules).
	ParamOrder
	Param3DLevel
	ParamPriority
	ParamAudibility
	ParamReverbWet
	// ParamPitch applies to groups only.
	ParamPitch
)

// Mode is a set of playback mode flags.
type Mode uint32

const (
	Mode2D Mode = 1 << iota
	Mode3D
	ModeLoopOff
	ModeLoopNormal
	ModeLoopBidi
)

// Has reports whether all bits of f are set.
func (m Mode) Has(f Mode) bool { return m&f == f }

// Is2D reports the effective panning mode; 3D wins only when 2D is clear.
func (m Mode) Is2D() bool { return m&Mode2D != 0 || m&Mode3D == 0 }

// NodeType identifies a DSP unit type.
type NodeType int

const (
	NodeHead NodeType = iota
	NodeTarget
	NodeMixer
	NodeLowPass
	NodeSFXReverb
)

func (t NodeType) String() string {
	switch t {
	case NodeHead:
		return "head"
	case NodeTarget:
		return "target"
	case NodeMixer:
		return "mixer"
	case NodeLowPass:
		return "lowpass"
	case NodeSFXReverb:
		return "sfxreverb"
	}
	return "unknown"
}

// NodeParam names a DSP unit parameter.
type NodeParam int

const (
	LowPassCutoff NodeParam = iota
	LowPassResonance
	ReverbLowShelfFrequency
	ReverbHFReference
	ReverbDryLevel
	ReverbHFDecayRatio
	ReverbDecayTime
	ReverbDensity
	ReverbDiffusion
	// NodeGain is the output level of any unit.
	NodeGain
)

// SampleFormat describes raw PCM data handed to the engine.
type SampleFormat int

const (
	FormatPCM8 SampleFormat = iota
	FormatPCM16
	FormatPCM32
	FormatFloat
)

// BytesPerSample returns the size of one sample of f in bytes.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatPCM8:
		return 1
	case FormatPCM16:
		return 2
	}
	return 4
}

// SoundDesc describes a fully loaded sample. Data holds little-endian PCM for
// the integer formats; Samples holds interleaved floats for FormatFloat.
type SoundDesc struct {
	Data      []byte
	Samples   []float32
	Format    SampleFormat
	Channels  int
	Frequency int
	Mode      Mode
}

// SoundInfo describes an engine-resident sound.
type SoundInfo struct {
	Frequency float64
	Priority  int
	Channels  int
	// Length is measured in PCM sample frames.
	Length   uint64
	LengthMS uint64
	Mode     Mode
}

// StreamKind selects where streamed data comes from.
type StreamKind int

const (
	StreamCallback StreamKind = iota
	StreamSource
	StreamURL
)

// StreamDesc describes a streaming sound.
type StreamDesc struct {
	Kind StreamKind

	// StreamCallback: Read fills buf with PCM and returns false when the
	// stream has no more data.
	Read        func(buf []byte) bool
	BufferBytes int
	Format      SampleFormat
	Channels    int
	Frequency   int

	// StreamSource: decoded data pulled from a Source.
	Source audio.Source

	// StreamURL: network location.
	URL string

	Loop        bool
	NonBlocking bool
}

// OpenState is the open state of a stream.
type OpenState int

const (
	OpenReady OpenState = iota
	OpenLoading
	OpenError
	OpenConnecting
	OpenBuffering
	OpenSeeking
	OpenPlaying
)

var openStateNames = [...]string{"Ready", "Loading", "Error", "Connecting", "Buffering", "Seeking", "Streaming"}

func (s OpenState) String() string {
	if s < 0 || int(s) >= len(openStateNames) {
		return "Unknown state"
	}
	return openStateNames[s]
}

// StreamStatus is a stream's open state and buffer health.
type StreamStatus struct {
	State           OpenState
	PercentBuffered int
	Starving        bool
}

// ReverbParams is the engine-native reverb parameter set.
type ReverbParams struct {
	DecayTime         float64 // ms
	EarlyDelay        float64 // ms
	LateDelay         float64 // ms
	HFReference       float64 // Hz
	HFDecayRatio      float64 // percent
	Diffusion         float64
	Density           float64
	LowShelfFrequency float64
	LowShelfGain      float64 // dB
	HighCut           float64 // Hz
	EarlyLateMix      float64 // percent
	WetLevel          float64 // dB
}

// Callbacks are invoked by the engine. OnEnd and OnVirtual only fire from
// inside Update.
type Callbacks struct {
	OnEnd     func(tag Tag)
	OnVirtual func(tag Tag, virtual bool)
	// Rolloff returns the attenuation for a channel at distance.
	Rolloff func(tag Tag, distance float64) float64
}
