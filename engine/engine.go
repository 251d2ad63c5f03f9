// SPDX-License-Identifier: EPL-2.0

package engine

// Sounds manages engine-resident samples.
type Sounds interface {
	CreateSound(desc SoundDesc) (Sound, error)
	ReleaseSound(s Sound) error
	SoundInfo(s Sound) (SoundInfo, error)
	SetSoundDefaults(s Sound, frequency float64, priority int) error
	// SetLoopPoints sets an inclusive loop range in PCM sample frames.
	SetLoopPoints(s Sound, start, end uint64) error
	SetSoundMode(s Sound, m Mode) error
}

// Channels manages playback instances.
type Channels interface {
	PlaySound(s Sound, g Group, paused bool) (Channel, error)
	StopChannel(c Channel) error
	IsPlaying(c Channel) (bool, error)
	SetChannelParam(c Channel, p Param, v float64) error
	ChannelParam(c Channel, p Param) (float64, error)
	ChannelMode(c Channel) (Mode, error)
	SetChannelMode(c Channel, m Mode) error
	Set3DAttributes(c Channel, pos, vel Vec3) error
	// SetMixLevels sets per-speaker output levels, front left first.
	SetMixLevels(c Channel, levels []float64) error
	SetChannelTag(c Channel, t Tag) error
}

// Graph exposes channel-group heads and DSP routing.
type Graph interface {
	GroupHead(g Group) (Node, error)
	SetGroupParam(g Group, p Param, v float64) error
	// OutputTarget is the final output stage every group mixes into.
	OutputTarget() (Node, error)
	CreateNode(t NodeType) (Node, error)
	ReleaseNode(n Node) error
	// Connect makes src an input of dst.
	Connect(dst, src Node) (Connection, error)
	Disconnect(dst, src Node) error
	// Inputs lists the nodes feeding n, in connection order.
	Inputs(n Node) ([]Node, error)
	// Connection returns the connection carrying src into dst.
	Connection(dst, src Node) (Connection, error)
	NodeType(n Node) (NodeType, error)
	SetNodeActive(n Node, active bool) error
	SetNodeBypass(n Node, bypass bool) error
	SetNodeParam(n Node, p NodeParam, v float64) error
	SetConnectionMix(c Connection, mix float64) error
}

// System covers engine-wide state and the periodic update.
type System interface {
	// Clock returns the engine's monotonic sample clock.
	Clock() (uint64, error)
	OutputRate() int
	SetReverb(p ReverbParams) error
	SetListener(pos, vel, forward, up Vec3) error
	SetCallbacks(cb Callbacks)
	// Lock suspends the mixing side until Unlock.
	Lock() error
	Unlock() error
	Update() error
}

// Streams opens streaming sounds.
type Streams interface {
	CreateStream(desc StreamDesc) (Sound, error)
	StreamStatus(s Sound) (StreamStatus, error)
}

// Engine is the complete capability surface.
type Engine interface {
	Sounds
	Channels
	Graph
	System
	Streams
}
