// SPDX-License-Identifier: EPL-2.0

// Package enginetest provides a deterministic in-memory engine for tests.
//
// Fake records every mutating call, lets tests script failures per
// operation, and only delivers end and virtual-voice notifications from
// Update, matching real backends.
package enginetest

import (
	"fmt"
	"math"
	"slices"

	"github.com/ik5/sndrender/engine"
)

// Call is one recorded engine call.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Op, c.Args) }

// Sound is the fake's view of a created sound.
type Sound struct {
	Desc      engine.SoundDesc
	Info      engine.SoundInfo
	LoopStart uint64
	LoopEnd   uint64
	Stream    bool
	// StreamDesc is what CreateStream was given.
	StreamDesc engine.StreamDesc
	Status     engine.StreamStatus
	Released   bool
}

// Channel is the fake's view of a playing channel.
type Channel struct {
	Sound       engine.Sound
	Group       engine.Group
	Params      map[engine.Param]float64
	Mode        engine.Mode
	Pos, Vel    engine.Vec3
	MixLevels   []float64
	Tag         engine.Tag
	Attenuation float64
	Stopped     bool
}

// Node is the fake's view of a DSP unit.
type Node struct {
	Type     engine.NodeType
	Active   bool
	Bypass   bool
	Params   map[engine.NodeParam]float64
	Inputs   []engine.Node
	Released bool
}

// Conn is a connection between two nodes.
type Conn struct {
	Dst, Src engine.Node
	Mix      float64
}

// Listener is the last pose pushed with SetListener.
type Listener struct {
	Pos, Vel, Forward, Up engine.Vec3
}

// Fake implements engine.Engine.
type Fake struct {
	Now  uint64
	Rate int

	Calls    []Call
	Sounds   map[engine.Sound]*Sound
	Channels map[engine.Channel]*Channel
	Nodes    map[engine.Node]*Node
	Conns    map[engine.Connection]*Conn

	Groups      map[engine.Group]engine.Node
	GroupParams map[engine.Group]map[engine.Param]float64
	Target      engine.Node

	Reverb   engine.ReverbParams
	Listener Listener
	Locked   int
	Updates  int

	// DefaultLength is used for sounds created without data, such as streams.
	DefaultLength uint64

	cb       engine.Callbacks
	fail     map[string]error
	next     uint32
	ended    []engine.Tag
	virtuals []virtualEvent
}

type virtualEvent struct {
	tag     engine.Tag
	virtual bool
}

// New returns a fake running at rate with the standard groups: the pausable
// SFX head feeds the SFX head, and the SFX and music heads feed the output
// target.
func New(rate int) *Fake {
	f := &Fake{
		Rate:        rate,
		Sounds:      make(map[engine.Sound]*Sound),
		Channels:    make(map[engine.Channel]*Channel),
		Nodes:       make(map[engine.Node]*Node),
		Conns:       make(map[engine.Connection]*Conn),
		Groups:      make(map[engine.Group]engine.Node),
		GroupParams: make(map[engine.Group]map[engine.Param]float64),
		fail:        make(map[string]error),
	}

	f.Target = f.newNode(engine.NodeTarget)
	for _, g := range []engine.Group{engine.GroupSFX, engine.GroupPausableSFX, engine.GroupMusic} {
		f.Groups[g] = f.newNode(engine.NodeHead)
		f.GroupParams[g] = map[engine.Param]float64{engine.ParamPitch: 1, engine.ParamVolume: 1}
	}
	f.link(f.Groups[engine.GroupSFX], f.Groups[engine.GroupPausableSFX])
	f.link(f.Target, f.Groups[engine.GroupSFX])
	f.link(f.Target, f.Groups[engine.GroupMusic])

	return f
}

// FailOn makes every later call to op fail with a BackendError wrapping err.
func (f *Fake) FailOn(op string, err error) {
	f.fail[op] = err
}

// Heal removes a scripted failure.
func (f *Fake) Heal(op string) {
	delete(f.fail, op)
}

// ResetCalls clears the call log.
func (f *Fake) ResetCalls() {
	f.Calls = nil
}

// Count returns how many times op was called since the last ResetCalls.
func (f *Fake) Count(op string) int {
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Last returns the most recent call to op.
func (f *Fake) Last(op string) (Call, bool) {
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Op == op {
			return f.Calls[i], true
		}
	}
	return Call{}, false
}

// End stops c as if it played to the end; OnEnd fires on the next Update.
func (f *Fake) End(c engine.Channel) {
	ch, ok := f.Channels[c]
	if !ok || ch.Stopped {
		return
	}
	ch.Stopped = true
	f.ended = append(f.ended, ch.Tag)
}

// Virtualize queues a virtual-voice change for c.
func (f *Fake) Virtualize(c engine.Channel, virtual bool) {
	if ch, ok := f.Channels[c]; ok {
		f.virtuals = append(f.virtuals, virtualEvent{tag: ch.Tag, virtual: virtual})
	}
}

// Steal invalidates c without any notification, as when a backend reuses
// the voice for another sound.
func (f *Fake) Steal(c engine.Channel) {
	delete(f.Channels, c)
}

// SetStreamStatus sets what StreamStatus reports for s.
func (f *Fake) SetStreamStatus(s engine.Sound, st engine.StreamStatus) {
	if snd, ok := f.Sounds[s]; ok {
		snd.Status = st
	}
}

// ConnectionMix returns the mix level of the connection src → dst.
func (f *Fake) ConnectionMix(dst, src engine.Node) (float64, bool) {
	for _, c := range f.Conns {
		if c.Dst == dst && c.Src == src {
			return c.Mix, true
		}
	}
	return 0, false
}

// NodesOfType returns live nodes of type t in creation order.
func (f *Fake) NodesOfType(t engine.NodeType) []engine.Node {
	var out []engine.Node
	for id, n := range f.Nodes {
		if n.Type == t && !n.Released {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// AddNode creates a node outside of CreateNode, the way a backend creates
// units lazily, and connects it into dst.
func (f *Fake) AddNode(t engine.NodeType, dst engine.Node) engine.Node {
	n := f.newNode(t)
	f.link(dst, n)
	return n
}

func (f *Fake) record(op string, args ...any) error {
	f.Calls = append(f.Calls, Call{Op: op, Args: args})
	if err, ok := f.fail[op]; ok {
		return engine.Fail(op, engine.CodeInternal, err)
	}
	return nil
}

func (f *Fake) id() uint32 {
	f.next++
	return f.next
}

func (f *Fake) newNode(t engine.NodeType) engine.Node {
	n := engine.Node(f.id())
	f.Nodes[n] = &Node{Type: t, Active: true, Params: make(map[engine.NodeParam]float64)}
	return n
}

func (f *Fake) link(dst, src engine.Node) engine.Connection {
	f.Nodes[dst].Inputs = append(f.Nodes[dst].Inputs, src)
	c := engine.Connection(f.id())
	f.Conns[c] = &Conn{Dst: dst, Src: src, Mix: 1}
	return c
}

func invalid(op string) error {
	return engine.Fail(op, engine.CodeInvalidHandle, engine.ErrInvalidHandle)
}

func (f *Fake) sound(op string, s engine.Sound) (*Sound, error) {
	snd, ok := f.Sounds[s]
	if !ok || snd.Released {
		return nil, invalid(op)
	}
	return snd, nil
}

func (f *Fake) channel(op string, c engine.Channel) (*Channel, error) {
	ch, ok := f.Channels[c]
	if !ok {
		return nil, invalid(op)
	}
	if ch.Stopped {
		return nil, engine.Fail(op, engine.CodeNotPlaying, engine.ErrNotPlaying)
	}
	return ch, nil
}

func (f *Fake) node(op string, n engine.Node) (*Node, error) {
	nd, ok := f.Nodes[n]
	if !ok || nd.Released {
		return nil, invalid(op)
	}
	return nd, nil
}

// Sounds

func (f *Fake) CreateSound(desc engine.SoundDesc) (engine.Sound, error) {
	if err := f.record("CreateSound", desc.Format, desc.Channels, desc.Frequency); err != nil {
		return 0, err
	}

	chans := max(desc.Channels, 1)
	var length uint64
	if desc.Format == engine.FormatFloat {
		length = uint64(len(desc.Samples) / chans)
	} else {
		length = uint64(len(desc.Data) / (desc.Format.BytesPerSample() * chans))
	}

	s := engine.Sound(f.id())
	f.Sounds[s] = &Sound{
		Desc: desc,
		Info: engine.SoundInfo{
			Frequency: float64(desc.Frequency),
			Priority:  128,
			Channels:  chans,
			Length:    length,
			LengthMS:  msLength(length, desc.Frequency),
			Mode:      desc.Mode,
		},
		LoopEnd: max(length, 1) - 1,
	}
	return s, nil
}

func msLength(frames uint64, freq int) uint64 {
	if freq <= 0 {
		return 0
	}
	return frames * 1000 / uint64(freq)
}

func (f *Fake) ReleaseSound(s engine.Sound) error {
	if err := f.record("ReleaseSound", s); err != nil {
		return err
	}
	snd, err := f.sound("ReleaseSound", s)
	if err != nil {
		return err
	}
	snd.Released = true
	return nil
}

func (f *Fake) SoundInfo(s engine.Sound) (engine.SoundInfo, error) {
	if err := f.record("SoundInfo", s); err != nil {
		return engine.SoundInfo{}, err
	}
	snd, err := f.sound("SoundInfo", s)
	if err != nil {
		return engine.SoundInfo{}, err
	}
	return snd.Info, nil
}

func (f *Fake) SetSoundDefaults(s engine.Sound, frequency float64, priority int) error {
	if err := f.record("SetSoundDefaults", s, frequency, priority); err != nil {
		return err
	}
	snd, err := f.sound("SetSoundDefaults", s)
	if err != nil {
		return err
	}
	snd.Info.Frequency = frequency
	snd.Info.Priority = priority
	return nil
}

func (f *Fake) SetLoopPoints(s engine.Sound, start, end uint64) error {
	if err := f.record("SetLoopPoints", s, start, end); err != nil {
		return err
	}
	snd, err := f.sound("SetLoopPoints", s)
	if err != nil {
		return err
	}
	if start > end || end >= max(snd.Info.Length, 1) {
		return engine.Fail("SetLoopPoints", engine.CodeInvalidParam, nil)
	}
	snd.LoopStart, snd.LoopEnd = start, end
	return nil
}

func (f *Fake) SetSoundMode(s engine.Sound, m engine.Mode) error {
	if err := f.record("SetSoundMode", s, m); err != nil {
		return err
	}
	snd, err := f.sound("SetSoundMode", s)
	if err != nil {
		return err
	}
	snd.Info.Mode = m
	return nil
}

// Channels

func (f *Fake) PlaySound(s engine.Sound, g engine.Group, paused bool) (engine.Channel, error) {
	if err := f.record("PlaySound", s, g, paused); err != nil {
		return 0, err
	}
	snd, err := f.sound("PlaySound", s)
	if err != nil {
		return 0, err
	}

	c := engine.Channel(f.id())
	f.Channels[c] = &Channel{
		Sound: s,
		Group: g,
		Params: map[engine.Param]float64{
			engine.ParamVolume:    1,
			engine.ParamFrequency: snd.Info.Frequency,
			engine.ParamPaused:    boolParam(paused),
			engine.Param3DLevel:   1,
			engine.ParamPriority:  float64(snd.Info.Priority),
		},
		Mode: snd.Info.Mode,
	}
	return c, nil
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (f *Fake) StopChannel(c engine.Channel) error {
	if err := f.record("StopChannel", c); err != nil {
		return err
	}
	ch, ok := f.Channels[c]
	if !ok || ch.Stopped {
		return invalid("StopChannel")
	}
	ch.Stopped = true
	f.ended = append(f.ended, ch.Tag)
	return nil
}

func (f *Fake) IsPlaying(c engine.Channel) (bool, error) {
	if err := f.record("IsPlaying", c); err != nil {
		return false, err
	}
	ch, ok := f.Channels[c]
	if !ok {
		return false, invalid("IsPlaying")
	}
	return !ch.Stopped, nil
}

func (f *Fake) SetChannelParam(c engine.Channel, p engine.Param, v float64) error {
	if err := f.record("SetChannelParam", c, p, v); err != nil {
		return err
	}
	ch, err := f.channel("SetChannelParam", c)
	if err != nil {
		return err
	}
	ch.Params[p] = v
	if p == engine.ParamPositionMS {
		if snd, ok := f.Sounds[ch.Sound]; ok {
			ch.Params[engine.ParamPosition] = math.Round(v * snd.Info.Frequency / 1000)
		}
	}
	return nil
}

func (f *Fake) ChannelParam(c engine.Channel, p engine.Param) (float64, error) {
	if err := f.record("ChannelParam", c, p); err != nil {
		return 0, err
	}
	ch, err := f.channel("ChannelParam", c)
	if err != nil {
		return 0, err
	}
	if p == engine.ParamAudibility {
		return ch.Params[engine.ParamVolume] * ch.attenuation(), nil
	}
	return ch.Params[p], nil
}

func (ch *Channel) attenuation() float64 {
	if ch.Mode.Is2D() {
		return 1
	}
	return ch.Attenuation
}

func (f *Fake) ChannelMode(c engine.Channel) (engine.Mode, error) {
	if err := f.record("ChannelMode", c); err != nil {
		return 0, err
	}
	ch, err := f.channel("ChannelMode", c)
	if err != nil {
		return 0, err
	}
	return ch.Mode, nil
}

func (f *Fake) SetChannelMode(c engine.Channel, m engine.Mode) error {
	if err := f.record("SetChannelMode", c, m); err != nil {
		return err
	}
	ch, err := f.channel("SetChannelMode", c)
	if err != nil {
		return err
	}
	ch.Mode = m
	return nil
}

func (f *Fake) Set3DAttributes(c engine.Channel, pos, vel engine.Vec3) error {
	if err := f.record("Set3DAttributes", c, pos, vel); err != nil {
		return err
	}
	ch, err := f.channel("Set3DAttributes", c)
	if err != nil {
		return err
	}
	ch.Pos, ch.Vel = pos, vel
	if f.cb.Rolloff != nil {
		ch.Attenuation = f.cb.Rolloff(ch.Tag, pos.Sub(f.Listener.Pos).Length())
	}
	return nil
}

func (f *Fake) SetMixLevels(c engine.Channel, levels []float64) error {
	if err := f.record("SetMixLevels", c, slices.Clone(levels)); err != nil {
		return err
	}
	ch, err := f.channel("SetMixLevels", c)
	if err != nil {
		return err
	}
	ch.MixLevels = slices.Clone(levels)
	return nil
}

func (f *Fake) SetChannelTag(c engine.Channel, t engine.Tag) error {
	if err := f.record("SetChannelTag", c, t); err != nil {
		return err
	}
	ch, err := f.channel("SetChannelTag", c)
	if err != nil {
		return err
	}
	ch.Tag = t
	return nil
}

// Graph

func (f *Fake) GroupHead(g engine.Group) (engine.Node, error) {
	if err := f.record("GroupHead", g); err != nil {
		return 0, err
	}
	n, ok := f.Groups[g]
	if !ok {
		return 0, invalid("GroupHead")
	}
	return n, nil
}

func (f *Fake) SetGroupParam(g engine.Group, p engine.Param, v float64) error {
	if err := f.record("SetGroupParam", g, p, v); err != nil {
		return err
	}
	params, ok := f.GroupParams[g]
	if !ok {
		return invalid("SetGroupParam")
	}
	params[p] = v
	return nil
}

func (f *Fake) OutputTarget() (engine.Node, error) {
	if err := f.record("OutputTarget"); err != nil {
		return 0, err
	}
	return f.Target, nil
}

func (f *Fake) CreateNode(t engine.NodeType) (engine.Node, error) {
	if err := f.record("CreateNode", t); err != nil {
		return 0, err
	}
	return f.newNode(t), nil
}

func (f *Fake) ReleaseNode(n engine.Node) error {
	if err := f.record("ReleaseNode", n); err != nil {
		return err
	}
	nd, err := f.node("ReleaseNode", n)
	if err != nil {
		return err
	}
	nd.Released = true
	for _, other := range f.Nodes {
		other.Inputs = slices.DeleteFunc(other.Inputs, func(in engine.Node) bool { return in == n })
	}
	for id, c := range f.Conns {
		if c.Dst == n || c.Src == n {
			delete(f.Conns, id)
		}
	}
	return nil
}

func (f *Fake) Connect(dst, src engine.Node) (engine.Connection, error) {
	if err := f.record("Connect", dst, src); err != nil {
		return 0, err
	}
	if _, err := f.node("Connect", dst); err != nil {
		return 0, err
	}
	if _, err := f.node("Connect", src); err != nil {
		return 0, err
	}
	return f.link(dst, src), nil
}

func (f *Fake) Disconnect(dst, src engine.Node) error {
	if err := f.record("Disconnect", dst, src); err != nil {
		return err
	}
	nd, err := f.node("Disconnect", dst)
	if err != nil {
		return err
	}
	i := slices.Index(nd.Inputs, src)
	if i < 0 {
		return invalid("Disconnect")
	}
	nd.Inputs = slices.Delete(nd.Inputs, i, i+1)
	for id, c := range f.Conns {
		if c.Dst == dst && c.Src == src {
			delete(f.Conns, id)
			break
		}
	}
	return nil
}

func (f *Fake) Inputs(n engine.Node) ([]engine.Node, error) {
	if err := f.record("Inputs", n); err != nil {
		return nil, err
	}
	nd, err := f.node("Inputs", n)
	if err != nil {
		return nil, err
	}
	return slices.Clone(nd.Inputs), nil
}

func (f *Fake) Connection(dst, src engine.Node) (engine.Connection, error) {
	if err := f.record("Connection", dst, src); err != nil {
		return 0, err
	}
	for id, c := range f.Conns {
		if c.Dst == dst && c.Src == src {
			return id, nil
		}
	}
	return 0, invalid("Connection")
}

func (f *Fake) NodeType(n engine.Node) (engine.NodeType, error) {
	if err := f.record("NodeType", n); err != nil {
		return 0, err
	}
	nd, err := f.node("NodeType", n)
	if err != nil {
		return 0, err
	}
	return nd.Type, nil
}

func (f *Fake) SetNodeActive(n engine.Node, active bool) error {
	if err := f.record("SetNodeActive", n, active); err != nil {
		return err
	}
	nd, err := f.node("SetNodeActive", n)
	if err != nil {
		return err
	}
	nd.Active = active
	return nil
}

func (f *Fake) SetNodeBypass(n engine.Node, bypass bool) error {
	if err := f.record("SetNodeBypass", n, bypass); err != nil {
		return err
	}
	nd, err := f.node("SetNodeBypass", n)
	if err != nil {
		return err
	}
	nd.Bypass = bypass
	return nil
}

func (f *Fake) SetNodeParam(n engine.Node, p engine.NodeParam, v float64) error {
	if err := f.record("SetNodeParam", n, p, v); err != nil {
		return err
	}
	nd, err := f.node("SetNodeParam", n)
	if err != nil {
		return err
	}
	nd.Params[p] = v
	return nil
}

func (f *Fake) SetConnectionMix(c engine.Connection, mix float64) error {
	if err := f.record("SetConnectionMix", c, mix); err != nil {
		return err
	}
	conn, ok := f.Conns[c]
	if !ok {
		return invalid("SetConnectionMix")
	}
	conn.Mix = mix
	return nil
}

// System

func (f *Fake) Clock() (uint64, error) {
	if err, ok := f.fail["Clock"]; ok {
		return 0, engine.Fail("Clock", engine.CodeInternal, err)
	}
	return f.Now, nil
}

func (f *Fake) OutputRate() int { return f.Rate }

func (f *Fake) SetReverb(p engine.ReverbParams) error {
	if err := f.record("SetReverb", p); err != nil {
		return err
	}
	f.Reverb = p
	return nil
}

func (f *Fake) SetListener(pos, vel, forward, up engine.Vec3) error {
	if err := f.record("SetListener", pos, vel, forward, up); err != nil {
		return err
	}
	f.Listener = Listener{Pos: pos, Vel: vel, Forward: forward, Up: up}
	return nil
}

func (f *Fake) SetCallbacks(cb engine.Callbacks) {
	f.cb = cb
}

func (f *Fake) Lock() error {
	if err := f.record("Lock"); err != nil {
		return err
	}
	f.Locked++
	return nil
}

func (f *Fake) Unlock() error {
	if err := f.record("Unlock"); err != nil {
		return err
	}
	f.Locked--
	return nil
}

// Update delivers queued notifications.
func (f *Fake) Update() error {
	if err := f.record("Update"); err != nil {
		return err
	}
	f.Updates++

	ended, virtuals := f.ended, f.virtuals
	f.ended, f.virtuals = nil, nil

	for _, v := range virtuals {
		if f.cb.OnVirtual != nil {
			f.cb.OnVirtual(v.tag, v.virtual)
		}
	}
	for _, tag := range ended {
		if f.cb.OnEnd != nil {
			f.cb.OnEnd(tag)
		}
	}
	return nil
}

// Streams

func (f *Fake) CreateStream(desc engine.StreamDesc) (engine.Sound, error) {
	if err := f.record("CreateStream", desc.Kind, desc.URL, desc.Loop); err != nil {
		return 0, err
	}

	freq := desc.Frequency
	chans := desc.Channels
	if desc.Kind == engine.StreamSource && desc.Source != nil {
		freq = desc.Source.SampleRate()
		chans = desc.Source.Channels()
	}

	state := engine.OpenReady
	if desc.NonBlocking {
		state = engine.OpenConnecting
	}

	s := engine.Sound(f.id())
	f.Sounds[s] = &Sound{
		Info: engine.SoundInfo{
			Frequency: float64(freq),
			Priority:  128,
			Channels:  max(chans, 1),
			Length:    f.DefaultLength,
			LengthMS:  msLength(f.DefaultLength, freq),
		},
		Stream:     true,
		StreamDesc: desc,
		Status:     engine.StreamStatus{State: state},
	}
	return s, nil
}

func (f *Fake) StreamStatus(s engine.Sound) (engine.StreamStatus, error) {
	if err := f.record("StreamStatus", s); err != nil {
		return engine.StreamStatus{}, err
	}
	snd, err := f.sound("StreamStatus", s)
	if err != nil {
		return engine.StreamStatus{}, err
	}
	return snd.Status, nil
}

var _ engine.Engine = (*Fake)(nil)
