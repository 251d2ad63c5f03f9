// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/ik5/sndrender/engine"
)

// resampleQuality is the beep resampler quality used for voices and the
// pitch stage.
const resampleQuality = 4

// Engine is a beep-backed engine.Engine.
type Engine struct {
	mu sync.Mutex

	rate  int
	clock uint64
	next  uint32

	// suspended is set between Lock and Unlock.
	suspended bool

	sounds   map[engine.Sound]*sound
	channels map[engine.Channel]*voice
	nodes    map[engine.Node]*node
	conns    map[engine.Connection]*conn

	groups map[engine.Group]*group
	target engine.Node
	out    *effects.Volume
	active bool

	cb       engine.Callbacks
	listener listenerPose
	reverb   engine.ReverbParams

	ended []engine.Tag
}

type listenerPose struct {
	pos, vel, forward, up engine.Vec3
}

// group is a channel group's mixer and level stage.
type group struct {
	head   engine.Node
	mixer  *beep.Mixer
	vol    *effects.Volume
	volume float64

	// Pausable group only.
	pitch *beep.Resampler
	ctrl  *beep.Ctrl
	// route is the level of the pausable group's path into SFX.
	route float64
}

// New returns an engine mixing at rate Hz with the standard group layout.
func New(rate int) *Engine {
	e := &Engine{
		rate:     rate,
		sounds:   make(map[engine.Sound]*sound),
		channels: make(map[engine.Channel]*voice),
		nodes:    make(map[engine.Node]*node),
		conns:    make(map[engine.Connection]*conn),
		groups:   make(map[engine.Group]*group),
		active:   true,
		listener: listenerPose{forward: engine.Vec3{Z: 1}, up: engine.Vec3{Y: 1}},
	}

	e.target = e.newNode(engine.NodeTarget)
	for _, g := range []engine.Group{engine.GroupSFX, engine.GroupPausableSFX, engine.GroupMusic} {
		mixer := &beep.Mixer{}
		e.groups[g] = &group{
			head:   e.newNode(engine.NodeHead),
			mixer:  mixer,
			vol:    newVolume(mixer, 1),
			volume: 1,
			route:  1,
		}
	}

	pausable := e.groups[engine.GroupPausableSFX]
	pausable.pitch = beep.ResampleRatio(resampleQuality, 1, pausable.vol)
	pausable.ctrl = &beep.Ctrl{Streamer: pausable.pitch}

	sfx := e.groups[engine.GroupSFX]
	sfx.mixer.Add(pausable.ctrl)

	root := &beep.Mixer{}
	root.Add(sfx.vol, e.groups[engine.GroupMusic].vol)
	e.out = newVolume(root, 1)

	e.link(sfx.head, pausable.head)
	e.link(e.target, sfx.head)
	e.link(e.target, e.groups[engine.GroupMusic].head)

	return e
}

// newVolume wraps s in a linear gain stage.
func newVolume(s beep.Streamer, gain float64) *effects.Volume {
	v := &effects.Volume{Streamer: s, Base: 2}
	setGain(v, gain)
	return v
}

func setGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Volume, v.Silent = 0, true
		return
	}
	v.Volume, v.Silent = math.Log2(gain), false
}

func (e *Engine) id() uint32 {
	e.next++
	return e.next
}

func invalid(op string) error {
	return engine.Fail(op, engine.CodeInvalidHandle, engine.ErrInvalidHandle)
}

// Stream mixes the next len(samples) output frames. It always fills
// samples; while the engine is locked the output is silent and the clock
// stands still.
func (e *Engine) Stream(samples [][2]float64) (n int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspended || !e.active {
		clear(samples)
		if !e.suspended {
			e.clock += uint64(len(samples))
		}
		return len(samples), true
	}

	n, _ = e.out.Stream(samples)
	clear(samples[n:])
	e.clock += uint64(len(samples))
	return len(samples), true
}

// Err always returns nil.
func (e *Engine) Err() error { return nil }

// Clock returns the number of frames mixed so far.
func (e *Engine) Clock() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock, nil
}

// OutputRate returns the mixing rate in Hz.
func (e *Engine) OutputRate() int { return e.rate }

// SampleRate returns the mixing rate for beep consumers.
func (e *Engine) SampleRate() beep.SampleRate { return beep.SampleRate(e.rate) }

// SetReverb stores the global reverb parameters. There is no reverb unit to
// apply them to.
func (e *Engine) SetReverb(p engine.ReverbParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reverb = p
	return nil
}

// Reverb returns the parameters last passed to SetReverb.
func (e *Engine) Reverb() engine.ReverbParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reverb
}

func (e *Engine) SetListener(pos, vel, forward, up engine.Vec3) error {
	e.mu.Lock()
	e.listener = listenerPose{pos: pos, vel: vel, forward: forward, up: up}
	e.mu.Unlock()

	e.respatialize()
	return nil
}

func (e *Engine) SetCallbacks(cb engine.Callbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

// Lock silences the mix and stops the clock until Unlock.
func (e *Engine) Lock() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suspended = true
	return nil
}

func (e *Engine) Unlock() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suspended = false
	return nil
}

// Update delivers end notifications for channels that finished or were
// stopped since the last call, then forgets those channels.
func (e *Engine) Update() error {
	e.mu.Lock()
	ended := e.ended
	e.ended = nil
	for id, v := range e.channels {
		if v.done {
			delete(e.channels, id)
			if v.snd.feed != nil && v.snd.feed.voice == v {
				v.snd.feed.voice = nil
			}
		}
	}
	onEnd := e.cb.OnEnd
	e.mu.Unlock()

	if onEnd != nil {
		for _, tag := range ended {
			onEnd(tag)
		}
	}
	return nil
}

var (
	_ engine.Engine = (*Engine)(nil)
	_ beep.Streamer = (*Engine)(nil)
)
