// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"math"
	"slices"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/ik5/sndrender/engine"
)

// source is the start of a voice chain.
type source interface {
	beep.Streamer
	position() uint64
	seek(frame uint64) error
}

type voice struct {
	e     *Engine
	snd   *sound
	group engine.Group
	tag   engine.Tag

	src  source
	res  *beep.Resampler
	vol  *effects.Volume
	pan  *effects.Pan
	ctrl *beep.Ctrl

	mode   engine.Mode
	params map[engine.Param]float64
	pos    engine.Vec3
	vel    engine.Vec3
	levels []float64
	// atten is the distance attenuation from the rolloff callback.
	atten float64

	done bool
}

// Stream is the end of the chain, added to the group mixer. It reports the
// voice finished once the chain runs dry. A short read counts as dry: the
// mixer drops streamers that fall behind.
func (v *voice) Stream(samples [][2]float64) (int, bool) {
	if v.done {
		return 0, false
	}
	n, ok := v.ctrl.Stream(samples)
	if !ok || n < len(samples) {
		v.e.finish(v)
		return n, ok && n > 0
	}
	return n, true
}

func (v *voice) Err() error { return nil }

func (v *voice) loops() bool { return looping(v.mode) }

// bufferSource plays a static sound, honouring its loop points.
type bufferSource struct {
	v  *voice
	ss beep.StreamSeeker
}

func (b *bufferSource) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		want := len(samples) - n
		if b.v.loops() {
			end := int(b.v.snd.loopEnd) + 1
			pos := b.ss.Position()
			if pos >= end {
				if err := b.ss.Seek(int(b.v.snd.loopStart)); err != nil {
					break
				}
				continue
			}
			want = min(want, end-pos)
		}

		sn, ok := b.ss.Stream(samples[n : n+want])
		n += sn
		if !ok || sn == 0 {
			break
		}
	}
	return n, n > 0
}

func (b *bufferSource) Err() error { return b.ss.Err() }

func (b *bufferSource) position() uint64 { return uint64(b.ss.Position()) }

func (b *bufferSource) seek(frame uint64) error {
	if frame > uint64(b.ss.Len()) {
		return engine.Fail("SetChannelParam", engine.CodeInvalidParam, nil)
	}
	return b.ss.Seek(int(frame))
}

func (e *Engine) PlaySound(s engine.Sound, g engine.Group, paused bool) (engine.Channel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snd, err := e.sound("PlaySound", s)
	if err != nil {
		return 0, err
	}
	grp, ok := e.groups[g]
	if !ok {
		return 0, invalid("PlaySound")
	}

	v := &voice{
		e:     e,
		snd:   snd,
		group: g,
		mode:  snd.info.Mode,
		atten: 1,
		params: map[engine.Param]float64{
			engine.ParamVolume:    1,
			engine.ParamFrequency: snd.info.Frequency,
			engine.ParamPriority:  float64(snd.info.Priority),
			engine.Param3DLevel:   1,
			engine.ParamReverbWet: 1,
		},
	}

	if snd.feed != nil {
		if old := snd.feed.voice; old != nil && !old.done {
			e.stop(old)
		}
		snd.feed.rewind()
		snd.feed.voice = v
		v.src = snd.feed
	} else {
		v.src = &bufferSource{v: v, ss: snd.buf.Streamer(0, snd.buf.Len())}
	}

	v.res = beep.ResampleRatio(resampleQuality, e.ratio(snd.info.Frequency), v.src)
	v.vol = newVolume(v.res, 1)
	v.pan = &effects.Pan{Streamer: v.vol}
	v.ctrl = &beep.Ctrl{Streamer: v.pan, Paused: paused}
	v.refresh()

	c := engine.Channel(e.id())
	e.channels[c] = v
	grp.mixer.Add(v)
	return c, nil
}

func (e *Engine) ratio(freq float64) float64 {
	return max(freq, 1) / float64(e.rate)
}

// finish marks v done and queues its end notification.
func (e *Engine) finish(v *voice) {
	if v.done {
		return
	}
	v.done = true
	e.ended = append(e.ended, v.tag)
}

func (e *Engine) stop(v *voice) {
	e.finish(v)
	v.ctrl.Streamer = nil
}

func (e *Engine) voice(op string, c engine.Channel) (*voice, error) {
	v, ok := e.channels[c]
	if !ok {
		return nil, invalid(op)
	}
	if v.done {
		return nil, engine.Fail(op, engine.CodeNotPlaying, engine.ErrNotPlaying)
	}
	return v, nil
}

func (e *Engine) StopChannel(c engine.Channel) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.channels[c]
	if !ok || v.done {
		return invalid("StopChannel")
	}
	e.stop(v)
	return nil
}

func (e *Engine) IsPlaying(c engine.Channel) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.channels[c]
	if !ok {
		return false, invalid("IsPlaying")
	}
	return !v.done, nil
}

func (e *Engine) SetChannelParam(c engine.Channel, p engine.Param, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	const op = "SetChannelParam"
	v, err := e.voice(op, c)
	if err != nil {
		return err
	}

	switch p {
	case engine.ParamVolume, engine.Param3DLevel:
		v.params[p] = value
		v.refresh()
	case engine.ParamFrequency:
		if value <= 0 {
			return engine.Fail(op, engine.CodeInvalidParam, nil)
		}
		v.params[p] = value
		v.res.SetRatio(e.ratio(value))
	case engine.ParamPaused:
		v.ctrl.Paused = value != 0
	case engine.ParamPosition:
		if value < 0 {
			return engine.Fail(op, engine.CodeInvalidParam, nil)
		}
		return v.src.seek(uint64(value))
	case engine.ParamPositionMS:
		if value < 0 {
			return engine.Fail(op, engine.CodeInvalidParam, nil)
		}
		return v.src.seek(uint64(math.Round(value * v.snd.rate / 1000)))
	case engine.ParamPriority, engine.ParamReverbWet:
		v.params[p] = value
	case engine.ParamOrder:
		return engine.Fail(op, engine.CodeUnsupported, engine.ErrUnsupported)
	default:
		return engine.Fail(op, engine.CodeInvalidParam, nil)
	}
	return nil
}

func (e *Engine) ChannelParam(c engine.Channel, p engine.Param) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	const op = "ChannelParam"
	v, err := e.voice(op, c)
	if err != nil {
		return 0, err
	}

	switch p {
	case engine.ParamPaused:
		if v.ctrl.Paused {
			return 1, nil
		}
		return 0, nil
	case engine.ParamPosition:
		return float64(v.src.position()), nil
	case engine.ParamPositionMS:
		return math.Floor(float64(v.src.position()) * 1000 / v.snd.rate), nil
	case engine.ParamAudibility:
		return v.params[engine.ParamVolume] * v.spatialGain(), nil
	case engine.ParamOrder:
		return 0, engine.Fail(op, engine.CodeUnsupported, engine.ErrUnsupported)
	}

	value, ok := v.params[p]
	if !ok {
		return 0, engine.Fail(op, engine.CodeInvalidParam, nil)
	}
	return value, nil
}

func (e *Engine) ChannelMode(c engine.Channel) (engine.Mode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.voice("ChannelMode", c)
	if err != nil {
		return 0, err
	}
	return v.mode, nil
}

func (e *Engine) SetChannelMode(c engine.Channel, m engine.Mode) error {
	e.mu.Lock()
	v, err := e.voice("SetChannelMode", c)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	v.mode = m
	v.refresh()
	e.mu.Unlock()

	e.spatialize(c)
	return nil
}

func (e *Engine) Set3DAttributes(c engine.Channel, pos, vel engine.Vec3) error {
	e.mu.Lock()
	v, err := e.voice("Set3DAttributes", c)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	v.pos, v.vel = pos, vel
	e.mu.Unlock()

	e.spatialize(c)
	return nil
}

func (e *Engine) SetMixLevels(c engine.Channel, levels []float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.voice("SetMixLevels", c)
	if err != nil {
		return err
	}
	v.levels = slices.Clone(levels)
	v.refresh()
	return nil
}

func (e *Engine) SetChannelTag(c engine.Channel, t engine.Tag) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.voice("SetChannelTag", c)
	if err != nil {
		return err
	}
	v.tag = t
	return nil
}

// spatialize recomputes the distance attenuation of c. The rolloff
// callback runs without the lock held.
func (e *Engine) spatialize(c engine.Channel) {
	e.mu.Lock()
	v, ok := e.channels[c]
	if !ok || v.done || v.mode.Is2D() {
		e.mu.Unlock()
		return
	}
	tag, dist, rolloff := v.tag, v.pos.Sub(e.listener.pos).Length(), e.cb.Rolloff
	e.mu.Unlock()

	atten := defaultRolloff(dist)
	if rolloff != nil {
		atten = rolloff(tag, dist)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.channels[c]; ok && !v.done {
		v.atten = atten
		v.refresh()
	}
}

// respatialize recomputes every positioned channel after the listener
// moved.
func (e *Engine) respatialize() {
	e.mu.Lock()
	ids := make([]engine.Channel, 0, len(e.channels))
	for id, v := range e.channels {
		if !v.done && !v.mode.Is2D() {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.spatialize(id)
	}
}

// defaultRolloff is inverse distance with a minimum distance of 1.
func defaultRolloff(d float64) float64 {
	return 1 / max(d, 1)
}

// mix2D derives pan and gain from the front speaker levels.
func (v *voice) mix2D() (pan, gain float64) {
	if len(v.levels) == 0 {
		return 0, 1
	}
	l := v.levels[0]
	r := l
	if len(v.levels) > 1 {
		r = v.levels[1]
	}
	if l+r <= 0 {
		return 0, 0
	}
	return (r - l) / (l + r), min(max(l, r), 1)
}

// mix3D derives pan from the source direction relative to the listener.
func (v *voice) mix3D() float64 {
	l := v.e.listener
	dir := v.pos.Sub(l.pos)
	if dir.LengthSquared() == 0 {
		return 0
	}
	right := l.forward.Cross(l.up).Normalize()
	return min(max(dir.Normalize().Dot(right), -1), 1)
}

// spatialGain is the level applied on top of the channel volume.
func (v *voice) spatialGain() float64 {
	_, gain := v.mix2D()
	if v.mode.Is2D() {
		return gain
	}
	level := v.params[engine.Param3DLevel]
	return level*v.atten + (1-level)*gain
}

// refresh pushes volume and pan into the chain.
func (v *voice) refresh() {
	pan, _ := v.mix2D()
	if !v.mode.Is2D() {
		level := v.params[engine.Param3DLevel]
		pan = level*v.mix3D() + (1-level)*pan
	}
	v.pan.Pan = pan
	setGain(v.vol, v.params[engine.ParamVolume]*v.spatialGain())
}
