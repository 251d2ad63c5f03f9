// SPDX-License-Identifier: EPL-2.0

package channel

import (
	"fmt"

	"github.com/ik5/sndrender/engine"
)

// AbsoluteStart returns the start time for a channel seeked to frame seek at
// virtual time now, so that now - start == seek * rate / freq. A
// non-positive freq means the sound plays at the output rate. The result is
// 0 when the seek reaches back past the start of virtual time.
func AbsoluteStart(now, seek uint64, rate int, freq float64) uint64 {
	if freq <= 0 {
		freq = float64(rate)
	}
	back := uint64(float64(seek) * float64(rate) / freq)
	if back > now {
		return 0
	}
	return now - back
}

// ResumeOffset returns how far into a sound of length output samples a
// restarted channel must begin after elapsed output samples. Looping sounds
// wrap; a non-looping sound past its end reports false. A zero length
// means unknown and only works for non-looping sounds.
func ResumeOffset(elapsed, length uint64, loop bool) (uint64, bool) {
	if loop {
		if length == 0 {
			return 0, false
		}
		return elapsed % length, true
	}
	if length != 0 && elapsed >= length {
		return 0, false
	}
	return elapsed, true
}

// resume seeks c to where reuse would be now.
func (m *Manager) resume(c engine.Channel, snd engine.Sound, reuse *Session, flags Flags, freq float64) error {
	if reuse == nil {
		return nil
	}

	now := m.clock.Now()
	rate := m.eng.OutputRate()

	if flags&FlagAbsTime != 0 {
		seek := reuse.StartTime
		if seek > 0 {
			if err := m.eng.SetChannelParam(c, engine.ParamPosition, float64(seek)); err != nil {
				return fmt.Errorf("%w: %w", ErrSeekFailed, err)
			}
		}
		reuse.StartTime = AbsoluteStart(now, seek, rate, freq)
		return nil
	}

	if reuse.StartTime == 0 || now <= reuse.StartTime {
		return nil
	}

	info, err := m.eng.SoundInfo(snd)
	if err != nil {
		return fmt.Errorf("%w: reading length: %w", ErrSeekFailed, err)
	}
	if freq <= 0 {
		freq = info.Frequency
	}
	if freq <= 0 || info.Frequency <= 0 {
		return fmt.Errorf("%w: sound has no frequency", ErrSeekFailed)
	}

	// Everything below is in output samples until the final conversion to
	// sound time.
	length := uint64(float64(info.Length) * float64(rate) / freq)
	offset, ok := ResumeOffset(now-reuse.StartTime, length, flags&FlagLoop != 0)
	if !ok {
		return fmt.Errorf("%w: sound would have ended", ErrSeekFailed)
	}

	ms := float64(offset) / float64(rate) * 1000 * freq / info.Frequency
	if err := m.eng.SetChannelParam(c, engine.ParamPositionMS, ms); err != nil {
		return fmt.Errorf("%w: %w", ErrSeekFailed, err)
	}
	return nil
}
