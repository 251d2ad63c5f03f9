// SPDX-License-Identifier: EPL-2.0

package channel

import (
	"testing"

	"github.com/ik5/sndrender/clock"
	"github.com/ik5/sndrender/engine"
	"github.com/ik5/sndrender/internal/enginetest"
)

const testRate = 48000

type recorder struct {
	ended    []*Session
	virtuals []bool
}

func (r *recorder) ChannelEnded(s *Session) { r.ended = append(r.ended, s) }

func (r *recorder) ChannelVirtualChanged(_ *Session, v bool) { r.virtuals = append(r.virtuals, v) }

type harness struct {
	fake  *enginetest.Fake
	clock *clock.Virtual
	rec   *recorder
	mgr   *Manager
}

func newHarness(t *testing.T, pitched bool) *harness {
	t.Helper()

	f := enginetest.New(testRate)
	clk := clock.NewVirtual(testRate, 35)
	rec := &recorder{}
	return &harness{fake: f, clock: clk, rec: rec, mgr: NewManager(f, clk, rec, pitched)}
}

// sound creates a 16-bit sound of frames frames.
func (h *harness) sound(t *testing.T, frames, freq, channels int) engine.Sound {
	t.Helper()

	s, err := h.fake.CreateSound(engine.SoundDesc{
		Data:      make([]byte, frames*2*channels),
		Format:    engine.FormatPCM16,
		Channels:  channels,
		Frequency: freq,
		Mode:      engine.Mode3D,
	})
	if err != nil {
		t.Fatalf("CreateSound: %v", err)
	}
	return s
}

func (h *harness) channel(t *testing.T, s *Session) *enginetest.Channel {
	t.Helper()

	ch, ok := h.fake.Channels[s.Channel()]
	if !ok {
		t.Fatalf("session channel %d unknown to the engine", s.Channel())
	}
	return ch
}
