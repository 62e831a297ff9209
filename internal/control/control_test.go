// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/camera_gimbal/internal/motor"
	"github.com/relabs-tech/camera_gimbal/internal/share"
)

type op struct {
	brake bool
	cmd   motor.Command
}

type fakeMotor struct {
	mu  sync.Mutex
	ops []op
}

func (f *fakeMotor) Spin(a, b uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{cmd: motor.Command{A: a, B: b}})
	return nil
}

func (f *fakeMotor) Brake() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op{brake: true})
	return nil
}

func (f *fakeMotor) spins() []motor.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []motor.Command
	for _, o := range f.ops {
		if !o.brake {
			out = append(out, o.cmd)
		}
	}
	return out
}

func (f *fakeMotor) last() op {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ops[len(f.ops)-1]
}

func newController(angle int16) (*Controller, *share.Cell[int16], *fakeMotor) {
	cell := share.NewCell[int16]()
	cell.Put(angle)
	m := &fakeMotor{}
	return New(DefaultParams(), cell, m), cell, m
}

func TestZeroErrorNeverSpins(t *testing.T) {
	c, _, m := newController(0)
	now := time.Unix(0, 0)
	for i := 0; i < 20; i++ {
		now = now.Add(c.Tick(now))
		assert.Equal(t, StateIdle, c.State())
	}
	assert.Empty(t, m.spins())
	assert.True(t, m.last().brake)
}

func TestSmallErrorIsAccepted(t *testing.T) {
	c, _, m := newController(-9)
	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		now = now.Add(c.Tick(now))
	}
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, m.spins())
	assert.Equal(t, int32(9), c.Status().Error)
}

func TestPositiveErrorDrivesPositive(t *testing.T) {
	// target 0, measured -50: error +50, effort 500.
	c, _, m := newController(-50)
	now := time.Unix(0, 0)

	d := c.Tick(now)
	assert.Equal(t, 300*time.Millisecond, d)
	assert.Equal(t, StateDecide, c.State())

	now = now.Add(d)
	d = c.Tick(now)
	assert.Equal(t, StateSpinPositive, c.State())
	assert.Equal(t, int32(500), c.Status().Effort)
	assert.Equal(t, 300*time.Millisecond, d)

	now = now.Add(d)
	d = c.Tick(now)
	assert.Equal(t, 60*time.Millisecond, d)
	assert.Equal(t, []motor.Command{{A: 0, B: 50}}, m.spins())
	assert.False(t, c.Status().Braked)

	now = now.Add(d)
	d = c.Tick(now)
	assert.Equal(t, StateSettle, c.State())
	assert.Equal(t, 300*time.Millisecond, d)

	now = now.Add(d)
	d = c.Tick(now)
	assert.True(t, m.last().brake)
	assert.Equal(t, 100*time.Millisecond, d)

	now = now.Add(d)
	d = c.Tick(now)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 300*time.Millisecond, d)
}

func TestNegativeErrorDrivesNegative(t *testing.T) {
	c, _, m := newController(40)
	now := time.Unix(0, 0)
	for c.State() != StateSettle {
		now = now.Add(c.Tick(now))
	}
	assert.Equal(t, int32(-400), c.Status().Effort)
	assert.Equal(t, []motor.Command{{A: 25, B: 0}}, m.spins())
}

func TestEarlyTickKeepsDwelling(t *testing.T) {
	c, _, _ := newController(-50)
	now := time.Unix(0, 0)
	now = now.Add(c.Tick(now)) // idle
	now = now.Add(c.Tick(now)) // decide
	c.Tick(now)                // spin entry, dwell 60ms

	d := c.Tick(now.Add(20 * time.Millisecond))
	assert.Equal(t, StateSpinPositive, c.State())
	assert.Equal(t, 40*time.Millisecond, d)
}

func TestZeroEffortSettles(t *testing.T) {
	p := DefaultParams()
	p.Threshold = 0
	cell := share.NewCell[int16]()
	m := &fakeMotor{}
	c := New(p, cell, m)

	now := time.Unix(0, 0)
	now = now.Add(c.Tick(now))
	assert.Equal(t, StateDecide, c.State())
	c.Tick(now)
	assert.Equal(t, StateSettle, c.State())
	assert.Empty(t, m.spins())
}

func TestAngleChangeIsPickedUpInIdle(t *testing.T) {
	c, cell, _ := newController(0)
	now := time.Unix(0, 0)
	now = now.Add(c.Tick(now))
	assert.Equal(t, StateIdle, c.State())

	cell.Put(30)
	c.Tick(now)
	assert.Equal(t, StateDecide, c.State())
	assert.Equal(t, int32(-30), c.Status().Error)
}

func TestStatusCallbackAndSpacing(t *testing.T) {
	c, _, _ := newController(0)
	var got []Status
	c.OnTick = func(s Status) { got = append(got, s) }

	now := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		now = now.Add(c.Tick(now))
	}
	require.Len(t, got, 3)
	assert.Equal(t, uint64(3), got[2].Ticks)
	assert.Equal(t, 300*time.Millisecond, got[2].AvgSpacing)
}

func TestRunBrakesOnShutdown(t *testing.T) {
	c, _, m := newController(-50)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, c.Run(ctx))
	assert.True(t, m.last().brake)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "SPIN_POSITIVE", StateSpinPositive.String())
	assert.Equal(t, "UNSUPPORTED", State(0).String())
	b, err := StateSettle.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SETTLE", string(b))

	var s State
	require.NoError(t, s.UnmarshalText([]byte("DECIDE")))
	assert.Equal(t, StateDecide, s)
	require.NoError(t, s.UnmarshalText([]byte("UNSUPPORTED")))
	assert.Equal(t, State(0), s)
	assert.Error(t, s.UnmarshalText([]byte("SPINNING")))
}
