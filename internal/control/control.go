// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package control holds the pitch stabilization loop: a bang-bang style
// state machine that brakes, measures, and nudges the motor one fixed pulse
// at a time toward the target angle.
package control

import (
	"context"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/motor"
)

// AngleReader yields the latest pitch estimate without blocking.
// share.Cell[int16] satisfies it.
type AngleReader interface {
	Get() int16
}

// Actuator is the motor as seen by the loop.
type Actuator interface {
	Spin(dutyA, dutyB uint16) error
	Brake() error
}

// Params tunes the loop.
type Params struct {
	Target    int16 // degrees
	Threshold int32 // |error| below this is accepted
	Gain      int32

	Period time.Duration // wait after every state step

	PositiveDrive motor.Command // positive effort
	PositiveDwell time.Duration
	NegativeDrive motor.Command // negative effort
	NegativeDwell time.Duration
	SettleDwell   time.Duration
}

// DefaultParams are the values the hardware was tuned with.
func DefaultParams() Params {
	return Params{
		Target:        0,
		Threshold:     10,
		Gain:          10,
		Period:        300 * time.Millisecond,
		PositiveDrive: motor.Command{A: 0, B: 50},
		PositiveDwell: 60 * time.Millisecond,
		NegativeDrive: motor.Command{A: 25, B: 0},
		NegativeDwell: 100 * time.Millisecond,
		SettleDwell:   100 * time.Millisecond,
	}
}

// Status is a copy of the loop's observable state.
type Status struct {
	State      State         `json:"state"`
	Angle      int16         `json:"angle"`
	Error      int32         `json:"error"`
	Effort     int32         `json:"effort"`
	Drive      motor.Command `json:"drive"`
	Braked     bool          `json:"braked"`
	Ticks      uint64        `json:"ticks"`
	AvgSpacing time.Duration `json:"avg_spacing_ns"`
}

// Controller is the stabilization state machine. It is driven by one
// goroutine, either through Run or by calling Tick directly.
type Controller struct {
	p      Params
	angles AngleReader
	act    Actuator

	state     State
	enteredAt time.Time
	dwelling  bool

	status   Status
	lastTick time.Time
	spacing  *movingaverage.MovingAverage

	// OnTick, if set, receives the status after every step.
	OnTick func(Status)
}

// New returns a controller in the idle state.
func New(p Params, angles AngleReader, act Actuator) *Controller {
	return &Controller{
		p:       p,
		angles:  angles,
		act:     act,
		state:   StateIdle,
		status:  Status{State: StateIdle},
		spacing: movingaverage.New(16),
	}
}

// State is the state the next Tick will execute.
func (c *Controller) State() State { return c.state }

// Status returns the latest status.
func (c *Controller) Status() Status { return c.status }

// Tick runs one step of the state machine and returns how long to wait
// before the next one. It never sleeps.
func (c *Controller) Tick(now time.Time) time.Duration {
	c.observeSpacing(now)
	next := c.step(now)
	c.status.State = c.state
	c.status.Ticks++
	if c.OnTick != nil {
		c.OnTick(c.status)
	}
	return next
}

func (c *Controller) step(now time.Time) time.Duration {
	switch c.state {
	case StateIdle:
		c.brake()
		angle := c.angles.Get()
		c.status.Angle = angle
		c.status.Error = int32(c.p.Target) - int32(angle)
		log.Debugf("control: calculated error %d", c.status.Error)
		if abs(c.status.Error) >= c.p.Threshold {
			c.transition(StateDecide)
		}
		return c.p.Period

	case StateDecide:
		u := c.status.Error * c.p.Gain
		c.status.Effort = u
		switch {
		case u < 0:
			c.transition(StateSpinNegative)
		case u > 0:
			c.transition(StateSpinPositive)
		default:
			c.transition(StateSettle)
		}
		return c.p.Period

	case StateSpinNegative:
		return c.dwell(now, c.p.NegativeDwell, StateSettle, func() { c.spin(c.p.NegativeDrive) })

	case StateSpinPositive:
		return c.dwell(now, c.p.PositiveDwell, StateSettle, func() { c.spin(c.p.PositiveDrive) })

	case StateSettle:
		return c.dwell(now, c.p.SettleDwell, StateIdle, c.brake)
	}

	log.Warnf("control: unknown state %d, returning to idle", c.state)
	c.transition(StateIdle)
	return c.p.Period
}

// dwell issues the entry action once, then holds the state until d has
// elapsed and moves to then.
func (c *Controller) dwell(now time.Time, d time.Duration, then State, enter func()) time.Duration {
	if !c.dwelling {
		enter()
		c.enteredAt = now
		c.dwelling = true
		return d
	}
	if elapsed := now.Sub(c.enteredAt); elapsed < d {
		return d - elapsed
	}
	c.transition(then)
	return c.p.Period
}

func (c *Controller) transition(to State) {
	if to != c.state {
		log.Debugf("control: %s -> %s", c.state, to)
	}
	c.state = to
	c.dwelling = false
}

func (c *Controller) spin(cmd motor.Command) {
	if err := c.act.Spin(cmd.A, cmd.B); err != nil {
		log.Warnf("control: spin %d/%d failed: %v", cmd.A, cmd.B, err)
	}
	c.status.Drive = cmd
	c.status.Braked = false
}

func (c *Controller) brake() {
	if err := c.act.Brake(); err != nil {
		log.Warnf("control: brake failed: %v", err)
	}
	c.status.Drive = motor.Command{}
	c.status.Braked = true
}

func (c *Controller) observeSpacing(now time.Time) {
	if !c.lastTick.IsZero() {
		c.spacing.Add(float64(now.Sub(c.lastTick)))
		c.status.AvgSpacing = time.Duration(c.spacing.Avg())
	}
	c.lastTick = now
}

// Run drives Tick from a timer until ctx ends, then brakes the motor.
// Cancellation is only for process shutdown; the loop has no other exit.
func (c *Controller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	log.Printf("control: loop started (target %d°, threshold %d, gain %d, period %s)",
		c.p.Target, c.p.Threshold, c.p.Gain, c.p.Period)

	for {
		select {
		case <-ctx.Done():
			c.brake()
			log.Println("control: stopped, motor braked")
			return nil
		case now := <-timer.C:
			timer.Reset(c.Tick(now))
		}
	}
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
