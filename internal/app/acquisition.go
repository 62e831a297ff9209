// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/control"
	"github.com/relabs-tech/camera_gimbal/internal/imu"
	"github.com/relabs-tech/camera_gimbal/internal/orientation"
	"github.com/relabs-tech/camera_gimbal/internal/share"
	"github.com/relabs-tech/camera_gimbal/internal/telemetry"
)

// failureCounter is implemented by samplers that can report stale reads.
type failureCounter interface {
	Failures() uint64
}

// Acquisition owns the IMU after calibration. Every tick it estimates pitch
// and roll, publishes pitch for the control loop and queues a snapshot.
type Acquisition struct {
	Src       imu.Sampler
	Estimator orientation.Estimator
	GyroRoll  *orientation.GyroIntegrator // nil disables gyro roll
	Interval  time.Duration

	Pitch   *share.Cell[int16]
	Control *share.Cell[control.Status]       // read only, may be nil
	Out     *share.Queue[telemetry.Snapshot] // may be nil

	dropped uint64
}

// Step performs one acquisition at time t and returns the snapshot it built.
func (a *Acquisition) Step(t time.Time) telemetry.Snapshot {
	ax, ay, az := a.Src.ReadAccel()
	pitch := a.Estimator.Pitch(ax, ay, az)
	a.Pitch.Put(pitch)

	s := telemetry.Snapshot{
		Time:  t,
		Pitch: pitch,
		Roll:  a.Estimator.Roll(ax, ay, az),
		Raw:   imu.Raw{Ax: ax, Ay: ay, Az: az},
	}
	if a.GyroRoll != nil {
		gx := a.Src.ReadGyro(imu.AxisRoll)
		s.Raw.Gx = gx
		s.GyroRoll = a.GyroRoll.Update(gx, t)
	}
	if fc, ok := a.Src.(failureCounter); ok {
		s.BusFailures = fc.Failures()
	}
	if a.Control != nil {
		s.Control = a.Control.Get()
	}

	if a.Out != nil && !a.Out.TryPut(s) {
		a.dropped++
		if a.dropped == 1 || a.dropped%100 == 0 {
			log.Warnf("acquisition: telemetry queue full, %d snapshots dropped", a.dropped)
		}
	}
	return s
}

// Run ticks until ctx ends.
func (a *Acquisition) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	log.Printf("acquisition: sampling every %s", a.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("acquisition: stopped")
			return nil
		case t := <-ticker.C:
			s := a.Step(t)
			log.Debugf("acquisition: pitch=%d roll=%d gyro_roll=%.1f", s.Pitch, s.Roll, s.GyroRoll)
		}
	}
}
