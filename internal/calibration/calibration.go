// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration averages readings taken while the gimbal is held
// still and level. The means become fixed offsets for the rest of the run.
package calibration

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/imu"
	"github.com/relabs-tech/camera_gimbal/internal/orientation"
)

// Offsets holds the stationary means. Zero means uncalibrated.
type Offsets struct {
	PitchAccel int16 `json:"pitch_accel"`
	RollAccel  int16 `json:"roll_accel"`
	RollGyro   int32 `json:"roll_gyro"`
	PitchGyro  int32 `json:"pitch_gyro"`
	YawGyro    int32 `json:"yaw_gyro"`
}

// Plan is how many samples each calibration takes. A zero count skips it.
type Plan struct {
	PitchSamples int
	RollSamples  int
	GyroSamples  int
	// AllGyroAxes also calibrates the pitch and yaw gyro channels.
	AllGyroAxes bool
	// SampleDelay is slept between samples. Zero reads back to back.
	SampleDelay time.Duration
}

// DefaultPlan matches the counts the stabilizer was tuned with.
func DefaultPlan() Plan {
	return Plan{PitchSamples: 200, RollSamples: 500, GyroSamples: 200}
}

// Engine runs calibrations against a sampler. It must be the only user of
// the sampler while it runs.
type Engine struct {
	src   imu.Sampler
	delay time.Duration
}

// New returns an engine reading from src.
func New(src imu.Sampler) *Engine {
	return &Engine{src: src}
}

// Run executes the plan in order: accel pitch, accel roll, then gyro.
func (e *Engine) Run(ctx context.Context, p Plan) (Offsets, error) {
	e.delay = p.SampleDelay
	var (
		off Offsets
		err error
	)
	if p.PitchSamples > 0 {
		if off.PitchAccel, err = e.PitchAccel(ctx, p.PitchSamples); err != nil {
			return Offsets{}, err
		}
		log.Printf("calibration: accel pitch offset is %d", off.PitchAccel)
	}
	if p.RollSamples > 0 {
		if off.RollAccel, err = e.RollAccel(ctx, p.RollSamples); err != nil {
			return Offsets{}, err
		}
		log.Printf("calibration: accel roll offset is %d", off.RollAccel)
	}
	if p.GyroSamples > 0 {
		if off.RollGyro, err = e.Gyro(ctx, imu.AxisRoll, p.GyroSamples); err != nil {
			return Offsets{}, err
		}
		log.Printf("calibration: gyro roll offset is %d", off.RollGyro)
		if p.AllGyroAxes {
			if off.PitchGyro, err = e.Gyro(ctx, imu.AxisPitch, p.GyroSamples); err != nil {
				return Offsets{}, err
			}
			if off.YawGyro, err = e.Gyro(ctx, imu.AxisYaw, p.GyroSamples); err != nil {
				return Offsets{}, err
			}
			log.Printf("calibration: gyro pitch offset is %d, yaw offset is %d", off.PitchGyro, off.YawGyro)
		}
	}
	return off, nil
}

// PitchAccel averages n accelerometer pitch angles.
func (e *Engine) PitchAccel(ctx context.Context, n int) (int16, error) {
	mean, err := e.mean(ctx, n, func() int32 {
		ax, ay, az := e.src.ReadAccel()
		return int32(orientation.TruncAngle(orientation.PitchFromAccel(ax, ay, az)))
	})
	return int16(mean), err
}

// RollAccel averages n accelerometer roll angles.
func (e *Engine) RollAccel(ctx context.Context, n int) (int16, error) {
	mean, err := e.mean(ctx, n, func() int32 {
		ax, ay, az := e.src.ReadAccel()
		return int32(orientation.TruncAngle(orientation.RollFromAccel(ax, ay, az)))
	})
	return int16(mean), err
}

// Gyro averages n raw readings of one gyroscope axis.
func (e *Engine) Gyro(ctx context.Context, axis imu.Axis, n int) (int32, error) {
	return e.mean(ctx, n, func() int32 {
		return int32(e.src.ReadGyro(axis))
	})
}

// mean sums n samples in 32 bits and divides with truncation toward zero.
func (e *Engine) mean(ctx context.Context, n int, sample func() int32) (int32, error) {
	if n <= 0 {
		return 0, fmt.Errorf("calibration: sample count must be positive, got %d", n)
	}
	var sum int32
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("calibration interrupted after %d of %d samples: %w", i, n, err)
		}
		sum += sample()
		if e.delay > 0 {
			time.Sleep(e.delay)
		}
	}
	return sum / int32(n), nil
}
