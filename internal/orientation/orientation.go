// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
)

// Pose is what the acquisition loop publishes each tick.
type Pose struct {
	Pitch    int16   `json:"pitch"`     // accel, degrees, offset removed
	Roll     int16   `json:"roll"`      // accel, degrees, offset removed
	GyroRoll float64 `json:"gyro_roll"` // integrated, degrees
}

const radToDeg = 180.0 / math.Pi

func accelVector(ax, ay, az int16) r3.Vector {
	return r3.Vector{X: float64(ax), Y: float64(ay), Z: float64(az)}
}

// PitchFromAccel is the tilt about the Y axis in degrees:
//
//	pitch = atan(-ax / sqrt(ay² + az²))
//
// atan2 gives the same value for a positive denominator and 0 when all
// three axes read zero.
func PitchFromAccel(ax, ay, az int16) float64 {
	v := accelVector(ax, ay, az)
	return math.Atan2(-v.X, r3.Vector{Y: v.Y, Z: v.Z}.Norm()) * radToDeg
}

// RollFromAccel is the tilt about the X axis in degrees:
//
//	roll = atan(ay / sqrt(ax² + az²))
func RollFromAccel(ax, ay, az int16) float64 {
	v := accelVector(ax, ay, az)
	return math.Atan2(v.Y, r3.Vector{X: v.X, Z: v.Z}.Norm()) * radToDeg
}

// TruncAngle drops the fractional part of an angle, toward zero.
func TruncAngle(deg float64) int16 {
	return int16(math.Trunc(deg))
}

// Estimator turns raw accelerometer readings into offset-corrected angles.
type Estimator struct {
	PitchOffset int16
	RollOffset  int16
}

// Pitch subtracts the offset before truncating, so a reading equal to the
// offset yields 0.
func (e Estimator) Pitch(ax, ay, az int16) int16 {
	return TruncAngle(PitchFromAccel(ax, ay, az) - float64(e.PitchOffset))
}

// Roll is the roll counterpart of Pitch.
func (e Estimator) Roll(ax, ay, az int16) int16 {
	return TruncAngle(RollFromAccel(ax, ay, az) - float64(e.RollOffset))
}

// GyroIntegrator accumulates a rate into an angle. The accumulator only
// moves forward; there is no drift correction.
type GyroIntegrator struct {
	Offset int32

	angle float64
	last  time.Time
}

// Update adds (rate - Offset) * elapsed seconds since the previous call.
// The first call has no previous time and contributes nothing.
func (g *GyroIntegrator) Update(rate int16, now time.Time) float64 {
	if !g.last.IsZero() {
		dt := now.Sub(g.last).Seconds()
		if dt > 0 {
			g.angle += float64(int32(rate)-g.Offset) * dt
		}
	}
	g.last = now
	return g.angle
}

// Angle is the accumulated value.
func (g *GyroIntegrator) Angle() float64 { return g.angle }

// Reset clears the accumulator and the time reference.
func (g *GyroIntegrator) Reset() {
	g.angle = 0
	g.last = time.Time{}
}
