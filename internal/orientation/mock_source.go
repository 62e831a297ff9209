// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/camera_gimbal/internal/imu"
)

// MockSource synthesizes raw samples for a gimbal swaying slowly in pitch.
type MockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock sampler that generates smooth changing values.
func NewMockSource() *MockSource {
	return &MockSource{start: time.Now(), now: time.Now}
}

func (m *MockSource) angles() (pitch, roll float64) {
	elapsed := m.now().Sub(m.start).Seconds()
	return 15 * math.Sin(elapsed*0.7), 5 * math.Sin(elapsed*0.3)
}

// ReadAccel returns counts at ±2g full scale for the current synthetic pose.
func (m *MockSource) ReadAccel() (ax, ay, az int16) {
	pitch, roll := m.angles()
	p := pitch / radToDeg
	r := roll / radToDeg
	g := 16384.0
	return int16(-g * math.Sin(p)), int16(g * math.Cos(p) * math.Sin(r)), int16(g * math.Cos(p) * math.Cos(r))
}

// ReadGyro returns a small constant bias so calibration has something to remove.
func (m *MockSource) ReadGyro(axis imu.Axis) int16 {
	return int16(axis) + 1
}
