// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// Raw is one decoded accelerometer + gyroscope sample in legacy counts.
type Raw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro, roll
	Gy int16 `json:"gy"` // pitch
	Gz int16 `json:"gz"` // yaw
}

// Axis selects a gyroscope channel.
type Axis uint8

const (
	AxisRoll  Axis = iota // X
	AxisPitch             // Y
	AxisYaw               // Z
)

func (a Axis) String() string {
	switch a {
	case AxisRoll:
		return "roll"
	case AxisPitch:
		return "pitch"
	case AxisYaw:
		return "yaw"
	}
	return "unknown"
}

// Sampler is anything that yields raw samples on demand. Reads never fail:
// implementations fall back to their previous sample.
type Sampler interface {
	ReadAccel() (ax, ay, az int16)
	ReadGyro(axis Axis) int16
}
