// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/imu"
)

var gyroRegisters = [...]byte{
	imu.AxisRoll:  RegGyroXOutH,
	imu.AxisPitch: RegGyroYOutH,
	imu.AxisYaw:   RegGyroZOutH,
}

// IMU reads decoded samples from an MPU-6050. When a transaction fails it
// logs the failure and hands back the last good decode for that block, so
// callers always get a value. Before any good read that value is zero.
type IMU struct {
	bus *Bus

	accel    [3]int16
	gyro     [3]int16
	failures uint64
}

// NewIMU wraps an initialized or uninitialized bus driver.
func NewIMU(bus *Bus) *IMU {
	return &IMU{bus: bus}
}

// Start wakes the device and checks its identity. A wrong identity is only
// logged; clones report other values and still work.
func (m *IMU) Start(powerReg byte) error {
	if err := m.bus.Init(powerReg); err != nil {
		return err
	}
	id, err := m.bus.WhoAmI()
	switch {
	case err != nil:
		log.Warnf("imu: WHO_AM_I read failed: %v", err)
	case id != WhoAmIValue:
		log.Warnf("imu: unexpected WHO_AM_I 0x%02X at address 0x%02X (want 0x%02X)", id, m.bus.Addr(), WhoAmIValue)
	default:
		log.Printf("imu: MPU-6050 found at address 0x%02X", m.bus.Addr())
	}
	return nil
}

// ReadAccel returns the three accelerometer axes.
func (m *IMU) ReadAccel() (ax, ay, az int16) {
	block, err := m.bus.ReadBlock(RegAccelXOutH, 6)
	if err != nil {
		m.failures++
		log.Warnf("imu: accel read failed, reusing previous sample: %v", err)
		return m.accel[0], m.accel[1], m.accel[2]
	}
	ax, ay, az = DecodeAccel(block)
	m.accel = [3]int16{ax, ay, az}
	return ax, ay, az
}

// ReadGyro returns one gyroscope axis.
func (m *IMU) ReadGyro(axis imu.Axis) int16 {
	if int(axis) >= len(gyroRegisters) {
		log.Warnf("imu: unknown gyro axis %d", axis)
		return 0
	}
	block, err := m.bus.ReadBlock(gyroRegisters[axis], 2)
	if err != nil {
		m.failures++
		log.Warnf("imu: %s gyro read failed, reusing previous sample: %v", axis, err)
		return m.gyro[axis]
	}
	m.gyro[axis] = DecodeGyro(block)
	return m.gyro[axis]
}

// ReadRaw reads every channel.
func (m *IMU) ReadRaw() imu.Raw {
	ax, ay, az := m.ReadAccel()
	return imu.Raw{
		Ax: ax, Ay: ay, Az: az,
		Gx: m.ReadGyro(imu.AxisRoll),
		Gy: m.ReadGyro(imu.AxisPitch),
		Gz: m.ReadGyro(imu.AxisYaw),
	}
}

// Failures counts transactions that fell back to stale data.
func (m *IMU) Failures() uint64 { return m.failures }
