// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/camera_gimbal/internal/imu"
)

// scripted replays accel and gyro readings in order, repeating the last one.
type scripted struct {
	accel [][3]int16
	gyro  map[imu.Axis][]int16
	reads int
}

func (s *scripted) ReadAccel() (int16, int16, int16) {
	s.reads++
	v := s.accel[0]
	if len(s.accel) > 1 {
		s.accel = s.accel[1:]
	}
	return v[0], v[1], v[2]
}

func (s *scripted) ReadGyro(axis imu.Axis) int16 {
	s.reads++
	q := s.gyro[axis]
	v := q[0]
	if len(q) > 1 {
		s.gyro[axis] = q[1:]
	}
	return v
}

func TestGyroMeanIsExactIntegerMean(t *testing.T) {
	src := &scripted{gyro: map[imu.Axis][]int16{imu.AxisRoll: {10, 11, 12, 13}}}
	mean, err := New(src).Gyro(context.Background(), imu.AxisRoll, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(11), mean) // 46/4 truncated
}

func TestGyroMeanTruncatesTowardZero(t *testing.T) {
	src := &scripted{gyro: map[imu.Axis][]int16{imu.AxisPitch: {-10, -11, -12, -13}}}
	mean, err := New(src).Gyro(context.Background(), imu.AxisPitch, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(-11), mean)
}

func TestGyroSumDoesNotOverflow16Bits(t *testing.T) {
	src := &scripted{gyro: map[imu.Axis][]int16{imu.AxisYaw: {30000}}}
	mean, err := New(src).Gyro(context.Background(), imu.AxisYaw, 500)
	require.NoError(t, err)
	assert.Equal(t, int32(30000), mean)
	assert.Equal(t, 500, src.reads)
}

func TestPitchAccelAveragesTruncatedAngles(t *testing.T) {
	// 45° and 0°: mean of per-sample truncated angles is 22.
	src := &scripted{accel: [][3]int16{{-1000, 0, 1000}, {0, 0, 16384}}}
	mean, err := New(src).PitchAccel(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int16(22), mean)
}

func TestZeroSamplesIsAnError(t *testing.T) {
	src := &scripted{accel: [][3]int16{{0, 0, 16384}}}
	_, err := New(src).RollAccel(context.Background(), 0)
	assert.Error(t, err)
}

func TestRunHonorsCancellation(t *testing.T) {
	src := &scripted{accel: [][3]int16{{0, 0, 16384}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(src).Run(ctx, DefaultPlan())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, src.reads)
}

func TestRunDefaultPlan(t *testing.T) {
	src := &scripted{
		accel: [][3]int16{{0, 0, 16384}},
		gyro:  map[imu.Axis][]int16{imu.AxisRoll: {-7}},
	}
	off, err := New(src).Run(context.Background(), DefaultPlan())
	require.NoError(t, err)
	assert.Equal(t, Offsets{RollGyro: -7}, off)
	assert.Equal(t, 200+500+200, src.reads)
}

func TestRunAllGyroAxes(t *testing.T) {
	src := &scripted{
		accel: [][3]int16{{0, 0, 16384}},
		gyro: map[imu.Axis][]int16{
			imu.AxisRoll:  {1},
			imu.AxisPitch: {2},
			imu.AxisYaw:   {3},
		},
	}
	p := Plan{GyroSamples: 10, AllGyroAxes: true}
	off, err := New(src).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, Offsets{RollGyro: 1, PitchGyro: 2, YawGyro: 3}, off)
}
