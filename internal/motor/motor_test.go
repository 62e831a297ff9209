// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type recordingOutput struct {
	duties []gpio.Duty
	freq   physic.Frequency
	err    error
}

func (r *recordingOutput) PWM(d gpio.Duty, f physic.Frequency) error {
	if r.err != nil {
		return r.err
	}
	r.duties = append(r.duties, d)
	r.freq = f
	return nil
}

func (r *recordingOutput) lastDuty() gpio.Duty { return r.duties[len(r.duties)-1] }

func pitchConfig() Config {
	return Config{Name: "pitch", PinA: "GPIO21", PinB: "GPIO13", Frequency: 16 * physic.KiloHertz, ResolutionBits: 8}
}

func newTestMotor(t *testing.T) (*Motor, *recordingOutput, *recordingOutput) {
	t.Helper()
	a, b := &recordingOutput{}, &recordingOutput{}
	m, err := New(pitchConfig(), a, b)
	require.NoError(t, err)
	return m, a, b
}

func TestSpinWritesBothDuties(t *testing.T) {
	m, a, b := newTestMotor(t)
	require.NoError(t, m.Spin(0, 50))
	assert.Equal(t, Command{A: 0, B: 50}, m.Last())
	assert.Equal(t, gpio.Duty(0), a.lastDuty())
	assert.Equal(t, gpio.Duty(50*int64(gpio.DutyMax)/255), b.lastDuty())
	assert.Equal(t, 16*physic.KiloHertz, b.freq)
}

func TestBrakeAfterAnySpinIsFullScale(t *testing.T) {
	for _, c := range []Command{{0, 0}, {25, 0}, {0, 50}, {255, 0}, {7, 9}} {
		m, a, b := newTestMotor(t)
		require.NoError(t, m.Spin(c.A, c.B))
		require.NoError(t, m.Brake())
		assert.Equal(t, Command{A: 255, B: 255}, m.Last())
		assert.Equal(t, gpio.DutyMax, a.lastDuty())
		assert.Equal(t, gpio.DutyMax, b.lastDuty())
	}
}

func TestSpinClampsToResolution(t *testing.T) {
	m, _, b := newTestMotor(t)
	require.NoError(t, m.Spin(0, 1000))
	assert.Equal(t, Command{A: 0, B: 255}, m.Last())
	assert.Equal(t, gpio.DutyMax, b.lastDuty())
}

func TestOutputErrorIsReported(t *testing.T) {
	a, b := &recordingOutput{}, &recordingOutput{err: errors.New("no pwm")}
	m, err := New(pitchConfig(), a, b)
	require.NoError(t, err)
	assert.Error(t, m.Brake())
}

func TestConfigValidate(t *testing.T) {
	c := pitchConfig()
	c.PinB = c.PinA
	assert.Error(t, c.Validate())

	c = pitchConfig()
	c.ResolutionBits = 0
	assert.Error(t, c.Validate())

	c = pitchConfig()
	c.Frequency = 0
	assert.Error(t, c.Validate())

	assert.Equal(t, uint16(255), pitchConfig().MaxDuty())
}

func TestCheckDistinct(t *testing.T) {
	roll := Config{Name: "roll", PinA: "GPIO12", PinB: "GPIO27"}
	assert.NoError(t, CheckDistinct(pitchConfig(), roll))

	roll.PinB = "GPIO13"
	assert.Error(t, CheckDistinct(pitchConfig(), roll))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, clamp(5, 0, 10))
	assert.Equal(t, 0, clamp(-3, 0, 10))
	assert.Equal(t, uint16(255), clamp(uint16(300), 0, 255))
}
