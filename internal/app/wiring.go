// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/camera_gimbal/internal/calibration"
	"github.com/relabs-tech/camera_gimbal/internal/config"
	"github.com/relabs-tech/camera_gimbal/internal/control"
	"github.com/relabs-tech/camera_gimbal/internal/imu"
	"github.com/relabs-tech/camera_gimbal/internal/motor"
	"github.com/relabs-tech/camera_gimbal/internal/orientation"
	"github.com/relabs-tech/camera_gimbal/internal/sensors"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// ControlParams maps the control section of the config.
func ControlParams(cfg *config.Config) control.Params {
	return control.Params{
		Target:        int16(cfg.ControlTarget),
		Threshold:     int32(cfg.ControlThreshold),
		Gain:          int32(cfg.ControlGain),
		Period:        ms(cfg.ControlPeriod),
		PositiveDrive: motor.Command{A: uint16(cfg.ControlPositiveDuty[0]), B: uint16(cfg.ControlPositiveDuty[1])},
		PositiveDwell: ms(cfg.ControlPositiveDwell),
		NegativeDrive: motor.Command{A: uint16(cfg.ControlNegativeDuty[0]), B: uint16(cfg.ControlNegativeDuty[1])},
		NegativeDwell: ms(cfg.ControlNegativeDwell),
		SettleDwell:   ms(cfg.ControlSettleDwell),
	}
}

// CalibrationPlan maps the calibration section of the config.
func CalibrationPlan(cfg *config.Config) calibration.Plan {
	return calibration.Plan{
		PitchSamples: cfg.CalibrationPitchSamples,
		RollSamples:  cfg.CalibrationRollSamples,
		GyroSamples:  cfg.CalibrationGyroSamples,
		AllGyroAxes:  cfg.CalibrationAllGyroAxes,
		SampleDelay:  ms(cfg.CalibrationSampleDelay),
	}
}

// MotorConfigs returns pitch, roll and yaw, skipping motors without pins.
// Pitch is always first.
func MotorConfigs(cfg *config.Config) []motor.Config {
	all := []motor.Config{
		{Name: "pitch", PinA: cfg.PitchMotorPinA, PinB: cfg.PitchMotorPinB, Frequency: physic.Frequency(cfg.PitchMotorFreqHz) * physic.Hertz},
		{Name: "roll", PinA: cfg.RollMotorPinA, PinB: cfg.RollMotorPinB, Frequency: physic.Frequency(cfg.RollMotorFreqHz) * physic.Hertz},
		{Name: "yaw", PinA: cfg.YawMotorPinA, PinB: cfg.YawMotorPinB, Frequency: physic.Frequency(cfg.YawMotorFreqHz) * physic.Hertz},
	}
	var out []motor.Config
	for i, m := range all {
		if i > 0 && (m.PinA == "" || m.PinB == "") {
			continue
		}
		m.ResolutionBits = uint8(cfg.PWMResolution)
		out = append(out, m)
	}
	return out
}

// setLogLevel applies LOG_LEVEL; validation already rejected bad names.
func setLogLevel(name string) {
	level, err := log.ParseLevel(name)
	if err != nil {
		log.Warnf("unknown log level %q, keeping %s", name, log.GetLevel())
		return
	}
	log.SetLevel(level)
}

// simOutput stands in for a PWM pin when running without hardware.
type simOutput struct {
	pin string
}

func (s simOutput) PWM(d gpio.Duty, f physic.Frequency) error {
	log.Tracef("sim: %s duty=%s freq=%s", s.pin, d, f)
	return nil
}

// openMotors opens every configured motor, braked. On mock runs the pins
// are simulated.
func openMotors(cfgs []motor.Config, mock bool) ([]*motor.Motor, error) {
	if err := motor.CheckDistinct(cfgs...); err != nil {
		return nil, err
	}
	var out []*motor.Motor
	for _, c := range cfgs {
		var (
			m   *motor.Motor
			err error
		)
		if mock {
			m, err = motor.New(c, simOutput{pin: c.PinA}, simOutput{pin: c.PinB})
		} else {
			m, err = motor.Open(c)
		}
		if err != nil {
			closeMotors(out)
			return nil, err
		}
		if err := m.Brake(); err != nil {
			closeMotors(out)
			return nil, fmt.Errorf("motor %s: initial brake: %w", c.Name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func closeMotors(motors []*motor.Motor) {
	for _, m := range motors {
		if err := m.Close(); err != nil {
			log.Warnf("motor %s: close: %v", m.Name(), err)
		}
	}
}

// openSampler returns the IMU the gimbal reads from. The closer is nil for
// the mock source.
func openSampler(cfg *config.Config, mock bool) (imu.Sampler, io.Closer, error) {
	if mock {
		log.Println("using mock IMU source")
		return orientation.NewMockSource(), nil, nil
	}
	bus, err := sensors.OpenI2C(cfg.I2CBus)
	if err != nil {
		return nil, nil, err
	}
	m := sensors.NewIMU(sensors.NewBus(bus, cfg.IMUI2CAddr))
	if err := m.Start(cfg.IMUPowerReg); err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("IMU init: %w", err)
	}
	return m, bus, nil
}
