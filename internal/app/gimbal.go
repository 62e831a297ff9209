// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/camera_gimbal/internal/calibration"
	"github.com/relabs-tech/camera_gimbal/internal/config"
	"github.com/relabs-tech/camera_gimbal/internal/control"
	"github.com/relabs-tech/camera_gimbal/internal/imu"
	"github.com/relabs-tech/camera_gimbal/internal/orientation"
	"github.com/relabs-tech/camera_gimbal/internal/sensors"
	"github.com/relabs-tech/camera_gimbal/internal/share"
	"github.com/relabs-tech/camera_gimbal/internal/telemetry"
)

// announcer prints operator prompts to the log and, if present, the serial console.
type announcer struct {
	serial *SerialMirror
}

func (a announcer) say(format string, args ...interface{}) {
	log.Printf(format, args...)
	if a.serial != nil {
		a.serial.Printf(format, args...)
	}
}

// calibrate prompts the operator, waits for the gimbal to settle and runs
// the configured calibrations. The sampler must not be shared while it runs.
func calibrate(ctx context.Context, cfg *config.Config, src imu.Sampler, out announcer) (calibration.Offsets, error) {
	out.say("Hold IMU flat")
	select {
	case <-ctx.Done():
		return calibration.Offsets{}, ctx.Err()
	case <-time.After(ms(cfg.CalibrationSettleDelay)):
	}

	off, err := calibration.New(src).Run(ctx, CalibrationPlan(cfg))
	if err != nil {
		return calibration.Offsets{}, err
	}
	out.say("Acc Pitch Offset is: %d", off.PitchAccel)
	out.say("Acc Roll Offset is: %d", off.RollAccel)
	out.say("Gyro Roll Offset is: %d", off.RollGyro)
	return off, nil
}

// RunGimbal calibrates, then runs acquisition, control and diagnostics until
// ctx ends. With mock set no hardware is touched.
func RunGimbal(ctx context.Context, mock bool) error {
	cfg := config.Get()
	setLogLevel(cfg.LogLevel)
	mock = mock || cfg.MockIMU

	log.Println("starting camera gimbal stabilizer")

	src, busCloser, err := openSampler(cfg, mock)
	if err != nil {
		return err
	}
	if busCloser != nil {
		defer busCloser.Close()
	}

	var serialOut *SerialMirror
	if cfg.SerialPort != "" {
		mirror, closer, err := OpenSerialMirror(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			log.Warnf("serial: disabled: %v", err)
		} else {
			serialOut = mirror
			defer closer.Close()
		}
	}

	// Motors come up braked before calibration so the gimbal holds still.
	motors, err := openMotors(MotorConfigs(cfg), mock)
	if err != nil {
		return err
	}
	defer closeMotors(motors)
	pitchMotor := motors[0]

	var display *Display
	if cfg.DisplayEnabled && !mock {
		d, closer, err := openStatusDisplay(cfg)
		if err != nil {
			log.Warnf("display: disabled: %v", err)
		} else {
			defer closer.Close()
			display = d
			if err := display.Splash(); err != nil {
				log.Printf("display: error showing splash: %v", err)
			}
		}
	}

	off, err := calibrate(ctx, cfg, src, announcer{serial: serialOut})
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	pitchCell := share.NewCell[int16]()
	statusCell := share.NewCell[control.Status]()
	queue, err := share.NewQueue[telemetry.Snapshot](cfg.TelemetryQueueSize)
	if err != nil {
		return err
	}

	ctrl := control.New(ControlParams(cfg), pitchCell, pitchMotor)
	ctrl.OnTick = statusCell.Put

	acq := &Acquisition{
		Src:       src,
		Estimator: orientation.Estimator{PitchOffset: off.PitchAccel, RollOffset: off.RollAccel},
		GyroRoll:  &orientation.GyroIntegrator{Offset: off.RollGyro},
		Interval:  ms(cfg.IMUSampleInterval),
		Pitch:     pitchCell,
		Control:   statusCell,
		Out:       queue,
	}

	hub := NewHub()
	web := &Web{Pitch: pitchCell, Latest: share.NewCell[telemetry.Snapshot](), Hub: hub}
	sinks := []telemetry.Sink{web.LatestSink(), hub}

	// The sink skips snapshots until the broker answers, so a dead broker
	// never holds up the loops.
	client := newMQTTClient(cfg.MQTTBroker, cfg.MQTTClientIDGimbal)
	defer client.Disconnect(250)
	sinks = append(sinks, NewMQTTSink(client, cfg.TopicTelemetry, cfg.TopicPitch))

	if serialOut != nil {
		sinks = append(sinks, serialOut)
	}
	if display != nil {
		sinks = append(sinks, display)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return acq.Run(gctx) })
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return telemetry.Drain(gctx, queue, sinks...) })
	g.Go(func() error {
		connectInBackground(gctx, client, cfg.MQTTBroker)
		return nil
	})
	g.Go(func() error {
		if err := web.Serve(gctx, cfg.WebServerPort); err != nil {
			log.Warnf("web: %v", err)
		}
		return nil
	})
	if display != nil {
		g.Go(func() error { return display.Run(gctx) })
	}

	err = g.Wait()
	log.Println("camera gimbal stopped")
	return err
}

// openStatusDisplay opens the display's own bus; it is never the IMU bus
// handle, which stays with the acquisition goroutine.
func openStatusDisplay(cfg *config.Config) (*Display, io.Closer, error) {
	bus, err := sensors.OpenI2C(cfg.DisplayI2CBus)
	if err != nil {
		return nil, nil, err
	}
	d, err := OpenDisplay(bus, ms(cfg.DisplayUpdateInterval))
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	return d, bus, nil
}

// RunCalibration runs only the calibration sequence and prints the offsets
// as JSON. Nothing is stored; the gimbal recalibrates on every start.
func RunCalibration(ctx context.Context, mock bool) error {
	cfg := config.Get()
	setLogLevel(cfg.LogLevel)
	mock = mock || cfg.MockIMU

	src, busCloser, err := openSampler(cfg, mock)
	if err != nil {
		return err
	}
	if busCloser != nil {
		defer busCloser.Close()
	}

	all := *cfg
	all.CalibrationAllGyroAxes = true

	off, err := calibrate(ctx, &all, src, announcer{})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(off)
}
