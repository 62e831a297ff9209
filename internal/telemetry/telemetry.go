// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry is the diagnostic view of the gimbal: one Snapshot per
// acquisition tick, fanned out to whatever sinks are configured.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/control"
	"github.com/relabs-tech/camera_gimbal/internal/imu"
	"github.com/relabs-tech/camera_gimbal/internal/share"
)

// Snapshot is an immutable copy of everything worth reporting at one instant.
type Snapshot struct {
	Time        time.Time      `json:"time"`
	Pitch       int16          `json:"pitch"`
	Roll        int16          `json:"roll"`
	GyroRoll    float64        `json:"gyro_roll"`
	Raw         imu.Raw        `json:"raw"`
	BusFailures uint64         `json:"bus_failures"`
	Control     control.Status `json:"control"`
}

// Line renders the snapshot as one human readable line.
func (s Snapshot) Line() string {
	return fmt.Sprintf("%s pitch=%d roll=%d gyro_roll=%.1f state=%s error=%d effort=%d drive=%d/%d",
		s.Time.Format("15:04:05.000"), s.Pitch, s.Roll, s.GyroRoll,
		s.Control.State, s.Control.Error, s.Control.Effort, s.Control.Drive.A, s.Control.Drive.B)
}

// Sink receives snapshots. Publish must not block for long; a slow sink
// delays the others.
type Sink interface {
	Name() string
	Publish(Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	Label string
	Fn    func(Snapshot) error
}

func (f SinkFunc) Name() string             { return f.Label }
func (f SinkFunc) Publish(s Snapshot) error { return f.Fn(s) }

// Drain takes snapshots off q and hands each to every sink until ctx ends.
// Sink failures are logged and never stop the drain.
func Drain(ctx context.Context, q *share.Queue[Snapshot], sinks ...Sink) error {
	for {
		s, err := q.Get(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		for _, sink := range sinks {
			if err := sink.Publish(s); err != nil {
				log.Warnf("telemetry: %s publish error: %v", sink.Name(), err)
			}
		}
	}
}
