// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/camera_gimbal/internal/imu"
	"github.com/relabs-tech/camera_gimbal/internal/orientation"
)

// RunMockConsole prints the tilt estimated from the synthetic IMU every
// 100ms. Useful for checking the angle math without a board.
func RunMockConsole(ctx context.Context, w io.Writer) error {
	src := orientation.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printTilt(w, src, orientation.Estimator{})
		}
	}
}

func printTilt(w io.Writer, src imu.Sampler, est orientation.Estimator) {
	ax, ay, az := src.ReadAccel()
	fmt.Fprintf(w,
		"PITCH=%4d  ROLL=%4d  AX=%6d AY=%6d AZ=%6d\n",
		est.Pitch(ax, ay, az),
		est.Roll(ax, ay, az),
		ax, ay, az,
	)
}
