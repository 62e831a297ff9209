// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command calibration measures the IMU offsets the gimbal would use and
// prints them as JSON. Hold the gimbal level and still while it runs.
//
// Run:
//
//	sudo ./calibration -config ./gimbal_config.txt
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/app"
	"github.com/relabs-tech/camera_gimbal/internal/config"
)

func main() {
	configPath := flag.String("config", "./gimbal_config.txt", "path to configuration file")
	mock := flag.Bool("mock", false, "use the synthetic IMU")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunCalibration(ctx, *mock); err != nil {
		log.Fatalf("calibration failed: %v", err)
	}
}
