// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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
	mock := flag.Bool("mock", false, "run without hardware (synthetic IMU, simulated motors)")
	flag.Parse()

	log.Println("starting camera gimbal (IMU -> pitch motor)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunGimbal(ctx, *mock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
