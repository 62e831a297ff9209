// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/camera_gimbal/internal/share"
	"github.com/relabs-tech/camera_gimbal/internal/telemetry"
)

// screen is the part of *ssd1306.Dev the status page uses.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display renders the latest snapshot on a 128x64 OLED at its own pace.
type Display struct {
	dev      screen
	interval time.Duration
	latest   share.Cell[telemetry.Snapshot]
}

// OpenDisplay initializes an SSD1306 on bus.
func OpenDisplay(bus i2c.Bus, interval time.Duration) (*Display, error) {
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")
	return NewDisplay(dev, interval), nil
}

// NewDisplay wraps an already initialized device.
func NewDisplay(dev screen, interval time.Duration) *Display {
	return &Display{dev: dev, interval: interval}
}

func (d *Display) Name() string { return "display" }

// Publish only records the snapshot; Run draws it.
func (d *Display) Publish(s telemetry.Snapshot) error {
	d.latest.Put(s)
	return nil
}

// Splash tells the operator to hold the gimbal level while it calibrates.
func (d *Display) Splash() error {
	return d.dev.Draw(d.dev.Bounds(), renderLines("Camera Gimbal", "Hold level", "Calibrating"), image.Point{})
}

// Run redraws the latest snapshot every interval until ctx ends.
func (d *Display) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Refresh(); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

// Refresh draws the latest snapshot once.
func (d *Display) Refresh() error {
	return d.dev.Draw(d.dev.Bounds(), statusImage(d.latest.Load()), image.Point{})
}

func statusImage(s telemetry.Snapshot, ok bool) *image1bit.VerticalLSB {
	if !ok {
		return renderLines("Gimbal", "Waiting...")
	}
	return renderLines(
		fmt.Sprintf("P:%4d  R:%4d", s.Pitch, s.Roll),
		fmt.Sprintf("E:%4d  U:%5d", s.Control.Error, s.Control.Effort),
		s.Control.State.String(),
		fmt.Sprintf("D:%3d/%3d", s.Control.Drive.A, s.Control.Drive.B),
	)
}

// renderLines draws up to four lines of 7x13 text on a blank frame.
func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if i == 4 {
			break
		}
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}
