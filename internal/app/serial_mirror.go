// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/telemetry"
)

// SerialMirror writes one text line per snapshot to a UART, for a laptop
// plugged into the gimbal's console port.
type SerialMirror struct {
	w io.Writer
}

// NewSerialMirror wraps any writer.
func NewSerialMirror(w io.Writer) *SerialMirror {
	return &SerialMirror{w: w}
}

// OpenSerialMirror opens the port 8N1 at the given baud rate.
func OpenSerialMirror(port string, baud int) (*SerialMirror, io.Closer, error) {
	options := serial.OpenOptions{
		PortName:        port,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}
	p, err := serial.Open(options)
	if err != nil {
		return nil, nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	log.Printf("serial: mirroring telemetry to %s at %d baud", port, baud)
	return NewSerialMirror(p), p, nil
}

func (m *SerialMirror) Name() string { return "serial" }

func (m *SerialMirror) Publish(s telemetry.Snapshot) error {
	_, err := fmt.Fprintf(m.w, "%s\r\n", s.Line())
	return err
}

// Printf writes a free-form line, used for startup messages.
func (m *SerialMirror) Printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(m.w, format+"\r\n", args...); err != nil {
		log.Warnf("serial: write error: %v", err)
	}
}
