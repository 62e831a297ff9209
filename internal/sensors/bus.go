// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrNotInitialized is returned by ReadBlock before Init succeeded.
var ErrNotInitialized = errors.New("sensors: bus driver not initialized")

// Bus is a register-level driver for an MPU-6050 class device on I2C.
// It is not safe for concurrent use; one goroutine owns it.
type Bus struct {
	dev         *i2c.Dev
	initialized bool
}

// NewBus binds the driver to a device address on an already open bus.
func NewBus(b i2c.Bus, addr uint16) *Bus {
	return &Bus{dev: &i2c.Dev{Bus: b, Addr: addr}}
}

// OpenI2C initializes the periph host drivers and opens the named I2C bus.
// An empty name selects the first available bus.
func OpenI2C(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", name, err)
	}
	return b, nil
}

// Addr is the 7-bit device address.
func (b *Bus) Addr() uint16 { return b.dev.Addr }

// Init wakes the device by writing 0 to its power management register.
func (b *Bus) Init(powerReg byte) error {
	if err := b.dev.Tx([]byte{powerReg, 0x00}, nil); err != nil {
		return errors.Wrapf(err, "can't wake device at address 0x%02X", b.dev.Addr)
	}
	b.initialized = true
	return nil
}

// ReadBlock reads n consecutive registers starting at start in a single
// write-then-read transaction. Bytes are returned in device order.
func (b *Bus) ReadBlock(start byte, n int) ([]byte, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	if n <= 0 {
		return nil, errors.Errorf("invalid read length %d", n)
	}
	buf := make([]byte, n)
	if err := b.dev.Tx([]byte{start}, buf); err != nil {
		return nil, errors.Wrapf(err, "can't read %d bytes from register 0x%02X (%s) at address 0x%02X",
			n, start, RegisterName(start), b.dev.Addr)
	}
	return buf, nil
}

// WhoAmI reads the identity register.
func (b *Bus) WhoAmI() (byte, error) {
	buf, err := b.ReadBlock(RegWhoAmI, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}
