// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motor drives a brushed DC motor through an H-bridge with two PWM
// inputs. Driving one input while the other stays at 0 spins the motor;
// driving both at full duty shorts the windings and brakes it.
package motor

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Output is one PWM-capable pin. periph's gpio.PinIO satisfies it.
type Output interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Config describes one motor instance.
type Config struct {
	Name           string
	PinA           string
	PinB           string
	Frequency      physic.Frequency
	ResolutionBits uint8
}

// Command is the pair of duties last written, in resolution units.
type Command struct {
	A uint16 `json:"a"`
	B uint16 `json:"b"`
}

// Validate checks the fields Open and New depend on.
func (c Config) Validate() error {
	if c.PinA == "" || c.PinB == "" {
		return fmt.Errorf("motor %s: both pins are required", c.Name)
	}
	if c.PinA == c.PinB {
		return fmt.Errorf("motor %s: pins must differ, both are %s", c.Name, c.PinA)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("motor %s: PWM frequency must be positive", c.Name)
	}
	if c.ResolutionBits < 1 || c.ResolutionBits > 16 {
		return fmt.Errorf("motor %s: PWM resolution must be 1-16 bits, got %d", c.Name, c.ResolutionBits)
	}
	return nil
}

// MaxDuty is the full-scale duty at the configured resolution.
func (c Config) MaxDuty() uint16 {
	return uint16(1<<c.ResolutionBits - 1)
}

// CheckDistinct fails if any two motors share a pin.
func CheckDistinct(cfgs ...Config) error {
	owner := make(map[string]string)
	for _, c := range cfgs {
		for _, p := range []string{c.PinA, c.PinB} {
			if prev, ok := owner[p]; ok && prev != c.Name {
				return fmt.Errorf("pin %s is used by both motor %s and motor %s", p, prev, c.Name)
			}
			owner[p] = c.Name
		}
	}
	return nil
}

// Motor is one H-bridge channel pair.
type Motor struct {
	cfg  Config
	a, b Output
	max  uint16

	mu   sync.Mutex
	last Command
}

// New binds a motor to two outputs.
func New(cfg Config, a, b Output) (*Motor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, fmt.Errorf("motor %s: nil output", cfg.Name)
	}
	return &Motor{cfg: cfg, a: a, b: b, max: cfg.MaxDuty()}, nil
}

// Open resolves the configured pins by name through periph.
func Open(cfg Config) (*Motor, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	a := gpioreg.ByName(cfg.PinA)
	if a == nil {
		return nil, fmt.Errorf("motor %s: pin %q not found", cfg.Name, cfg.PinA)
	}
	b := gpioreg.ByName(cfg.PinB)
	if b == nil {
		return nil, fmt.Errorf("motor %s: pin %q not found", cfg.Name, cfg.PinB)
	}
	m, err := New(cfg, a, b)
	if err != nil {
		return nil, err
	}
	log.Printf("motor %s: pins %s/%s at %s, %d-bit", cfg.Name, cfg.PinA, cfg.PinB, cfg.Frequency, cfg.ResolutionBits)
	return m, nil
}

// Name is the configured motor name.
func (m *Motor) Name() string { return m.cfg.Name }

// Spin writes both duties as given, clamped to full scale. Callers keep at
// least one of them at 0; Spin does not enforce it.
func (m *Motor) Spin(dutyA, dutyB uint16) error {
	dutyA = clamp(dutyA, 0, m.max)
	dutyB = clamp(dutyB, 0, m.max)
	switch {
	case dutyA > 0 && dutyB == 0:
		log.Debugf("motor %s: spin forward %d", m.cfg.Name, dutyA)
	case dutyB > 0 && dutyA == 0:
		log.Debugf("motor %s: spin backwards %d", m.cfg.Name, dutyB)
	}
	return m.write(dutyA, dutyB)
}

// Brake drives both inputs to full duty regardless of the previous command.
func (m *Motor) Brake() error {
	return m.write(m.max, m.max)
}

// Last returns the most recent command written.
func (m *Motor) Last() Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Close leaves the motor braked.
func (m *Motor) Close() error {
	return m.Brake()
}

func (m *Motor) write(dutyA, dutyB uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = Command{A: dutyA, B: dutyB}
	if err := m.a.PWM(m.scale(dutyA), m.cfg.Frequency); err != nil {
		return fmt.Errorf("motor %s: pin %s: %w", m.cfg.Name, m.cfg.PinA, err)
	}
	if err := m.b.PWM(m.scale(dutyB), m.cfg.Frequency); err != nil {
		return fmt.Errorf("motor %s: pin %s: %w", m.cfg.Name, m.cfg.PinB, err)
	}
	return nil
}

// scale maps a duty in resolution units onto periph's 24-bit duty range.
func (m *Motor) scale(d uint16) gpio.Duty {
	return gpio.Duty(int64(d) * int64(gpio.DutyMax) / int64(m.max))
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
