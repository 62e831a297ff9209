// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package share holds the primitives goroutines use to hand values to each
// other: a single-slot Cell for "latest value" semantics and a bounded Queue.
package share

import "sync/atomic"

// Cell holds the most recent value written by a producer.
// Put overwrites, Get never blocks and never observes a partial write.
// Before the first Put, Get returns the zero value of T.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// NewCell returns an empty cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{}
}

// Put stores v, replacing whatever was there.
func (c *Cell[T]) Put(v T) {
	c.p.Store(&v)
}

// Get returns the latest value, or the zero value if nothing was stored yet.
func (c *Cell[T]) Get() T {
	v, _ := c.Load()
	return v
}

// Load is Get with a flag reporting whether a value has ever been stored.
func (c *Cell[T]) Load() (T, bool) {
	p := c.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
