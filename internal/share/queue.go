// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package share

import (
	"context"
	"errors"
)

// ErrInvalidCapacity is returned by NewQueue for a capacity below one.
var ErrInvalidCapacity = errors.New("share: queue capacity must be at least 1")

// Queue is a bounded FIFO between one or more producers and consumers.
type Queue[T any] struct {
	ch chan T
}

// NewQueue returns a queue holding at most capacity values.
func NewQueue[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Queue[T]{ch: make(chan T, capacity)}, nil
}

// Put waits for space and enqueues v. It returns ctx.Err() if the context
// ends first.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut enqueues v if there is room and reports whether it did.
func (q *Queue[T]) TryPut(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Get waits for the oldest value.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Len is the number of values waiting.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap is the capacity the queue was created with.
func (q *Queue[T]) Cap() int { return cap(q.ch) }
