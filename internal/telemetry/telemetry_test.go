// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/camera_gimbal/internal/control"
	"github.com/relabs-tech/camera_gimbal/internal/share"
)

func TestDrainFansOutAndSurvivesFailingSink(t *testing.T) {
	q, err := share.NewQueue[Snapshot](4)
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got []int16
	)
	failing := SinkFunc{Label: "broken", Fn: func(Snapshot) error { return errors.New("down") }}
	good := SinkFunc{Label: "good", Fn: func(s Snapshot) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s.Pitch)
		return nil
	}}

	require.True(t, q.TryPut(Snapshot{Pitch: 1}))
	require.True(t, q.TryPut(Snapshot{Pitch: 2}))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, Drain(ctx, q, failing, good))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int16{1, 2}, got)
}

func TestSnapshotJSONCarriesStateName(t *testing.T) {
	s := Snapshot{Pitch: -3, Control: control.Status{State: control.StateSpinPositive}}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"state":"SPIN_POSITIVE"`)
	assert.Contains(t, string(b), `"pitch":-3`)
}

func TestLine(t *testing.T) {
	s := Snapshot{
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Pitch:   12,
		Control: control.Status{State: control.StateIdle, Error: -12},
	}
	assert.Equal(t, "03:04:05.000 pitch=12 roll=0 gyro_roll=0.0 state=IDLE error=-12 effort=0 drive=0/0", s.Line())
}
