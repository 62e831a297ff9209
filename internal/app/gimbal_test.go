// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/camera_gimbal/internal/config"
)

type stuckConnector struct {
	token *fakeToken
}

func (s stuckConnector) Connect() mqtt.Token { return s.token }

func TestConnectInBackgroundReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		connectInBackground(ctx, stuckConnector{token: &fakeToken{done: make(chan struct{})}}, "tcp://127.0.0.1:1")
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("connectInBackground ignored cancellation")
	}
}

func logged(hook *logtest.Hook, prefix string) bool {
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, prefix) {
			return true
		}
	}
	return false
}

func TestRunGimbalUnreachableBrokerDoesNotDelayControl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gimbal_config.txt")
	body := strings.Join([]string{
		"MQTT_BROKER=tcp://127.0.0.1:1",
		"WEB_SERVER_PORT=0",
		"CALIBRATION_SETTLE_DELAY=0",
		"IMU_SAMPLE_INTERVAL=10",
		"MOCK_IMU=true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, config.InitGlobal(path))

	hook := logtest.NewGlobal()
	defer hook.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan error, 1)
	start := time.Now()
	go func() { result <- RunGimbal(ctx, true) }()

	require.Eventually(t, func() bool { return logged(hook, "control: loop started") },
		2*time.Second, 10*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second)

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("RunGimbal did not stop after cancel")
	}
	assert.True(t, logged(hook, "control: stopped"))
}
