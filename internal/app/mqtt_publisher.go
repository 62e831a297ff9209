// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/camera_gimbal/internal/telemetry"
)

const mqttPublishTimeout = 250 * time.Millisecond

// mqttPublisher is the part of mqtt.Client the telemetry sink needs.
type mqttPublisher interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes every snapshot retained on the telemetry topic and the
// bare pitch on its own topic.
type MQTTSink struct {
	client         mqttPublisher
	topicTelemetry string
	topicPitch     string
}

// NewMQTTSink wraps a connected client.
func NewMQTTSink(client mqttPublisher, topicTelemetry, topicPitch string) *MQTTSink {
	return &MQTTSink{client: client, topicTelemetry: topicTelemetry, topicPitch: topicPitch}
}

func newMQTTClient(broker, clientID string) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	return mqtt.NewClient(opts)
}

// ConnectMQTT connects to the broker, waiting at most 5s before leaving the
// retry to paho.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	client := newMQTTClient(broker, clientID)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		log.Warnf("mqtt: broker %s not reachable yet, retrying in background", broker)
		return client, nil
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Printf("mqtt: connected to broker at %s as %s", broker, clientID)
	return client, nil
}

type mqttConnector interface {
	Connect() mqtt.Token
}

// connectInBackground starts connecting and returns once the connection is
// up, has failed, or ctx ends. The sink drops snapshots until then.
func connectInBackground(ctx context.Context, client mqttConnector, broker string) {
	log.Printf("mqtt: connecting to %s", broker)
	token := client.Connect()
	select {
	case <-ctx.Done():
		return
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		log.Warnf("mqtt: telemetry disabled: %v", err)
		return
	}
	log.Printf("mqtt: connected to broker at %s", broker)
}

func (m *MQTTSink) Name() string { return "mqtt" }

func (m *MQTTSink) Publish(s telemetry.Snapshot) error {
	if !m.client.IsConnectionOpen() {
		// paho keeps reconnecting in the background
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json marshal error (telemetry): %w", err)
	}
	if err := m.send(m.topicTelemetry, payload); err != nil {
		return err
	}
	return m.send(m.topicPitch, []byte(strconv.Itoa(int(s.Pitch))))
}

func (m *MQTTSink) send(topic string, payload []byte) error {
	token := m.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("MQTT publish timeout (%s)", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, err)
	}
	return nil
}
