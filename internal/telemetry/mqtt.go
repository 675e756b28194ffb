// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/i2c_bug/internal/heartbeat"
)

// publishTimeout bounds how long a heartbeat may wait on the broker.
// The polling loop must not stall behind a slow network.
const publishTimeout = 50 * time.Millisecond

// HeartbeatPublisher mirrors heartbeats to an MQTT topic.
type HeartbeatPublisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials broker and returns a publisher for topic.
func Connect(broker, clientID, topic string) (*HeartbeatPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)

	return NewHeartbeatPublisher(client, topic), nil
}

// NewHeartbeatPublisher wraps an already connected client.
func NewHeartbeatPublisher(client mqtt.Client, topic string) *HeartbeatPublisher {
	return &HeartbeatPublisher{client: client, topic: topic}
}

// PublishBeat implements heartbeat.Publisher.
func (p *HeartbeatPublisher) PublishBeat(b heartbeat.Beat) error {
	payload, err := encodeBeat(b)
	if err != nil {
		return fmt.Errorf("json marshal error (heartbeat): %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("MQTT publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", p.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *HeartbeatPublisher) Close() {
	p.client.Disconnect(250)
}

type beatPayload struct {
	Seconds       uint   `json:"seconds"`
	RefreshErrors uint64 `json:"refresh_errors"`
	Time          string `json:"time"`
}

func encodeBeat(b heartbeat.Beat) ([]byte, error) {
	return json.Marshal(beatPayload{
		Seconds:       b.Seconds,
		RefreshErrors: b.RefreshErrors,
		Time:          b.Time.Format(time.RFC3339),
	})
}
