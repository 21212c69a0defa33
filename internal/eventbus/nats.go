/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus bridges the in-process event bus onto NATS so other
// instances and external consumers see lineup mutations.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/mimir_guide/internal/events"
)

const subjectPrefix = "mimir.events."

// envelope is the wire form of a published event.
type envelope struct {
	Type        string         `json:"type"`
	NodeID      string         `json:"node_id,omitempty"`
	PublishedAt time.Time      `json:"published_at"`
	Payload     events.Payload `json:"payload"`
}

// NATSBus fans events out locally and, when a NATS URL is configured,
// mirrors every publish onto a NATS subject.
type NATSBus struct {
	conn   *nats.Conn
	local  *events.Bus
	nodeID string
	logger zerolog.Logger
}

// NewNATSBus connects to NATS. An empty URL yields a purely in-process bus.
func NewNATSBus(natsURL, nodeID string, logger zerolog.Logger) (*NATSBus, error) {
	bus := &NATSBus{
		local:  events.NewBus(),
		nodeID: nodeID,
		logger: logger.With().Str("component", "eventbus").Logger(),
	}

	if natsURL == "" {
		bus.logger.Debug().Msg("no NATS URL configured, events stay in-process")
		return bus, nil
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("mimir-guide"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", natsURL, err)
	}

	bus.conn = conn
	bus.logger.Info().Str("url", natsURL).Msg("connected to NATS")
	return bus, nil
}

// Subscribe registers an in-process subscriber for an event type.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	return nb.local.Subscribe(eventType)
}

// Unsubscribe removes an in-process subscriber.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.local.Unsubscribe(eventType, sub)
}

// Publish delivers the event locally and mirrors it to NATS when connected.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.local.Publish(eventType, payload)

	if nb.conn == nil {
		return
	}

	data, err := json.Marshal(envelope{
		Type:        string(eventType),
		NodeID:      nb.nodeID,
		PublishedAt: time.Now().UTC(),
		Payload:     payload,
	})
	if err != nil {
		nb.logger.Error().Err(err).Str("event", string(eventType)).Msg("failed to marshal event envelope")
		return
	}

	if err := nb.conn.Publish(subjectPrefix+string(eventType), data); err != nil {
		nb.logger.Warn().Err(err).Str("event", string(eventType)).Msg("failed to publish event to NATS")
	}
}

// Close drains the NATS connection.
func (nb *NATSBus) Close() error {
	if nb.conn == nil {
		return nil
	}
	return nb.conn.Drain()
}
