// Package websocket streams ride telemetry to a live viewer over a
// WebSocket. Session start and end wait for the viewer's ack; samples are
// fire-and-forget.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
	"github.com/nizalia829/roller-coaster-builder/pkg/streaming"
)

// Backend streams telemetry over WebSocket. It implements storage.Backend
// but not storage.Exporter.
type Backend struct {
	conn *connection
	cfg  config.WebSocketConfig
}

// New creates a new WebSocket storage backend. A nil logger uses
// slog.Default.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("backend", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the viewer.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the viewer.
func (b *Backend) Close() error {
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartSession sends the session with its geometry and waits for the ack.
func (b *Backend) StartSession(s *core.RideSession) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.NewSessionPayload(s, true))
	if err != nil {
		return err
	}
	b.conn.setReplay(data)
	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// RecordSample queues a sample.
func (b *Backend) RecordSample(s *core.RideSample) error {
	data, err := marshalEnvelope(streaming.TypeSample, streaming.NewSamplePayload(s))
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// EndSession sends the summary and waits for the ack.
func (b *Backend) EndSession(s *core.RideSession) error {
	data, err := marshalEnvelope(streaming.TypeEndSession, streaming.NewSessionPayload(s, false))
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
	b.conn.setReplay(nil)
	return err
}
