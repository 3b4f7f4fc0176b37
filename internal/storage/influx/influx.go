// Package influxstorage writes ride telemetry as InfluxDB points.
package influxstorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/influx"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

const connectTimeout = 10 * time.Second

// Backend streams samples to an influx.Manager.
type Backend struct {
	manager *influx.Manager

	mu       sync.Mutex
	sessions map[string]*core.RideSession
}

// New creates an InfluxDB backend. Init connects.
func New(cfg config.InfluxConfig, log zerolog.Logger) *Backend {
	return &Backend{
		manager:  influx.NewManager(log, cfg),
		sessions: make(map[string]*core.RideSession),
	}
}

// Manager exposes the underlying connection.
func (b *Backend) Manager() *influx.Manager {
	return b.manager
}

func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return b.manager.Connect(ctx)
}

func (b *Backend) Close() error {
	return b.manager.Close()
}

// StartSession remembers the session; samples are timestamped from its
// start time.
func (b *Backend) StartSession(s *core.RideSession) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *s
	b.sessions[s.ID] = &cp
	return nil
}

func (b *Backend) RecordSample(s *core.RideSample) error {
	b.mu.Lock()
	session, ok := b.sessions[s.SessionID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown session %q", s.SessionID)
	}
	return b.manager.WritePoint(influx.SamplePoint(s, session))
}

// EndSession writes the summary point and flushes.
func (b *Backend) EndSession(s *core.RideSession) error {
	b.mu.Lock()
	delete(b.sessions, s.ID)
	b.mu.Unlock()

	if err := b.manager.WritePoint(influx.SessionPoint(s)); err != nil {
		return err
	}
	return b.manager.Flush()
}
