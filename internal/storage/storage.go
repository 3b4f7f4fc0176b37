// Package storage records ride telemetry. Backends receive sessions and
// samples from the engine's telemetry events through Handler.
package storage

import (
	"fmt"

	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management. EndSession receives the completed summary.
	StartSession(s *core.RideSession) error
	EndSession(s *core.RideSession) error

	// State recording
	RecordSample(s *core.RideSample) error
}

// Exporter is an optional interface for backends that write one file per
// session.
type Exporter interface {
	ExportedFilePath() string
}

// Reader is an optional interface for backends that can read back what
// they stored.
type Reader interface {
	Sessions() ([]core.RideSession, error)
	Samples(sessionID string) ([]core.RideSample, error)
}

// Handler adapts a backend to the engine's telemetry command. Register it
// buffered so ticks never wait on storage I/O.
func Handler(b Backend) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		t, ok := e.Payload.(core.Telemetry)
		if !ok {
			return nil, fmt.Errorf("unexpected telemetry payload %T", e.Payload)
		}

		switch t.Kind {
		case core.TelemetryStart:
			if t.Session == nil {
				return nil, fmt.Errorf("start telemetry without session")
			}
			return nil, b.StartSession(t.Session)
		case core.TelemetrySample:
			if t.Sample == nil {
				return nil, fmt.Errorf("sample telemetry without sample")
			}
			return nil, b.RecordSample(t.Sample)
		case core.TelemetryEnd:
			if t.Session == nil {
				return nil, fmt.Errorf("end telemetry without session")
			}
			return nil, b.EndSession(t.Session)
		default:
			return nil, fmt.Errorf("unknown telemetry kind %q", t.Kind)
		}
	}
}

// Nop discards all telemetry.
type Nop struct{}

func (Nop) Init() error                          { return nil }
func (Nop) Close() error                         { return nil }
func (Nop) StartSession(*core.RideSession) error { return nil }
func (Nop) EndSession(*core.RideSession) error   { return nil }
func (Nop) RecordSample(*core.RideSample) error  { return nil }
