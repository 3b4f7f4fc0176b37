// Package memory keeps ride telemetry in memory and exports one JSON
// document per session when it ends.
package memory

import (
	"fmt"
	"sync"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// SessionRecord groups a session with all its samples
type SessionRecord struct {
	Session core.RideSession
	Samples []core.RideSample
}

// Backend stores ride telemetry in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig

	sessions       map[string]*SessionRecord // keyed by session ID
	lastExportPath string

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		sessions: make(map[string]*SessionRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close drops sessions that never ended.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = make(map[string]*SessionRecord)
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.RideSession) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[s.ID] = &SessionRecord{
		Session: *s,
		Samples: make([]core.RideSample, 0, 256),
	}
	return nil
}

// RecordSample appends a tick to its session
func (b *Backend) RecordSample(s *core.RideSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.sessions[s.SessionID]
	if !ok {
		return fmt.Errorf("unknown session %q", s.SessionID)
	}
	record.Samples = append(record.Samples, *s)
	return nil
}

// EndSession stores the summary, exports the session and forgets it
func (b *Backend) EndSession(s *core.RideSession) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.sessions[s.ID]
	if !ok {
		return fmt.Errorf("unknown session %q", s.ID)
	}
	record.Session = *s
	delete(b.sessions, s.ID)

	return b.exportJSON(record)
}

// Session returns a copy of a session still being recorded.
func (b *Backend) Session(id string) (SessionRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.sessions[id]
	if !ok {
		return SessionRecord{}, false
	}
	return SessionRecord{
		Session: record.Session,
		Samples: append([]core.RideSample(nil), record.Samples...),
	}, true
}

// ExportedFilePath returns the path of the last exported session file.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
