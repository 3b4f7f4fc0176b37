// Package gormstorage implements storage.Backend on top of a gorm
// connection. Samples are buffered and inserted in batches.
package gormstorage

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nizalia829/roller-coaster-builder/internal/model"
	"github.com/nizalia829/roller-coaster-builder/internal/model/convert"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// DefaultBatchSize is the number of samples buffered before an insert.
const DefaultBatchSize = 500

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB        *gorm.DB
	Logger    zerolog.Logger
	BatchSize int
}

// Backend writes ride sessions and samples through gorm.
type Backend struct {
	db        *gorm.DB
	log       zerolog.Logger
	batchSize int

	mu      sync.Mutex
	pending []model.RideSample
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	size := deps.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Backend{
		db:        deps.DB,
		log:       deps.Logger,
		batchSize: size,
		pending:   make([]model.RideSample, 0, size),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the ride tables.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close writes any buffered samples and closes the connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	err := b.flushLocked()
	b.mu.Unlock()

	if b.db == nil {
		return err
	}
	sqlDB, dbErr := b.db.DB()
	if dbErr != nil {
		return fmt.Errorf("failed to access sql interface: %w", dbErr)
	}
	if cerr := sqlDB.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// StartSession inserts the session row.
func (b *Backend) StartSession(s *core.RideSession) error {
	row, err := convert.SessionToModel(s)
	if err != nil {
		return err
	}
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session %s: %w", s.ID, err)
	}
	b.log.Debug().Str("session", s.ID).Msg("Session stored")
	return nil
}

// RecordSample buffers a sample and inserts the batch when full.
func (b *Backend) RecordSample(s *core.RideSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, convert.SampleToModel(s))
	if len(b.pending) < b.batchSize {
		return nil
	}
	return b.flushLocked()
}

// summaryColumns are the session fields known only once a ride ends.
var summaryColumns = []string{"end_time", "end_state", "ticks", "laps", "top_speed", "duration"}

// EndSession writes buffered samples and upserts the session summary, so a
// session whose start row was lost is still recorded.
func (b *Backend) EndSession(s *core.RideSession) error {
	b.mu.Lock()
	err := b.flushLocked()
	b.mu.Unlock()
	if err != nil {
		return err
	}

	row, err := convert.SessionToModel(s)
	if err != nil {
		return err
	}
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(summaryColumns),
	}
	if err := b.db.Omit("Samples").Clauses(upsert).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to update session %s: %w", s.ID, err)
	}
	b.log.Info().Str("session", s.ID).Uint("ticks", s.Ticks).Int("laps", s.Laps).Msg("Session finalized")
	return nil
}

// Flush writes buffered samples now.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *Backend) flushLocked() error {
	if len(b.pending) == 0 || b.db == nil {
		return nil
	}
	batch := b.pending
	b.pending = make([]model.RideSample, 0, b.batchSize)
	if err := b.db.CreateInBatches(batch, b.batchSize).Error; err != nil {
		b.log.Error().Err(err).Int("samples", len(batch)).Msg("Failed to insert samples")
		return fmt.Errorf("failed to insert %d samples: %w", len(batch), err)
	}
	return nil
}

// Sessions returns every stored session, newest first.
func (b *Backend) Sessions() ([]core.RideSession, error) {
	var rows []model.RideSession
	if err := b.db.Order("start_time desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]core.RideSession, 0, len(rows))
	for _, row := range rows {
		s, err := convert.SessionToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Samples returns the stored samples of a session in tick order.
func (b *Backend) Samples(sessionID string) ([]core.RideSample, error) {
	var rows []model.RideSample
	if err := b.db.Where("session_id = ?", sessionID).Order("tick").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	out := make([]core.RideSample, len(rows))
	for i, row := range rows {
		out[i] = convert.SampleToCore(row)
	}
	return out, nil
}
