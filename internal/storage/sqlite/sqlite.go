// Package sqlitestorage records ride telemetry in SQLite. With no file path
// the database lives in memory and a snapshot is written to the dump path
// on an interval and again on close.
package sqlitestorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/database"
	gormstorage "github.com/nizalia829/roller-coaster-builder/internal/storage/gorm"
)

type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     config.SQLiteConfig
	log     zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg config.SQLiteConfig, log zerolog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, err
	}
	manager, err := database.NewManager(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log}),
		manager: manager,
		cfg:     cfg,
		log:     log,
	}, nil
}

// snapshots reports whether the database is in memory with somewhere to
// persist it.
func (b *Backend) snapshots() bool {
	return b.cfg.Path == "" && b.cfg.DumpPath != ""
}

// Init migrates and, for an in-memory database, starts periodic snapshots.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if !b.snapshots() || b.cfg.DumpInterval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.cfg.DumpInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := b.manager.Snapshot(b.cfg.DumpPath); err != nil {
					b.log.Error().Err(err).Msg("Periodic snapshot failed")
				}
			}
		}
	}()
	return nil
}

// Close stops the snapshot loop, writes buffered samples, takes a final
// snapshot and closes the database.
func (b *Backend) Close() error {
	if b.cancel != nil {
		b.cancel()
		b.wg.Wait()
	}
	if err := b.Backend.Flush(); err != nil {
		return err
	}
	if b.snapshots() {
		if err := b.manager.Snapshot(b.cfg.DumpPath); err != nil {
			return err
		}
	}
	return b.Backend.Close()
}
