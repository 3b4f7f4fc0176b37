// Package postgres implements the storage.Backend interface on PostgreSQL
// through the shared GORM backend.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/database"
	gormstorage "github.com/nizalia829/roller-coaster-builder/internal/storage/gorm"
)

// Backend records ride telemetry in Postgres.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects to Postgres. The connection is verified before returning.
func New(cfg config.PostgresConfig, log zerolog.Logger) (*Backend, error) {
	db, err := database.OpenPostgres(cfg)
	if err != nil {
		return nil, err
	}
	manager, err := database.NewManager(db, log.With().Str("host", cfg.Host).Str("database", cfg.Database).Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: manager.DB, Logger: log}),
		manager: manager,
	}, nil
}

// Init migrates the schema through the database manager.
func (b *Backend) Init() error {
	return b.manager.Migrate()
}
