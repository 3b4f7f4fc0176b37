package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	influxstorage "github.com/nizalia829/roller-coaster-builder/internal/storage/influx"
	"github.com/nizalia829/roller-coaster-builder/internal/storage/memory"
	"github.com/nizalia829/roller-coaster-builder/internal/storage/postgres"
	sqlitestorage "github.com/nizalia829/roller-coaster-builder/internal/storage/sqlite"
	"github.com/nizalia829/roller-coaster-builder/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration. The
// backend is not initialized.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger, slogger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, log.With().Str("backend", "sqlite").Logger())
	case "postgres":
		return postgres.New(cfg.Postgres, log.With().Str("backend", "postgres").Logger())
	case "influx":
		return influxstorage.New(cfg.Influx, log.With().Str("backend", "influx").Logger()), nil
	case "websocket":
		return websocket.New(cfg.WebSocket, slogger), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
