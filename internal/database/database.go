// Package database opens the GORM connections behind the SQL telemetry
// backends and owns schema migration and SQLite snapshots.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/model"
)

// MemoryDSN selects a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// sqlitePragmas trade durability for insert speed; a ride can be replayed
// from its track file.
var sqlitePragmas = []string{
	"PRAGMA user_version = 1",
	"PRAGMA journal_mode = MEMORY",
	"PRAGMA synchronous = OFF",
	"PRAGMA cache_size = -32000",
	"PRAGMA temp_store = MEMORY",
}

func open(d gorm.Dialector, batch int) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batch,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// PostgresDSN builds a keyword/value connection string. SSL is off unless
// configured.
func PostgresDSN(cfg config.PostgresConfig) string {
	parts := []string{
		"host=" + cfg.Host,
		"port=" + cfg.Port,
		"user=" + cfg.Username,
		"password=" + cfg.Password,
		"dbname=" + cfg.Database,
		"sslmode=" + cmpOr(cfg.SSLMode, "disable"),
	}
	return strings.Join(parts, " ")
}

func cmpOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// OpenPostgres opens a pooled Postgres connection without pinging it.
func OpenPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), 10000)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens the database file at path, or a private in-memory
// database when path is empty. An in-memory database is pinned to one
// connection so every query sees the same data.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := cmpOr(path, MemoryDSN)
	db, err := open(sqlite.Open(dsn), 2000)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	if dsn == MemoryDSN {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return db, nil
}

// Manager wraps a verified connection.
type Manager struct {
	DB    *gorm.DB
	sqlDB *sql.DB
	log   zerolog.Logger
}

// NewManager pings db and takes ownership of its pool.
func NewManager(db *gorm.DB, log zerolog.Logger) (*Manager, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	log.Debug().Str("dialect", db.Dialector.Name()).Msg("Database connected")
	return &Manager{DB: db, sqlDB: sqlDB, log: log}, nil
}

// Migrate creates or updates the ride tables.
func (m *Manager) Migrate() error {
	start := time.Now()
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	m.log.Info().Dur("duration", time.Since(start)).Msg("Schema migrated")
	return nil
}

// Snapshot writes a consistent copy of a SQLite database to path with
// VACUUM INTO, replacing an earlier snapshot.
func (m *Manager) Snapshot(path string) error {
	if path == "" {
		return errors.New("snapshot path not set")
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove previous snapshot: %w", err)
	}

	start := time.Now()
	target := strings.ReplaceAll(path, "'", "''")
	if err := m.DB.Exec("VACUUM INTO '" + target + "'").Error; err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	m.log.Debug().Dur("duration", time.Since(start)).Str("path", path).Msg("Database snapshot written")
	return nil
}

// Close releases the pool.
func (m *Manager) Close() error {
	return m.sqlDB.Close()
}
