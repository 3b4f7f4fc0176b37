package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizalia829/roller-coaster-builder/internal/config"
	"github.com/nizalia829/roller-coaster-builder/internal/model"
)

func memoryManager(t *testing.T) *Manager {
	t.Helper()
	db, err := OpenSQLite("")
	require.NoError(t, err)
	m, err := NewManager(db, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.PostgresConfig{Host: "db", Port: "5432", Username: "ops", Password: "pw", Database: "rides"}
	assert.Equal(t, "host=db port=5432 user=ops password=pw dbname=rides sslmode=disable", PostgresDSN(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, PostgresDSN(cfg), "sslmode=require")
}

func TestMigrate(t *testing.T) {
	m := memoryManager(t)
	require.NoError(t, m.Migrate())
	assert.True(t, m.DB.Migrator().HasTable(&model.RideSession{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.RideSample{}))
	assert.True(t, m.DB.Migrator().HasIndex(&model.RideSample{}, "idx_ridesample_session_tick"))
}

func TestSnapshot(t *testing.T) {
	m := memoryManager(t)
	require.NoError(t, m.Migrate())
	require.NoError(t, m.DB.Create(&model.RideSession{ID: "abc"}).Error)

	path := filepath.Join(t.TempDir(), "rides.db")
	require.NoError(t, m.Snapshot(path))
	require.NoError(t, m.DB.Create(&model.RideSession{ID: "def"}).Error)
	require.NoError(t, m.Snapshot(path), "replaces the earlier snapshot")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	disk, err := NewManager(db, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = disk.Close() })

	var count int64
	require.NoError(t, disk.DB.Model(&model.RideSession{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSnapshot_NoPath(t *testing.T) {
	assert.Error(t, memoryManager(t).Snapshot(""))
}
