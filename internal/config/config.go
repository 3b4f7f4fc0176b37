package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/nizalia829/roller-coaster-builder/internal/camera"
	"github.com/nizalia829/roller-coaster-builder/internal/engine"
	"github.com/nizalia829/roller-coaster-builder/internal/ride"
	"github.com/nizalia829/roller-coaster-builder/internal/track"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// FileName is the config file looked up in the config directory.
const FileName = "coaster.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the embedded sqlite backend. An empty
// path keeps the database in memory and dumps it periodically.
type SQLiteConfig struct {
	Path         string
	DumpPath     string
	DumpInterval time.Duration
}

// PostgresConfig holds connection settings for the postgres backend.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// InfluxConfig holds settings for the InfluxDB backend.
type InfluxConfig struct {
	Protocol  string
	Host      string
	Port      string
	Token     string
	Org       string
	Bucket    string
	BackupDir string
}

// WebSocketConfig holds settings for the live telemetry stream.
type WebSocketConfig struct {
	URL    string
	Secret string
}

// StorageConfig selects and configures the telemetry backend.
type StorageConfig struct {
	Type      string // memory, sqlite, postgres, influx, websocket or none
	Memory    MemoryConfig
	SQLite    SQLiteConfig
	Postgres  PostgresConfig
	Influx    InfluxConfig
	WebSocket WebSocketConfig
}

// OTelConfig holds OpenTelemetry export settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GeoConfig anchors the local track frame on the globe for rail export.
type GeoConfig struct {
	Anchored  bool // place the rail at Longitude/Latitude in WGS84
	Longitude float64
	Latitude  float64
	Samples   int
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers the default value of every key. Load calls it; the
// CLI calls it directly when no config file is present.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./coasterlogs")

	viper.SetDefault("ride.gravity", 9.81)
	viper.SetDefault("ride.chainSpeed", 4.0)
	viper.SetDefault("ride.minSpeed", 2.0)
	viper.SetDefault("ride.maxStep", 0.5)
	viper.SetDefault("ride.speedMultiplier", 1.0)
	viper.SetDefault("ride.chainLift", false)
	viper.SetDefault("ride.telemetryEvery", 1)
	viper.SetDefault("ride.railSamples", 256)

	viper.SetDefault("camera.height", 1.2)
	viper.SetDefault("camera.smoothing", 0.15)
	viper.SetDefault("camera.baseFov", 70.0)
	viper.SetDefault("camera.maxExtraFov", 25.0)
	viper.SetDefault("camera.maxPitch", 20.0)

	viper.SetDefault("track.splineSamples", 32)
	viper.SetDefault("track.loopSamples", 96)
	viper.SetDefault("track.peakSamples", 200)
	viper.SetDefault("track.peakRise", 0.05)

	viper.SetDefault("loop.radius", 8.0)
	viper.SetDefault("loop.pitch", 4.0)
	viper.SetDefault("loop.lateral", 1.5)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./rides")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./rides/rides.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "coaster")
	viper.SetDefault("storage.postgres.sslMode", "disable")
	viper.SetDefault("storage.influx.protocol", "http")
	viper.SetDefault("storage.influx.host", "localhost")
	viper.SetDefault("storage.influx.port", "8086")
	viper.SetDefault("storage.influx.token", "supersecrettoken")
	viper.SetDefault("storage.influx.org", "coaster")
	viper.SetDefault("storage.influx.bucket", "rides")
	viper.SetDefault("storage.influx.backupDir", "./rides")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/ws/telemetry")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "coaster")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("geo.anchored", false)
	viper.SetDefault("geo.longitude", 0.0)
	viper.SetDefault("geo.latitude", 0.0)
	viper.SetDefault("geo.samples", 256)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetRideConfig returns the integrator settings.
func GetRideConfig() ride.Config {
	return ride.Config{
		Gravity:    viper.GetFloat64("ride.gravity"),
		ChainSpeed: viper.GetFloat64("ride.chainSpeed"),
		MinSpeed:   viper.GetFloat64("ride.minSpeed"),
		MaxStep:    viper.GetFloat64("ride.maxStep"),
	}
}

// GetCameraConfig returns the rider camera settings.
func GetCameraConfig() camera.Config {
	return camera.Config{
		Height:      viper.GetFloat64("camera.height"),
		Smoothing:   viper.GetFloat64("camera.smoothing"),
		BaseFOV:     viper.GetFloat64("camera.baseFov"),
		MaxExtraFOV: viper.GetFloat64("camera.maxExtraFov"),
		MaxPitch:    viper.GetFloat64("camera.maxPitch"),
	}
}

// GetTrackConfig returns the track builder settings.
func GetTrackConfig() track.Config {
	return track.Config{
		SplineSamples: viper.GetInt("track.splineSamples"),
		LoopSamples:   viper.GetInt("track.loopSamples"),
		PeakSamples:   viper.GetInt("track.peakSamples"),
		PeakRise:      viper.GetFloat64("track.peakRise"),
	}
}

// GetLoopDefaults returns the loop shape used when a command omits it.
func GetLoopDefaults() core.LoopSpec {
	return core.LoopSpec{
		Radius:  viper.GetFloat64("loop.radius"),
		Pitch:   viper.GetFloat64("loop.pitch"),
		Lateral: viper.GetFloat64("loop.lateral"),
	}
}

// GetEngineConfig assembles the full engine configuration.
func GetEngineConfig() engine.Config {
	return engine.Config{
		Track:          GetTrackConfig(),
		Ride:           GetRideConfig(),
		Camera:         GetCameraConfig(),
		DefaultLoop:    GetLoopDefaults(),
		RailSamples:    viper.GetInt("ride.railSamples"),
		TelemetryEvery: viper.GetInt("ride.telemetryEvery"),
	}
}

// GetStorageConfig returns the telemetry storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
			SSLMode:  viper.GetString("storage.postgres.sslMode"),
		},
		Influx: InfluxConfig{
			Protocol:  viper.GetString("storage.influx.protocol"),
			Host:      viper.GetString("storage.influx.host"),
			Port:      viper.GetString("storage.influx.port"),
			Token:     viper.GetString("storage.influx.token"),
			Org:       viper.GetString("storage.influx.org"),
			Bucket:    viper.GetString("storage.influx.bucket"),
			BackupDir: viper.GetString("storage.influx.backupDir"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGeoConfig returns the rail export anchor.
func GetGeoConfig() GeoConfig {
	return GeoConfig{
		Anchored:  viper.GetBool("geo.anchored"),
		Longitude: viper.GetFloat64("geo.longitude"),
		Latitude:  viper.GetFloat64("geo.latitude"),
		Samples:   viper.GetInt("geo.samples"),
	}
}
