// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New(); Load layers a YAML file and env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Store driver names accepted by StoreDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SampleInterval keeps one frame in every SampleInterval captured frames.
	SampleInterval int `koanf:"sample_interval"`

	// BatchSize flushes the observation buffer once it holds this many records.
	BatchSize int `koanf:"batch_size"`

	// PersistNoFace stores NO_FACE observations alongside detected emotions.
	PersistNoFace bool `koanf:"persist_no_face"`

	// DetectionTimeout bounds a single recognition call.
	DetectionTimeout time.Duration `koanf:"detection_timeout"`

	// StoreDriver selects the record store backend: sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used when StoreDriver is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string used when StoreDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// AWSRegion selects the Rekognition region. Empty disables the AWS
	// detector; the service then requires a remote detector URL.
	AWSRegion string `koanf:"aws_region"`

	// DetectorURL points the remote HTTP detector at a recognition service.
	// Used when AWSRegion is empty.
	DetectorURL string `koanf:"detector_url"`

	// SourceFPS paces the synthetic capture source.
	SourceFPS int `koanf:"source_fps"`

	// SourceDir replays image files from a directory instead of generating
	// synthetic frames.
	SourceDir string `koanf:"source_dir"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":8090",
		SampleInterval:   24,
		BatchSize:        60,
		PersistNoFace:    true,
		DetectionTimeout: 5 * time.Second,
		StoreDriver:      DriverSQLite,
		SQLitePath:       "emotions.db",
		AWSRegion:        "us-east-1",
		SourceFPS:        24,
	}
}
