// Package config handles configuration loading, validation, and hot reload
// for integrityd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"integrityd/internal/calibration"
	"integrityd/internal/detectors"
	"integrityd/internal/screenwatch"
)

// Version is the current configuration schema version.
const Version = 1

// APIKeyEnv is the environment variable holding the external classifier's
// API key. Its absence is a normal, handled condition: every classification
// resolves through the local heuristic instead.
const APIKeyEnv = "INTEGRITYD_CLASSIFIER_API_KEY"

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Server configuration for the HTTP API.
	Server ServerConfig `toml:"server" json:"server" yaml:"server"`

	// Detectors holds the anomaly bank thresholds.
	Detectors detectors.Thresholds `toml:"detectors" json:"detectors" yaml:"detectors"`

	// Calibration holds the baseline comparison tolerances.
	Calibration CalibrationConfig `toml:"calibration" json:"calibration" yaml:"calibration"`

	// Classifier configures the external AI-text provider.
	Classifier ClassifierConfig `toml:"classifier" json:"classifier" yaml:"classifier"`

	// Screen configures the screen-activity blocklists.
	Screen screenwatch.Config `toml:"screen" json:"screen" yaml:"screen"`

	// Storage configures the submission archive.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr" json:"addr" yaml:"addr"`

	// ReadTimeoutSec and WriteTimeoutSec bound request handling.
	ReadTimeoutSec  int `toml:"read_timeout_sec" json:"read_timeout_sec" yaml:"read_timeout_sec"`
	WriteTimeoutSec int `toml:"write_timeout_sec" json:"write_timeout_sec" yaml:"write_timeout_sec"`

	// MaxBodyBytes caps the request body size.
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes" yaml:"max_body_bytes"`
}

// CalibrationConfig mirrors calibration.Tolerances with file tags.
type CalibrationConfig struct {
	SpeedCPM     float64 `toml:"speed_cpm" json:"speed_cpm" yaml:"speed_cpm"`
	Rhythm       float64 `toml:"rhythm" json:"rhythm" yaml:"rhythm"`
	PauseFreq    float64 `toml:"pause_freq" json:"pause_freq" yaml:"pause_freq"`
	DeletionRate float64 `toml:"deletion_rate" json:"deletion_rate" yaml:"deletion_rate"`
	DwellCV      float64 `toml:"dwell_cv" json:"dwell_cv" yaml:"dwell_cv"`
	FlightCV     float64 `toml:"flight_cv" json:"flight_cv" yaml:"flight_cv"`
}

// Tolerances converts to the calibration package's type.
func (c CalibrationConfig) Tolerances() calibration.Tolerances {
	return calibration.Tolerances{
		SpeedCPM:     c.SpeedCPM,
		Rhythm:       c.Rhythm,
		PauseFreq:    c.PauseFreq,
		DeletionRate: c.DeletionRate,
		DwellCV:      c.DwellCV,
		FlightCV:     c.FlightCV,
	}
}

// ClassifierConfig holds external classifier settings. The API key itself
// always comes from the environment, never from the file.
type ClassifierConfig struct {
	Endpoint          string  `toml:"endpoint" json:"endpoint" yaml:"endpoint"`
	Version           string  `toml:"version" json:"version" yaml:"version"`
	TimeoutSec        int     `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
}

// Timeout returns the configured timeout as a duration.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// StorageConfig holds archive settings.
type StorageConfig struct {
	// Enabled turns the submission archive on.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the SQLite database path.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	tol := calibration.DefaultTolerances()
	return &Config{
		Version: Version,
		Server: ServerConfig{
			Addr:            ":8731",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
			MaxBodyBytes:    8 << 20,
		},
		Detectors: detectors.DefaultThresholds(),
		Calibration: CalibrationConfig{
			SpeedCPM:     tol.SpeedCPM,
			Rhythm:       tol.Rhythm,
			PauseFreq:    tol.PauseFreq,
			DeletionRate: tol.DeletionRate,
			DwellCV:      tol.DwellCV,
			FlightCV:     tol.FlightCV,
		},
		Classifier: ClassifierConfig{
			Endpoint:          "https://api.gptzero.me/v2/predict/text",
			Version:           "2024-01-09",
			TimeoutSec:        10,
			RequestsPerSecond: 2,
		},
		Screen: screenwatch.DefaultConfig(),
		Storage: StorageConfig{
			Enabled: true,
			Path:    filepath.Join(PlatformDataDir(), "submissions.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// APIKey reads the classifier API key from the environment.
func APIKey() string {
	return os.Getenv(APIKeyEnv)
}

// Validate checks the configuration for coherent values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if err := c.Detectors.Validate(); err != nil {
		return fmt.Errorf("detectors: %w", err)
	}
	if c.Classifier.TimeoutSec <= 0 {
		return errors.New("classifier.timeout_sec must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q not recognized", c.Logging.Format)
	}
	return nil
}

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/integrityd/
//   - Linux:   $XDG_DATA_HOME/integrityd/ or ~/.local/share/integrityd/
//   - Windows: %APPDATA%\integrityd\
func PlatformDataDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "integrityd")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = home
		}
		return filepath.Join(appData, "integrityd")
	default:
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "integrityd")
	}
}
