package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "absent.toml"))
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":8731" {
		t.Errorf("Addr = %q, want default :8731", cfg.Server.Addr)
	}
	if cfg.Detectors.HighSpeedCPM != 200 {
		t.Errorf("HighSpeedCPM = %f, want default 200", cfg.Detectors.HighSpeedCPM)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "integrityd.toml")
	content := `
version = 1

[server]
addr = ":9000"

[detectors]
high_speed_cpm = 220.0
critical_speed_cpm = 330.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Detectors.HighSpeedCPM != 220 {
		t.Errorf("HighSpeedCPM = %f, want 220", cfg.Detectors.HighSpeedCPM)
	}
	// Untouched sections keep their defaults.
	if cfg.Detectors.RhythmConsistency != 0.92 {
		t.Errorf("RhythmConsistency = %f, want default 0.92", cfg.Detectors.RhythmConsistency)
	}
	if cfg.Classifier.Endpoint == "" {
		t.Error("classifier defaults lost during layering")
	}
}

func TestLoadYAMLByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "integrityd.yaml")
	content := `
version: 1
server:
  addr: ":9100"
screen:
  ai_tool_domains:
    - "llm.example.edu"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("Addr = %q, want :9100", cfg.Server.Addr)
	}
	if len(cfg.Screen.AiToolDomains) != 1 || cfg.Screen.AiToolDomains[0] != "llm.example.edu" {
		t.Errorf("AiToolDomains = %v, want the single custom domain", cfg.Screen.AiToolDomains)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	content := `
[detectors]
high_speed_cpm = 300.0
critical_speed_cpm = 200.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() accepted inverted speed thresholds, want error")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte(`server = [broken`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() accepted malformed TOML, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty_addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"zero_body_limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, true},
		{"bad_log_level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad_log_format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"zero_classifier_timeout", func(c *Config) { c.Classifier.TimeoutSec = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTolerancesConversion(t *testing.T) {
	cfg := DefaultConfig()
	tol := cfg.Calibration.Tolerances()
	if tol.SpeedCPM != 25 || tol.Rhythm != 0.15 {
		t.Errorf("Tolerances() = %+v, want documented defaults", tol)
	}
}
