package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config whose files live under dir. Timers are kept
// short and the search backend is the in-process one.
func TestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:        filepath.Join(dir, "test.db"),
		Timeout:     1 * time.Second,
		SearchIndex: filepath.Join(dir, "index.bleve"),
	}
	cfg.Search.Backend = "simple"
	cfg.Import = ImportConfig{
		HTTPTimeout:  5 * time.Second,
		UserAgent:    "timelines-test/1.0",
		AllowPrivate: true,
	}
	cfg.Log = LogConfig{Level: "OFF", File: filepath.Join(dir, "test.log")}
	return cfg
}
