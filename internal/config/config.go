package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Save backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	SaveDir     string `env:"DONJON_SAVE_DIR" envDefault:"saves"`
	SaveBackend string `env:"DONJON_SAVE_BACKEND" envDefault:"file"`
	// SaveDB is the SQLite file; empty means saves.db inside SaveDir.
	SaveDB  string `env:"DONJON_SAVE_DB"`
	DataDir string `env:"DONJON_DATA_DIR"`
	Seed    int64  `env:"DONJON_SEED"`
	Lang    string `env:"DONJON_LANG" envDefault:"en"`
	LogFile string `env:"DONJON_LOG_FILE"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SaveBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("DONJON_SAVE_BACKEND %q: want %s or %s", c.SaveBackend, BackendFile, BackendSQLite)
	}
	if c.SaveDir == "" {
		return fmt.Errorf("DONJON_SAVE_DIR is empty")
	}
	if _, err := language.Parse(c.Lang); err != nil {
		return fmt.Errorf("DONJON_LANG %q: %w", c.Lang, err)
	}
	return nil
}

// DBPath returns the SQLite database used by the sqlite backend.
func (c *Config) DBPath() string {
	if c.SaveDB != "" {
		return c.SaveDB
	}
	return filepath.Join(c.SaveDir, "saves.db")
}

// Language returns the tag used to format numbers on screen.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Lang)
	if err != nil {
		return language.English
	}
	return tag
}

// Chronicle reports whether epilogues can be requested.
func (c *Config) Chronicle() bool {
	return c.GeminiAPIKey != ""
}
