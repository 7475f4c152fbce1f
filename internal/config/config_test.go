package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"DONJON_SAVE_DIR", "DONJON_SAVE_BACKEND", "DONJON_SAVE_DB", "DONJON_DATA_DIR",
		"DONJON_SEED", "DONJON_LANG", "DONJON_LOG_FILE", "GEMINI_API_KEY", "GEMINI_MODEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SaveDir != "saves" || cfg.SaveBackend != BackendFile {
		t.Errorf("save dir/backend = %q/%q, want saves/file", cfg.SaveDir, cfg.SaveBackend)
	}
	if cfg.DBPath() != filepath.Join("saves", "saves.db") {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
	if cfg.Language() != language.English {
		t.Errorf("Language = %v, want en", cfg.Language())
	}
	if cfg.Chronicle() {
		t.Error("chronicle enabled without a key")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DONJON_SAVE_DIR", "/tmp/donjon")
	t.Setenv("DONJON_SAVE_BACKEND", "sqlite")
	t.Setenv("DONJON_SAVE_DB", "/tmp/donjon.db")
	t.Setenv("DONJON_SEED", "42")
	t.Setenv("DONJON_LANG", "fr")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SaveBackend != BackendSQLite || cfg.DBPath() != "/tmp/donjon.db" {
		t.Errorf("backend %q db %q", cfg.SaveBackend, cfg.DBPath())
	}
	if cfg.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Seed)
	}
	if cfg.Language() != language.French {
		t.Errorf("Language = %v, want fr", cfg.Language())
	}
	if !cfg.Chronicle() {
		t.Error("chronicle disabled with a key")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{key: "DONJON_SEED", value: "many", want: "parse env:"},
		{key: "DONJON_SAVE_BACKEND", value: "cloud", want: "DONJON_SAVE_BACKEND"},
		{key: "DONJON_LANG", value: "not a tag!", want: "DONJON_LANG"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("DONJON_SAVE_BACKEND", "file")
			t.Setenv("DONJON_SEED", "0")
			t.Setenv("DONJON_LANG", "en")
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
