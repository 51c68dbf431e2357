package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Play.Mode != nil || cfg.Store.Driver != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[play]
mode = "sentences"
debounce = "2500ms"

[store]
driver = "postgres"
dsn = "postgres://localhost/typequest"

[server]
addr = ":9000"
rate-rps = 2.5
prune-days = 30
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Play.Mode == nil || *cfg.Play.Mode != "sentences" {
		t.Fatalf("unexpected mode: %v", cfg.Play.Mode)
	}
	if cfg.Play.Debounce == nil || cfg.Play.Debounce.Duration != 2500*time.Millisecond {
		t.Fatalf("unexpected debounce: %v", cfg.Play.Debounce)
	}
	if cfg.Play.Toast != nil {
		t.Fatalf("toast should be unset")
	}
	if cfg.Store.Driver == nil || *cfg.Store.Driver != "postgres" {
		t.Fatalf("unexpected driver: %v", cfg.Store.Driver)
	}
	if cfg.Server.RateRPS == nil || *cfg.Server.RateRPS != 2.5 {
		t.Fatalf("unexpected rate: %v", cfg.Server.RateRPS)
	}
	if cfg.Server.PruneDays == nil || *cfg.Server.PruneDays != 30 {
		t.Fatalf("unexpected prune days: %v", cfg.Server.PruneDays)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[play]\nlang = \"en\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[play]\ntoast = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "typequest", "config.toml") {
		t.Fatalf("config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "typequest", "typequest.db") {
		t.Fatalf("db path: %s", got)
	}
	if got := DefaultSessionPath(); got != filepath.Join("/data", "typequest", "session.json") {
		t.Fatalf("session path: %s", got)
	}
}

func TestLoadDotenvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TYPEQUEST_DB_DRIVER=postgres\nTYPEQUEST_USER=ada\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvUser, "grace")
	t.Setenv(EnvDBDriver, "")
	if err := os.Unsetenv(EnvDBDriver); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := LoadDotenv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := EnvString(EnvUser); v != "grace" {
		t.Fatalf("existing variable overridden: %q", v)
	}
	if v, ok := EnvString(EnvDBDriver); !ok || v != "postgres" {
		t.Fatalf("expected driver from .env, got %q", v)
	}
}
