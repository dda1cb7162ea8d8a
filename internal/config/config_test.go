package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got: %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "scraper"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if !strings.Contains(err.Error(), "unknown mode") {
		t.Errorf("error = %v, want mention of unknown mode", err)
	}
}

func TestValidateArchiveRequiresS3(t *testing.T) {
	cfg := Defaults()
	cfg.Archive.Enabled = true
	cfg.S3.Bucket = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when archive enabled without bucket")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("error = %v, want mention of bucket", err)
	}
}

func TestValidateCombinesErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Server.Port = -1
	cfg.Redis.Addr = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, want := range []string{"unknown mode", "server: port", "redis: addr"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestLoadMergesTOMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "full"

[server]
port = 9090

[archive]
enabled = true
interval = "6h"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "full" {
		t.Errorf("mode = %q, want full", cfg.Mode)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Archive.Interval.Duration != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", cfg.Archive.Interval.Duration)
	}
	// Untouched fields keep their defaults.
	if cfg.Database.Port != 5432 {
		t.Errorf("database port = %d, want default 5432", cfg.Database.Port)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("COPYDESK_SERVER_PORT", "7777")
	t.Setenv("COPYDESK_REDIS_PASSWORD", "hunter2")
	t.Setenv("COPYDESK_SERVER_API_KEYS", "key-a, key-b")
	t.Setenv("COPYDESK_ARCHIVE_INTERVAL", "90m")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want 7777", cfg.Server.Port)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Errorf("redis password not applied")
	}
	if len(cfg.Server.APIKeys) != 2 || cfg.Server.APIKeys[1] != "key-b" {
		t.Errorf("api keys = %v, want [key-a key-b]", cfg.Server.APIKeys)
	}
	if cfg.Archive.Interval.Duration != 90*time.Minute {
		t.Errorf("interval = %v, want 90m", cfg.Archive.Interval.Duration)
	}
}

func TestRedactedHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "dbpass"
	cfg.S3.SecretKey = "s3secret"
	cfg.Server.APIKeys = []string{"live-key"}
	cfg.Notify.TelegramToken = "tg-token"

	red := cfg.Redacted()

	if red.Database.Password != "***" {
		t.Errorf("database password not redacted: %q", red.Database.Password)
	}
	if red.S3.SecretKey != "***" {
		t.Errorf("s3 secret not redacted: %q", red.S3.SecretKey)
	}
	if red.Notify.TelegramToken != "***" {
		t.Errorf("telegram token not redacted: %q", red.Notify.TelegramToken)
	}
	if len(red.Server.APIKeys) != 1 || red.Server.APIKeys[0] != "***" {
		t.Errorf("api keys not redacted: %v", red.Server.APIKeys)
	}
	// The original must be untouched.
	if cfg.Database.Password != "dbpass" {
		t.Errorf("original mutated: %q", cfg.Database.Password)
	}
}
