package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
storage:
  host: storage.local
  bucket: test-bucket
upload:
  max_bytes: 1024
  progress:
    ceiling: 0.8
    tick_interval: 100ms
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Storage.Host != "storage.local" {
		t.Fatalf("unexpected storage host: %s", cfg.Storage.Host)
	}
	if cfg.Storage.Bucket != "test-bucket" {
		t.Fatalf("unexpected storage bucket: %s", cfg.Storage.Bucket)
	}
	if cfg.Upload.MaxBytes != 1024 {
		t.Fatalf("unexpected upload max bytes: %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.Progress.Ceiling != 0.8 {
		t.Fatalf("unexpected progress ceiling: %v", cfg.Upload.Progress.Ceiling)
	}
	if cfg.Upload.Progress.TickInterval != 100*time.Millisecond {
		t.Fatalf("unexpected progress tick interval: %s", cfg.Upload.Progress.TickInterval)
	}

	// untouched sections keep defaults
	if cfg.Upload.Progress.Rate != 0.05 {
		t.Fatalf("unexpected progress rate: %v", cfg.Upload.Progress.Rate)
	}
	if cfg.Postgres.DSN == "" {
		t.Fatalf("expected default postgres dsn")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	def := Default()
	if cfg.HTTP.Addr != def.HTTP.Addr {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Storage.Bucket != def.Storage.Bucket {
		t.Fatalf("unexpected storage bucket: %s", cfg.Storage.Bucket)
	}
}

func TestLoadEnvOverridesBeatYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_BUCKET", "env-bucket")
	t.Setenv("UPLOAD_MAX_BYTES", "2048")
	t.Setenv("STORAGE_TIMEOUT", "90s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Storage.Bucket != "env-bucket" {
		t.Fatalf("unexpected storage bucket: %s", cfg.Storage.Bucket)
	}
	if cfg.Upload.MaxBytes != 2048 {
		t.Fatalf("unexpected upload max bytes: %d", cfg.Upload.MaxBytes)
	}
	if cfg.Storage.Timeout != 90*time.Second {
		t.Fatalf("unexpected storage timeout: %s", cfg.Storage.Timeout)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_ENV",
		"HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"STORAGE_HOST", "STORAGE_BUCKET", "STORAGE_TIMEOUT",
		"UPLOAD_MAX_BYTES",
		"CLEANUP_RETENTION", "CLEANUP_INTERVAL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
