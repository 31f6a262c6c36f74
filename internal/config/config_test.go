package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdirTemp runs the test from an empty directory so no config.yaml is found
// unless the test writes one.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("unexpected addr default: %q", cfg.Server.Addr)
	}
	if cfg.Pager.Interval != 5 || cfg.Pager.ResponsesPerPage != 4 {
		t.Fatalf("unexpected pager defaults: %+v", cfg.Pager)
	}
	if cfg.Session.Store != "memory" || cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Worker.MetricsAddr != ":9091" {
		t.Fatalf("unexpected worker metrics addr: %q", cfg.Worker.MetricsAddr)
	}
}

func TestLoadBareEnvNames(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/scores?sslmode=disable")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("API_TOKEN", "dev-secret-token")
	t.Setenv("MINIO_BUCKET", "exports")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://u:p@db:5432/scores?sslmode=disable" {
		t.Fatalf("unexpected database url: %q", cfg.Database.URL)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Server.APIToken != "dev-secret-token" || cfg.S3.Bucket != "exports" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadYAMLAndPrefixedEnvOverride(t *testing.T) {
	dir := chdirTemp(t)
	content := `
pager:
  interval: 3
  responsesPerPage: 2
session:
  store: redis
  ttl: 30m
dataset:
  path: s3://datasets/responses.csv
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SCORING_PAGER_INTERVAL", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pager.Interval != 7 || cfg.Pager.ResponsesPerPage != 2 {
		t.Fatalf("unexpected pager config: %+v", cfg.Pager)
	}
	if cfg.Session.Store != "redis" || cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Dataset.Path != "s3://datasets/responses.csv" {
		t.Fatalf("unexpected dataset path: %q", cfg.Dataset.Path)
	}
}
