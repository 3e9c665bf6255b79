package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scheduler.PollInterval != 30*time.Second {
		t.Errorf("expected default poll interval 30s, got %v", cfg.Scheduler.PollInterval)
	}

	if cfg.Scheduler.MaxConcurrent != 2 {
		t.Errorf("expected default max_concurrent 2, got %d", cfg.Scheduler.MaxConcurrent)
	}

	if cfg.Scheduler.AwaitingExpiryHours != 72 {
		t.Errorf("expected default awaiting_expiry_hours 72, got %d", cfg.Scheduler.AwaitingExpiryHours)
	}

	if cfg.Tools.Timeout != 10*time.Minute {
		t.Errorf("expected default tools timeout 10m, got %v", cfg.Tools.Timeout)
	}

	if cfg.TUI.RefreshRate != 500*time.Millisecond {
		t.Errorf("expected refresh rate 500ms, got %v", cfg.TUI.RefreshRate)
	}

	if cfg.Ingest.YtdlpPath != "yt-dlp" {
		t.Errorf("expected default ytdlp_path 'yt-dlp', got %q", cfg.Ingest.YtdlpPath)
	}

	if cfg.DataDir == "" {
		t.Error("expected a non-empty default data dir")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
data_dir: /var/lib/adjutant
scheduler:
  poll_interval: 10s
  max_concurrent: 4
  awaiting_expiry_hours: 24
tools:
  config_path: /etc/adjutant/tools.yaml
  timeout: 5m
api:
  api_key: test-key
  model: claude-opus-4-20250514
  use_bedrock: true
  aws_region: us-east-1
ingest:
  ytdlp_path: /usr/local/bin/yt-dlp
tui:
  refresh_rate: 250ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.DataDir != "/var/lib/adjutant" {
		t.Errorf("expected data_dir '/var/lib/adjutant', got %q", cfg.DataDir)
	}

	if cfg.Scheduler.PollInterval != 10*time.Second {
		t.Errorf("expected poll interval 10s, got %v", cfg.Scheduler.PollInterval)
	}

	if cfg.Scheduler.MaxConcurrent != 4 {
		t.Errorf("expected max_concurrent 4, got %d", cfg.Scheduler.MaxConcurrent)
	}

	if cfg.Tools.Timeout != 5*time.Minute {
		t.Errorf("expected tools timeout 5m, got %v", cfg.Tools.Timeout)
	}

	if cfg.API.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.API.APIKey)
	}

	if !cfg.API.UseBedrock {
		t.Error("expected use_bedrock to be true")
	}

	if cfg.API.AWSRegion != "us-east-1" {
		t.Errorf("expected aws_region 'us-east-1', got %q", cfg.API.AWSRegion)
	}

	if cfg.TUI.RefreshRate != 250*time.Millisecond {
		t.Errorf("expected refresh rate 250ms, got %v", cfg.TUI.RefreshRate)
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data/adjutant"

	if got := cfg.DBPath(); got != "/data/adjutant/adjutant.db" {
		t.Errorf("DBPath() = %q", got)
	}
	if got := cfg.SignalsDir(); got != "/data/adjutant/signals" {
		t.Errorf("SignalsDir() = %q", got)
	}
	if got := cfg.BriefingsDir(); got != "/data/adjutant/briefings" {
		t.Errorf("BriefingsDir() = %q", got)
	}
	if got := cfg.SchedulerLogPath(); got != "/data/adjutant/logs/scheduler.log" {
		t.Errorf("SchedulerLogPath() = %q", got)
	}

	if got := cfg.ToolsConfigPath(); got != "/data/adjutant/tools.yaml" {
		t.Errorf("ToolsConfigPath() = %q", got)
	}
	cfg.Tools.ConfigPath = "/etc/adjutant/tools.yaml"
	if got := cfg.ToolsConfigPath(); got != "/etc/adjutant/tools.yaml" {
		t.Errorf("ToolsConfigPath() with override = %q", got)
	}

	if got := cfg.LibraryPath(); got != "/data/adjutant/library.db" {
		t.Errorf("LibraryPath() = %q", got)
	}
	cfg.Ingest.LibraryPath = "/media/library.db"
	if got := cfg.LibraryPath(); got != "/media/library.db" {
		t.Errorf("LibraryPath() with override = %q", got)
	}
}

func TestExpiryAfter(t *testing.T) {
	cfg := Default()

	cfg.Scheduler.AwaitingExpiryHours = 24
	if got := cfg.ExpiryAfter(); got != 24*time.Hour {
		t.Errorf("ExpiryAfter() = %v, want 24h", got)
	}

	cfg.Scheduler.AwaitingExpiryHours = 0
	if got := cfg.ExpiryAfter(); got != 0 {
		t.Errorf("ExpiryAfter() = %v, want 0 (disabled)", got)
	}
}

func TestExpandEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "expanded-value")
	defer os.Unsetenv("TEST_VAR")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/adjutant"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestDefaultDataDir(t *testing.T) {
	os.Setenv("XDG_DATA_HOME", "/custom/data")
	defer os.Unsetenv("XDG_DATA_HOME")

	dir := defaultDataDir()
	expected := "/custom/data/adjutant"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}
