package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/mbayswater/adjutant/pkg/models"
)

// Built-in pool defaults, used when no tools.yaml exists.
const (
	defaultFailureCooldownMs = 300000
	defaultTimeoutMs         = 600000
)

// DefaultToolConfig returns the built-in tool pool: the claude and gemini
// CLIs with the Anthropic API as a final fallback.
func DefaultToolConfig() *models.ToolConfig {
	return &models.ToolConfig{
		DefaultTool:       "claude",
		FailureCooldownMs: defaultFailureCooldownMs,
		TimeoutMs:         defaultTimeoutMs,
		Tools: []models.ToolSpec{
			{Name: "claude", Kind: models.ToolKindCLI, Command: "claude", Args: []string{"-p"}, Enabled: true, Priority: 1},
			{Name: "gemini", Kind: models.ToolKindCLI, Command: "gemini", Args: []string{"-p"}, Enabled: true, Priority: 2},
			{Name: "anthropic-api", Kind: models.ToolKindAPI, Enabled: true, Priority: 3},
		},
	}
}

// LoadToolConfig reads the tool pool definition from a YAML file. A missing
// file yields the built-in default pool rather than an error.
func LoadToolConfig(path string) (*models.ToolConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultToolConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tool config: %w", err)
	}

	var cfg models.ToolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse tool config: %w", err)
	}
	applyToolDefaults(&cfg)
	return &cfg, nil
}

// SaveToolConfig writes a tool pool definition as YAML, creating parent
// directories as needed.
func SaveToolConfig(path string, cfg *models.ToolConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal tool config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write tool config: %w", err)
	}
	return nil
}

// applyToolDefaults fills unset pool-wide values on a parsed config.
func applyToolDefaults(cfg *models.ToolConfig) {
	if cfg.FailureCooldownMs <= 0 {
		cfg.FailureCooldownMs = defaultFailureCooldownMs
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = defaultTimeoutMs
	}
}
