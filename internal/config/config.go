// Package config handles configuration loading and management for Adjutant.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Adjutant.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	API       APIConfig       `mapstructure:"api"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// SchedulerConfig holds polling and concurrency settings.
type SchedulerConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	MaxConcurrent       int           `mapstructure:"max_concurrent"`
	AwaitingExpiryHours int           `mapstructure:"awaiting_expiry_hours"`
}

// ToolsConfig holds tool backend settings.
type ToolsConfig struct {
	// ConfigPath overrides the default tools.yaml location in the data dir.
	ConfigPath string `mapstructure:"config_path"`
	// Timeout bounds a single backend invocation.
	Timeout time.Duration `mapstructure:"timeout"`
}

// APIConfig holds settings for API-mode tool backends.
type APIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// IngestConfig holds settings for the content-ingestion sidecar.
type IngestConfig struct {
	YtdlpPath   string `mapstructure:"ytdlp_path"`
	LibraryPath string `mapstructure:"library_path"`
}

// TUIConfig holds watch-dashboard display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, ADJUTANT_DATA_DIR)
// 2. Project config (.adjutant.yaml in current directory or parent)
// 3. User config (~/.config/adjutant/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("api.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("data_dir", "ADJUTANT_DATA_DIR")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	finalize(cfg)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	finalize(cfg)
	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("data_dir", cfg.DataDir)
	v.Set("scheduler.poll_interval", cfg.Scheduler.PollInterval.String())
	v.Set("scheduler.max_concurrent", cfg.Scheduler.MaxConcurrent)
	v.Set("scheduler.awaiting_expiry_hours", cfg.Scheduler.AwaitingExpiryHours)
	v.Set("tools.config_path", cfg.Tools.ConfigPath)
	v.Set("tools.timeout", cfg.Tools.Timeout.String())
	v.Set("api.api_key", cfg.API.APIKey)
	v.Set("api.model", cfg.API.Model)
	v.Set("api.use_bedrock", cfg.API.UseBedrock)
	v.Set("api.aws_region", cfg.API.AWSRegion)
	v.Set("api.aws_profile", cfg.API.AWSProfile)
	v.Set("ingest.ytdlp_path", cfg.Ingest.YtdlpPath)
	v.Set("ingest.library_path", cfg.Ingest.LibraryPath)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DBPath returns the SQLite database location inside the data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "adjutant.db")
}

// SignalsDir returns the directory watched for control files.
func (c *Config) SignalsDir() string {
	return filepath.Join(c.DataDir, "signals")
}

// BriefingsDir returns the directory briefing documents are written under.
func (c *Config) BriefingsDir() string {
	return filepath.Join(c.DataDir, "briefings")
}

// ToolsConfigPath returns the tools.yaml location, honoring the override.
func (c *Config) ToolsConfigPath() string {
	if c.Tools.ConfigPath != "" {
		return c.Tools.ConfigPath
	}
	return filepath.Join(c.DataDir, "tools.yaml")
}

// SchedulerLogPath returns the scheduler debug log location.
func (c *Config) SchedulerLogPath() string {
	return filepath.Join(c.DataDir, "logs", "scheduler.log")
}

// LibraryPath returns the ingest library database, defaulting into the data dir.
func (c *Config) LibraryPath() string {
	if c.Ingest.LibraryPath != "" {
		return c.Ingest.LibraryPath
	}
	return filepath.Join(c.DataDir, "library.db")
}

// TranscriptsDir returns the directory transcripts are downloaded into.
func (c *Config) TranscriptsDir() string {
	return filepath.Join(c.DataDir, "transcripts")
}

// ExpiryAfter converts the awaiting expiry setting to a duration.
// Zero or negative disables the expiry sweep.
func (c *Config) ExpiryAfter() time.Duration {
	if c.Scheduler.AwaitingExpiryHours <= 0 {
		return 0
	}
	return time.Duration(c.Scheduler.AwaitingExpiryHours) * time.Hour
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")

	v.SetDefault("scheduler.poll_interval", "30s")
	v.SetDefault("scheduler.max_concurrent", 2)
	v.SetDefault("scheduler.awaiting_expiry_hours", 72)

	v.SetDefault("tools.config_path", "")
	v.SetDefault("tools.timeout", "10m")

	v.SetDefault("api.api_key", "")
	v.SetDefault("api.model", "claude-sonnet-4-20250514")
	v.SetDefault("api.use_bedrock", false)
	v.SetDefault("api.aws_region", "")
	v.SetDefault("api.aws_profile", "")

	v.SetDefault("ingest.ytdlp_path", "yt-dlp")
	v.SetDefault("ingest.library_path", "")

	v.SetDefault("tui.refresh_rate", "500ms")
}

// finalize fills derived values after unmarshaling.
func finalize(cfg *Config) {
	cfg.API.APIKey = expandEnv(cfg.API.APIKey)
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	cfg.DataDir = expandEnv(cfg.DataDir)
}

// getUserConfigDir returns the XDG config directory for Adjutant.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "adjutant")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "adjutant")
	}
	return filepath.Join(home, ".config", "adjutant")
}

// defaultDataDir returns the XDG data directory for Adjutant.
func defaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "adjutant")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".adjutant")
	}
	return filepath.Join(home, ".local", "share", "adjutant")
}

// findProjectConfig searches for .adjutant.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".adjutant.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Scheduler: SchedulerConfig{
			PollInterval:        30 * time.Second,
			MaxConcurrent:       2,
			AwaitingExpiryHours: 72,
		},
		Tools: ToolsConfig{
			Timeout: 10 * time.Minute,
		},
		API: APIConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Ingest: IngestConfig{
			YtdlpPath: "yt-dlp",
		},
		TUI: TUIConfig{
			RefreshRate: 500 * time.Millisecond,
		},
	}
}
