package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Adjutant configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/adjutant/config.yaml
Project-specific overrides can be placed in .adjutant.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.API.APIKey != "" {
		apiKeyDisplay = config.MaskAPIKey(cfg.API.APIKey)
	}

	fmt.Printf("data_dir: %s\n", cfg.DataDir)
	fmt.Printf("scheduler.poll_interval: %s\n", cfg.Scheduler.PollInterval)
	fmt.Printf("scheduler.max_concurrent: %d\n", cfg.Scheduler.MaxConcurrent)
	fmt.Printf("scheduler.awaiting_expiry_hours: %d\n", cfg.Scheduler.AwaitingExpiryHours)
	fmt.Printf("tools.config_path: %s\n", cfg.ToolsConfigPath())
	fmt.Printf("tools.timeout: %s\n", cfg.Tools.Timeout)
	fmt.Printf("api.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("api.model: %s\n", cfg.API.Model)
	fmt.Printf("api.use_bedrock: %t\n", cfg.API.UseBedrock)
	fmt.Printf("api.aws_region: %s\n", cfg.API.AWSRegion)
	fmt.Printf("api.aws_profile: %s\n", cfg.API.AWSProfile)
	fmt.Printf("ingest.ytdlp_path: %s\n", cfg.Ingest.YtdlpPath)
	fmt.Printf("ingest.library_path: %s\n", cfg.LibraryPath())
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "data_dir":
		return cfg.DataDir, nil
	case "scheduler.poll_interval":
		return cfg.Scheduler.PollInterval.String(), nil
	case "scheduler.max_concurrent":
		return strconv.Itoa(cfg.Scheduler.MaxConcurrent), nil
	case "scheduler.awaiting_expiry_hours":
		return strconv.Itoa(cfg.Scheduler.AwaitingExpiryHours), nil
	case "tools.config_path":
		return cfg.ToolsConfigPath(), nil
	case "tools.timeout":
		return cfg.Tools.Timeout.String(), nil
	case "api.api_key":
		if cfg.API.APIKey == "" {
			return "(not set)", nil
		}
		return config.MaskAPIKey(cfg.API.APIKey), nil
	case "api.model":
		return cfg.API.Model, nil
	case "api.use_bedrock":
		return strconv.FormatBool(cfg.API.UseBedrock), nil
	case "api.aws_region":
		return cfg.API.AWSRegion, nil
	case "api.aws_profile":
		return cfg.API.AWSProfile, nil
	case "ingest.ytdlp_path":
		return cfg.Ingest.YtdlpPath, nil
	case "ingest.library_path":
		return cfg.LibraryPath(), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "data_dir":
		cfg.DataDir = value
	case "scheduler.poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for poll_interval: %w", err)
		}
		cfg.Scheduler.PollInterval = d
	case "scheduler.max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_concurrent: %w", err)
		}
		cfg.Scheduler.MaxConcurrent = n
	case "scheduler.awaiting_expiry_hours":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for awaiting_expiry_hours: %w", err)
		}
		cfg.Scheduler.AwaitingExpiryHours = n
	case "tools.config_path":
		cfg.Tools.ConfigPath = value
	case "tools.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for tools.timeout: %w", err)
		}
		cfg.Tools.Timeout = d
	case "api.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.API.APIKey = value
	case "api.model":
		cfg.API.Model = value
	case "api.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.API.UseBedrock = b
	case "api.aws_region":
		cfg.API.AWSRegion = value
	case "api.aws_profile":
		cfg.API.AWSProfile = value
	case "ingest.ytdlp_path":
		cfg.Ingest.YtdlpPath = value
	case "ingest.library_path":
		cfg.Ingest.LibraryPath = value
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
