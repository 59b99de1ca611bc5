// Package config loads blink's settings: defaults, then an optional YAML file,
// then BLINK_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for blink
type Config struct {
	// Scheduling
	Interval      time.Duration `yaml:"interval" env:"BLINK_INTERVAL"`
	Tick          time.Duration `yaml:"tick" env:"BLINK_TICK"`
	IdleThreshold time.Duration `yaml:"idle_threshold" env:"BLINK_IDLE_THRESHOLD"`

	// External helpers
	ProbeCommand  string          `yaml:"probe_command" env:"BLINK_PROBE_COMMAND"`
	ProbeTimeout  time.Duration   `yaml:"probe_timeout" env:"BLINK_PROBE_TIMEOUT"`
	NotifyTimeout time.Duration   `yaml:"notify_timeout" env:"BLINK_NOTIFY_TIMEOUT"`
	Notifiers     NotifiersConfig `yaml:"notifiers"`

	// Reminder payload
	Notification NotificationConfig `yaml:"notification"`

	LogLevel    string `yaml:"log_level" env:"BLINK_LOG_LEVEL"`
	MetricsAddr string `yaml:"metrics_addr" env:"BLINK_METRICS_ADDR"`
}

// NotifiersConfig names the command-line notification tools.
type NotifiersConfig struct {
	NotifySend string `yaml:"notify_send" env:"BLINK_NOTIFY_SEND"`
	Dialog     string `yaml:"dialog" env:"BLINK_DIALOG"`
}

// NotificationConfig is the fixed reminder shown when the interval elapses.
type NotificationConfig struct {
	AppName  string        `yaml:"app_name"`
	Title    string        `yaml:"title" env:"BLINK_TITLE"`
	Body     string        `yaml:"body" env:"BLINK_BODY"`
	Duration time.Duration `yaml:"duration" env:"BLINK_DURATION"`
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:      20 * time.Minute,
		Tick:          5 * time.Second,
		IdleThreshold: 5 * time.Second,
		ProbeCommand:  "xprintidle",
		ProbeTimeout:  1 * time.Second,
		NotifyTimeout: 2 * time.Second,
		Notifiers: NotifiersConfig{
			NotifySend: "notify-send",
			Dialog:     "zenity",
		},
		Notification: NotificationConfig{
			AppName: "blink",
			Title:   "Time for Eye Rest 👀",
			Body: "Breath slowly. Look at something 20 feet away for 20 seconds.\n" +
				"This helps reduce eye strain and fatigue.",
			Duration: 20 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load loads configuration from file and environment. An explicit path takes
// precedence over BLINK_CONFIG and the XDG location; a missing file is fine.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := path
	if configPath == "" {
		configPath = getConfigPath()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if path := os.Getenv("BLINK_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "blink", "config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "blink", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (flag, env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"BLINK_INTERVAL", &cfg.Interval},
		{"BLINK_TICK", &cfg.Tick},
		{"BLINK_IDLE_THRESHOLD", &cfg.IdleThreshold},
		{"BLINK_PROBE_TIMEOUT", &cfg.ProbeTimeout},
		{"BLINK_NOTIFY_TIMEOUT", &cfg.NotifyTimeout},
		{"BLINK_DURATION", &cfg.Notification.Duration},
	}
	for _, d := range durations {
		value := os.Getenv(d.env)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	strs := []struct {
		env string
		dst *string
	}{
		{"BLINK_PROBE_COMMAND", &cfg.ProbeCommand},
		{"BLINK_NOTIFY_SEND", &cfg.Notifiers.NotifySend},
		{"BLINK_DIALOG", &cfg.Notifiers.Dialog},
		{"BLINK_TITLE", &cfg.Notification.Title},
		{"BLINK_BODY", &cfg.Notification.Body},
		{"BLINK_METRICS_ADDR", &cfg.MetricsAddr},
	}
	for _, s := range strs {
		if value := os.Getenv(s.env); value != "" {
			*s.dst = value
		}
	}

	if level := os.Getenv("BLINK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	return nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (cfg *Config) Validate() error {
	positive := []struct {
		key   string
		value time.Duration
	}{
		{"interval", cfg.Interval},
		{"tick", cfg.Tick},
		{"idle_threshold", cfg.IdleThreshold},
		{"probe_timeout", cfg.ProbeTimeout},
		{"notify_timeout", cfg.NotifyTimeout},
		{"notification.duration", cfg.Notification.Duration},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive", p.key)
		}
	}

	if cfg.ProbeTimeout > cfg.Tick {
		return fmt.Errorf("probe_timeout (%s) must not exceed tick (%s)", cfg.ProbeTimeout, cfg.Tick)
	}

	if cfg.IdleThreshold > cfg.Interval {
		return fmt.Errorf("idle_threshold (%s) must not exceed interval (%s)", cfg.IdleThreshold, cfg.Interval)
	}

	if cfg.ProbeCommand == "" {
		return fmt.Errorf("probe_command is required")
	}

	if cfg.Notifiers.NotifySend == "" || cfg.Notifiers.Dialog == "" {
		return fmt.Errorf("notifiers.notify_send and notifiers.dialog are required")
	}

	if cfg.Notification.Title == "" {
		return fmt.Errorf("notification.title is required")
	}

	if !logLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level %q (use debug, info, warn or error)", cfg.LogLevel)
	}

	return nil
}
