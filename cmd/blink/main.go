package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Veraticus/blink/pkg/config"
)

func main() {
	var (
		configPath string
		logLevel   string
		interval   time.Duration
		help       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.DurationVar(&interval, "interval", 0, "Time between reminders while the user is active")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}

	cfg, err := loadConfig(configPath, logLevel, interval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	deps := NewDependencies(cfg, os.Stdout, os.Stderr)
	app := NewApplication(deps)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		deps.Logger.Info("shutting down", "signal", sig.String())
		app.Stop()
	}()

	if err := app.Run(context.Background()); err != nil {
		deps.Logger.Error("blink exited", "err", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies command line overrides.
func loadConfig(path, logLevel string, interval time.Duration) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}
	if interval != 0 {
		cfg.Interval = interval
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printUsage() {
	fmt.Println("blink - eye rest reminder")
	fmt.Println()
	fmt.Println("Usage: blink [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  BLINK_CONFIG          Path to config file")
	fmt.Println("  BLINK_INTERVAL        Time between reminders (default: 20m)")
	fmt.Println("  BLINK_TICK            Polling period (default: 5s)")
	fmt.Println("  BLINK_IDLE_THRESHOLD  Idle time that counts as away (default: 5s)")
	fmt.Println("  BLINK_PROBE_COMMAND   Idle time helper printing milliseconds (default: xprintidle)")
	fmt.Println("  BLINK_NOTIFY_SEND     notify-send compatible tool (default: notify-send)")
	fmt.Println("  BLINK_DIALOG          Dialog tool used as a last resort (default: zenity)")
	fmt.Println("  BLINK_LOG_LEVEL       Log level (default: info)")
	fmt.Println("  BLINK_METRICS_ADDR    Serve Prometheus metrics on this address")
	fmt.Println()
	fmt.Println("Configuration file: ~/.config/blink/config.yaml")
}
