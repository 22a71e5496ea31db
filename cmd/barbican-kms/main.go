package main

import (
	"fmt"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/barbican-kms/cmd/barbican-kms/commands"
	"github.com/systmms/barbican-kms/internal/config"
	"github.com/systmms/barbican-kms/internal/logging"
	"github.com/systmms/barbican-kms/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()

	err := run()
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile      string
		storeName       string
		noColor         bool
		debug           bool
		timeout         time.Duration
		metricsTextfile string
	)

	metrics.InitMetrics()

	cfg := &config.Config{Logger: logging.New(false, false)}

	rootCmd := &cobra.Command{
		Use:   "barbican-kms",
		Short: "Store and fetch symmetric keys in OpenStack Barbican",
		Long: `barbican-kms authenticates against Keystone with an application credential
from the OS_* environment and stores or retrieves base64-transported
symmetric secrets in Barbican.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Store = storeName
			cfg.Timeout = timeout
			cfg.Logger = logging.New(debug, noColor)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&storeName, "store", "", "Store to use (default: default_store or \"default\")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-command timeout (default: store timeout_ms or 30s)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		commands.NewSecretCommand(cfg),
		commands.NewProjectCommand(cfg),
		commands.NewServerCommand(cfg),
		commands.NewVersionsCommand(cfg),
		commands.NewLoginCommand(cfg),
		commands.NewDoctorCommand(cfg),
	)

	err := rootCmd.Execute()

	if metricsTextfile != "" {
		if werr := metrics.WriteTextfile(metricsTextfile); werr != nil {
			cfg.Logger.Warn("Failed to write metrics to %s: %v", metricsTextfile, werr)
		}
	}

	return err
}
