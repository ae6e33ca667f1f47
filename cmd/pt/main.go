package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rpggio/projtrack/internal/app"
	"github.com/rpggio/projtrack/internal/config"
	"github.com/rpggio/projtrack/internal/logging"
	"github.com/spf13/cobra"
)

var (
	tracker   *app.App
	logCloser io.Closer
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "pt",
	Short: "Track the projects in your projects directory",
	Long: `pt scans a directory of projects, reads each project's TODO.md, README.md,
index and code review documents, and stores the result in a local database.

Configuration comes from PT_CONFIG_PATH (YAML) and PT_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, closer, err := logging.New(os.Stderr, level, cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		logCloser = closer

		tracker, err = app.Build(cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeTracker()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func closeTracker() {
	if tracker != nil {
		_ = tracker.Close()
		tracker = nil
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		closeTracker()
		os.Exit(1)
	}
}
