// Package cli provides the command-line interface for dedupe.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/contact-dedupe/internal/config"
	"github.com/raphaelgruber/contact-dedupe/internal/metrics"
)

// defaultInput is read when no file argument is given.
const defaultInput = "contacts.csv"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Global config, logger and run statistics
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	collector  *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find and remove duplicate contacts in a CSV file",
	Long: `Dedupe scans a contact CSV for likely duplicates (same email after
normalization, same phone number, or similar family and given names) and asks
you to confirm each one.

Every confirmed removal is written immediately: the contact file is rewritten
(with a .bak copy of the previous version) and the removed row is appended to
an audit CSV, so stopping halfway loses nothing.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// setup loads .env, environment and config file, then builds the logger.
func setup() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg = config.Load()

	if configFile == "" {
		configFile = os.Getenv("DEDUPE_CONFIG")
	}
	if configFile != "" {
		if err := config.LoadFile(configFile, &cfg); err != nil {
			return err
		}
	}

	consoleLevel := cfg.ConsoleLogLevel
	if verbose && consoleLevel > slog.LevelInfo {
		consoleLevel = slog.LevelInfo
	}
	logger, logCleanup = config.SetupLogger(cfg.LogFile, consoleLevel, cfg.LogLevel)
	slog.SetDefault(logger)

	collector = metrics.NewCollector()
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML or TOML config file (default $DEDUPE_CONFIG)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dedupe %s\n", Version)
	},
}
