// Package cli provides the command-line interface for FeatSQL.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/featsql/internal/cli/commands"
	"github.com/leapstack-labs/featsql/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "featsql",
		Short: "FeatSQL - SQL feature query engine",
		Long: `FeatSQL is a SQL query engine for feature computation. It compiles
statements once per (database, statement, mode) key, caches the compiled
plans, and executes them in batch mode (full table) or request mode
(single-row serving).`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: config.ParseLogLevel(cfg.LogLevel),
			}))
			cmd.SetContext(config.IntoContext(cmd.Context(), cfg, logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags, mirrored into the config loader.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./featsql.yaml)")
	rootCmd.PersistentFlags().String("seed_file", "", "YAML seed catalog to load")
	rootCmd.PersistentFlags().String("database", "", "default database name")
	rootCmd.PersistentFlags().String("output", "", "output format: table, json, csv")
	rootCmd.PersistentFlags().String("log_level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRequestCommand())
	rootCmd.AddCommand(commands.NewExplainCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
