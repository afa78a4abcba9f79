// Package main is the entry point for the tripdesk API binary.
// It wires dependencies together and exposes them as cobra commands:
// serve runs the HTTP server, migrate manages the schema and catalog
// prints the activity table. No business logic belongs here.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripdesk/backend/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "tripdesk",
		Short: "Trip planning and approval API",
		Long: `tripdesk serves the trip approval API.

Coordinators draft trips with a day-by-day timeline and submit them;
headquarters staff approve or reject them. Configuration comes from the
environment, optionally seeded from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File of KEY=VALUE pairs loaded into the environment")

	cmd.AddCommand(serveCmd(), migrateCmd(), catalogCmd())
	return cmd
}

// newLogger builds the JSON logger and installs it as the default.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
