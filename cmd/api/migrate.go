package main

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/tripdesk/backend/internal/config"
	"github.com/tripdesk/backend/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				results, err := p.Up(cmd.Context())
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				}
				for _, r := range results {
					printResult(cmd.OutOrStdout(), r)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				r, err := p.Down(cmd.Context())
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				printResult(cmd.OutOrStdout(), r)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				statuses, err := p.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				for _, s := range statuses {
					printStatus(cmd.OutOrStdout(), s)
				}
				return nil
			}),
		},
	)
	return cmd
}

// withProvider opens DATABASE_URL through database/sql, which goose needs,
// and hands a provider over the embedded migrations to run.
func withProvider(run func(*cobra.Command, *goose.Provider) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		url, err := config.DatabaseURL()
		if err != nil {
			return err
		}
		db, err := sql.Open("pgx", url)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
		if err != nil {
			return fmt.Errorf("create goose provider: %w", err)
		}
		return run(cmd, p)
	}
}

func printResult(w io.Writer, r *goose.MigrationResult) {
	mark := color.New(color.FgGreen).Sprint("OK")
	if r.Error != nil {
		mark = color.New(color.FgRed).Sprint("FAILED")
	}
	fmt.Fprintf(w, "%-6s %s %s (%s)\n", mark, r.Direction, r.Source.Path, r.Duration.Round(time.Millisecond))
}

func printStatus(w io.Writer, s *goose.MigrationStatus) {
	state := color.New(color.FgYellow).Sprint("pending")
	applied := ""
	if s.State == goose.StateApplied {
		state = color.New(color.FgGreen).Sprint("applied")
		applied = s.AppliedAt.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "%05d  %-8s %-16s %s\n", s.Source.Version, state, applied, s.Source.Path)
}
