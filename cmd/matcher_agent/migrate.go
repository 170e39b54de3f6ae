package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-matcher/internal/db"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Applies the embedded SQL migrations to the configured PostgreSQL database. With --status, prints the current schema version instead.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print the current schema version and exit")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' (or DATABASE_URL) is required")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	out := cmd.OutOrStdout()
	if !migrateStatus {
		applied, err := database.Migrate(ctx)
		if err != nil {
			return err
		}
		for _, m := range applied {
			_, _ = fmt.Fprintf(out, "applied %05d %s\n", m.Version, m.Path)
		}
		if len(applied) == 0 {
			_, _ = fmt.Fprintln(out, "no pending migrations")
		}
	}

	version, err := database.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "schema version: %d\n", version)
	return nil
}
