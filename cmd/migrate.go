package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proposalkb/proposalkb/db"
	"github.com/proposalkb/proposalkb/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Apply any pending schema migrations and exit. The serve command also
migrates on startup; this command exists for running migrations separately,
for example from a deploy pipeline.`,
	RunE: func(*cobra.Command, []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// Only the database settings matter here; the embedding credential is
	// not required to run migrations.
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	fmt.Println("migrations applied")
	return nil
}
