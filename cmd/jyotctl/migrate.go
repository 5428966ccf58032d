package main

import (
	"fmt"

	"github.com/DukeRupert/jyotai/internal"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := a.openDB(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closeDB()

			if status {
				return internal.MigrationStatus(db)
			}
			if err := internal.RunMigrations(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "print migration status instead of applying")
	return cmd
}
