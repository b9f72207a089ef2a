package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartinventory/smartinventory-backend/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down|version",
	Short:     "Manage the Postgres snapshot schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := database.NewMigrator(cfg.Database.MigrationURL())
		if err != nil {
			return err
		}
		defer m.Close()

		switch args[0] {
		case "up":
			if err := m.Up(); err != nil {
				return err
			}
		case "down":
			if err := m.Down(); err != nil {
				return err
			}
		}

		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}
