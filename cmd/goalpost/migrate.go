package main

import (
	"fmt"

	"github.com/dukerupert/goalpost/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and print their state",
		Long: `Opens the configured store, which applies any pending migrations, then
prints the state of every migration. The mysql engine manages its schema with
auto-migration and has no versioned migrations to list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if a.db == nil {
				fmt.Fprintf(out, "Schema up to date (%s, auto-migrated)\n", a.cfg.Storage.Engine)
				return nil
			}
			return database.Status(a.db, out)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
