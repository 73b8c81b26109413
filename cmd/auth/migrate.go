package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := app.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "%s database is up to date\n", cfg.DatabaseDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
