package main

import (
	"github.com/spf13/cobra"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return application.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
