package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles",
}

var roleCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		role, err := a.roles.CreateRole(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("creating role: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created role %s (%s)\n", role.Name, role.ID)
		return nil
	},
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		roles, err := a.roles.ListRoles(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing roles: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, r := range roles {
			fmt.Fprintf(w, "%s\t%s\n", r.ID, r.Name)
		}
		return w.Flush()
	},
}

func init() {
	roleCmd.AddCommand(roleCreateCmd, roleListCmd)
	rootCmd.AddCommand(roleCmd)
}
