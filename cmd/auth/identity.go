package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagRole     string
	flagPassword string
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage identities",
}

var identityCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a password identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		a, err := openAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		identity, err := a.identities.CreateIdentity(cmd.Context(), args[0], password, flagRole)
		if err != nil {
			return fmt.Errorf("creating identity: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created identity %s (%s) with role %s\n", identity.Email, identity.ID, flagRole)
		return nil
	},
}

var identitySetPasswordCmd = &cobra.Command{
	Use:   "set-password <email>",
	Short: "Replace an identity's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		a, err := openAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		identity, err := a.identities.GetIdentityByEmail(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("looking up %s: %w", args[0], err)
		}
		if err := a.identities.SetPassword(cmd.Context(), identity.ID, password); err != nil {
			return fmt.Errorf("setting password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", identity.Email)
		return nil
	},
}

var identityResetMFACmd = &cobra.Command{
	Use:   "reset-mfa <email>",
	Short: "Disable TOTP and discard the stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAdmin(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		identity, err := a.identities.GetIdentityByEmail(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("looking up %s: %w", args[0], err)
		}
		if err := a.identities.ResetMFA(cmd.Context(), identity.ID); err != nil {
			return fmt.Errorf("resetting mfa: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mfa reset for %s\n", identity.Email)
		return nil
	},
}

// readPassword takes --password, then AUTH_PASSWORD.
func readPassword() (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	if p := os.Getenv("AUTH_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("a password is required: pass --password or set AUTH_PASSWORD")
}

func init() {
	identityCreateCmd.Flags().StringVar(&flagRole, "role", "user", "Role to assign")
	for _, c := range []*cobra.Command{identityCreateCmd, identitySetPasswordCmd} {
		c.Flags().StringVar(&flagPassword, "password", "", "Password (default: $AUTH_PASSWORD)")
	}
	identityCmd.AddCommand(identityCreateCmd, identitySetPasswordCmd, identityResetMFACmd)
	rootCmd.AddCommand(identityCmd)
}
