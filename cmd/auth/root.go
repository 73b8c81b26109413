package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/app"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

var (
	flagConfigFile string

	cfg app.Config
)

var rootCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication service with TOTP MFA and social login",
	Long: `auth runs the authentication service and manages its identities.

Get started:
  auth serve                                  Start the HTTP API
  auth role create support                    Add a role
  auth identity create alice@example.com      Create a password identity
  auth identity reset-mfa alice@example.com   Clear a lost authenticator`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfigFile != "" {
			if err := os.Setenv(app.ConfigFileEnv, flagConfigFile); err != nil {
				return err
			}
		}
		var err error
		cfg, err = app.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigFile, "config", "c", "", "TOML config file (default: $"+app.ConfigFileEnv+")")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// admin bundles the services the management commands need.
type admin struct {
	db         store.Store
	identities *service.IdentityService
	roles      *service.RolesService
}

func openAdmin(ctx context.Context) (*admin, error) {
	db, err := app.OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	hasher, err := app.NewHasher(cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("loading pepper: %w", err)
	}

	a := &admin{
		db:         db,
		identities: &service.IdentityService{Store: db, Hasher: hasher},
		roles:      &service.RolesService{Store: db},
	}
	if err := a.roles.EnsureRoles(ctx, "admin", "user", cfg.DefaultRole); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seeding roles: %w", err)
	}
	return a, nil
}

func (a *admin) Close() { _ = a.db.Close() }
