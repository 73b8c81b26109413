package app

import (
	"fmt"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/memory"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/postgres"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlite"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
)

// OpenStore opens the configured database and applies migrations.
func OpenStore(cfg Config) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(cfg.DatabaseURL)
	case "memory":
		db = memory.NewStore()
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(cfg.DatabaseFile))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DatabaseDriver, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// NewHasher loads or creates the pepper and returns the password hasher.
func NewHasher(cfg Config) (*cryptox.Argon2Hasher, error) {
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, err
	}
	return cryptox.NewArgon2Hasher(pepper), nil
}
