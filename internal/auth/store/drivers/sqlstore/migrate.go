package sqlstore

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies the pending migrations embedded in fsys through driver.
// An up-to-date schema is not an error.
func Migrate(fsys fs.FS, dialect string, driver database.Driver) error {
	source, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("init %s migrations: %w", dialect, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", dialect, err)
	}
	return nil
}
