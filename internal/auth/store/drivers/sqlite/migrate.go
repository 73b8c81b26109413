package sqlite

import (
	"database/sql"

	"github.com/golang-migrate/migrate/v4/database/sqlite"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlite/migrations"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlstore"
)

func applyMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	return sqlstore.Migrate(migrations.Migrations, "sqlite", driver)
}
