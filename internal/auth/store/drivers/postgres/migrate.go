package postgres

import (
	"database/sql"

	"github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/postgres/migrations"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlstore"
)

func applyMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	return sqlstore.Migrate(migrations.Migrations, "postgres", driver)
}
