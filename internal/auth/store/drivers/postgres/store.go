package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlstore"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Dialect is the postgres flavour of the shared SQL.
var Dialect = sqlstore.Dialect{
	Name:   "postgres",
	Rebind: sqlstore.RebindDollar,
	IsUniqueViolation: func(err error) bool {
		return hasCode(err, codeUniqueViolation)
	},
	IsForeignKeyViolation: func(err error) bool {
		return hasCode(err, codeForeignKeyViolation)
	},
}

func hasCode(err error, code string) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && string(pe.Code) == code
}

// NewStore opens a postgres database through lib/pq and checks it is reachable.
func NewStore(dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqlstore.NewStore(db, Dialect, applyMigrations), nil
}
