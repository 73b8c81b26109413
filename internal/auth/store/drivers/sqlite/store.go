package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlstore"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect is the sqlite flavour of the shared SQL.
var Dialect = sqlstore.Dialect{
	Name:   "sqlite",
	Rebind: sqlstore.RebindQuestion,
	IsUniqueViolation: func(err error) bool {
		code, ok := errorCode(err)
		return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
	},
	IsForeignKeyViolation: func(err error) bool {
		code, ok := errorCode(err)
		return ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	},
}

func errorCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code(), true
}

// FileDSN builds a DSN for a database file with the pragmas applied on every
// pooled connection, not just the first.
func FileDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewStore opens a sqlite database. Use ":memory:" for an ephemeral store;
// it is pinned to a single connection so every query sees the same database.
func NewStore(dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqlstore.NewStore(db, Dialect, applyMigrations), nil
}
