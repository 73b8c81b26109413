package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

// Store implements store.Store over database/sql. The sqlite and postgres
// drivers construct it with their own Dialect and migration function.
type Store struct {
	db      *sql.DB
	d       Dialect
	q       *Queries
	migrate func(db *sql.DB) error
}

func NewStore(db *sql.DB, d Dialect, migrate func(db *sql.DB) error) *Store {
	return &Store{
		db:      db,
		d:       d,
		q:       New(db, d),
		migrate: migrate,
	}
}

// DB exposes the underlying handle, for drivers and tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.d }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ApplyMigrations runs the driver's embedded migrations.
func (s *Store) ApplyMigrations() error {
	if s.migrate == nil {
		return errors.New("sqlstore: no migrations configured")
	}
	return s.migrate(s.db)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx, s.d), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Identities() store.Identities   { return &identitiesRepo{q: s.q, d: s.d} }
func (s *Store) Roles() store.Roles             { return &rolesRepo{q: s.q, d: s.d} }
func (s *Store) TOTPSteps() store.TOTPSteps     { return &totpStepsRepo{q: s.q, d: s.d} }
func (s *Store) SigningKeys() store.SigningKeys { return &signingKeysRepo{q: s.q, d: s.d} }

type txStore struct {
	tx *sql.Tx
	d  Dialect
	q  *Queries
}

func newTx(tx *sql.Tx, d Dialect) *txStore {
	return &txStore{tx: tx, d: d, q: New(tx, d)}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits or rolls back; outer DB stays open

// Ping is a no-op for transactions; the connection is already established.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx

func (t *txStore) Identities() store.Identities   { return &identitiesRepo{q: t.q, d: t.d} }
func (t *txStore) Roles() store.Roles             { return &rolesRepo{q: t.q, d: t.d} }
func (t *txStore) TOTPSteps() store.TOTPSteps     { return &totpStepsRepo{q: t.q, d: t.d} }
func (t *txStore) SigningKeys() store.SigningKeys { return &signingKeysRepo{q: t.q, d: t.d} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapWriteErr turns constraint violations into store sentinels.
func mapWriteErr(d Dialect, err error) error {
	switch {
	case err == nil:
		return nil
	case d.IsUniqueViolation != nil && d.IsUniqueViolation(err):
		return store.ErrAlreadyExists
	case d.IsForeignKeyViolation != nil && d.IsForeignKeyViolation(err):
		return store.ErrNotFound
	default:
		return err
	}
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
