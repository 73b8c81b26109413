// Package memory is an in-process store.Store used by tests and by
// AUTH_DATABASE_DRIVER=memory. Every operation is serialized; a Tx holds
// the lock until it commits or rolls back and works on a private copy.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

type totpKey struct {
	identityID string
	step       int64
}

type state struct {
	identities  map[string]domain.Identity
	emails      map[string]string // email -> id
	roles       map[string]domain.Role
	roleNames   map[string]string // name -> id
	totpSteps   map[totpKey]int64 // -> expires_at unix nanos
	signingKeys map[string]domain.SigningKey
}

func newState() *state {
	return &state{
		identities:  make(map[string]domain.Identity),
		emails:      make(map[string]string),
		roles:       make(map[string]domain.Role),
		roleNames:   make(map[string]string),
		totpSteps:   make(map[totpKey]int64),
		signingKeys: make(map[string]domain.SigningKey),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.identities {
		c.identities[k] = cloneIdentity(v)
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.roleNames {
		c.roleNames[k] = v
	}
	for k, v := range s.totpSteps {
		c.totpSteps[k] = v
	}
	for k, v := range s.signingKeys {
		c.signingKeys[k] = cloneSigningKey(v)
	}
	return c
}

// runner executes fn against the current state.
type runner interface {
	run(fn func(st *state) error) error
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) run(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Identities() store.Identities   { return &identitiesRepo{r: s} }
func (s *Store) Roles() store.Roles             { return &rolesRepo{r: s} }
func (s *Store) TOTPSteps() store.TOTPSteps     { return &totpStepsRepo{r: s} }
func (s *Store) SigningKeys() store.SigningKeys { return &signingKeysRepo{r: s} }

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Tx locks the store until Commit or Rollback. Using the parent Store from
// inside the transaction deadlocks; use the returned Tx.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &txStore{parent: s, st: s.st.clone()}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type txStore struct {
	parent *Store
	st     *state
	done   bool
}

func (t *txStore) run(fn func(st *state) error) error {
	if t.done {
		return sql.ErrTxDone
	}
	return fn(t.st)
}

func (t *txStore) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.parent.st = t.st
	t.parent.mu.Unlock()
	return nil
}

func (t *txStore) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.parent.mu.Unlock()
	return nil
}

func (t *txStore) Identities() store.Identities   { return &identitiesRepo{r: t} }
func (t *txStore) Roles() store.Roles             { return &rolesRepo{r: t} }
func (t *txStore) TOTPSteps() store.TOTPSteps     { return &totpStepsRepo{r: t} }
func (t *txStore) SigningKeys() store.SigningKeys { return &signingKeysRepo{r: t} }

func (t *txStore) ApplyMigrations() error         { return nil }
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func cloneIdentity(i domain.Identity) domain.Identity {
	if i.MFASecret != nil {
		v := *i.MFASecret
		i.MFASecret = &v
	}
	if i.MFAEnabledAt != nil {
		v := *i.MFAEnabledAt
		i.MFAEnabledAt = &v
	}
	return i
}

func cloneSigningKey(k domain.SigningKey) domain.SigningKey {
	k.PrivateKeyEncrypted = append([]byte(nil), k.PrivateKeyEncrypted...)
	if k.RetiredAt != nil {
		v := *k.RetiredAt
		k.RetiredAt = &v
	}
	return k
}
