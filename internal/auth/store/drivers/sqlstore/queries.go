package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Dialect holds the engine specific pieces. Queries are written with `?`
// placeholders and rebound per dialect.
type Dialect struct {
	Name                  string
	Rebind                func(query string) string
	IsUniqueViolation     func(err error) bool
	IsForeignKeyViolation func(err error) bool
}

// RebindQuestion leaves `?` placeholders as they are.
func RebindQuestion(query string) string { return query }

// RebindDollar rewrites `?` placeholders to `$1..$n`.
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type Queries struct {
	db DBTX
	d  Dialect
}

func New(db DBTX, d Dialect) *Queries {
	return &Queries{db: db, d: d}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.d.Rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.d.Rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.d.Rebind(query), args...)
}

type IdentityRow struct {
	ID             string
	Email          string
	CredentialHash string
	RoleID         string
	MfaEnabled     bool
	MfaSecret      sql.NullString
	MfaEnabledAt   sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const identityColumns = `id, email, credential_hash, role_id, mfa_enabled, mfa_secret, mfa_enabled_at, created_at, updated_at`

func scanIdentity(row interface{ Scan(...any) error }) (IdentityRow, error) {
	var i IdentityRow
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.CredentialHash,
		&i.RoleID,
		&i.MfaEnabled,
		&i.MfaSecret,
		&i.MfaEnabledAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getIdentityByID = `SELECT ` + identityColumns + ` FROM identities WHERE id = ?`

func (q *Queries) GetIdentityByID(ctx context.Context, id string) (IdentityRow, error) {
	return scanIdentity(q.queryRow(ctx, getIdentityByID, id))
}

const getIdentityByEmail = `SELECT ` + identityColumns + ` FROM identities WHERE email = ?`

func (q *Queries) GetIdentityByEmail(ctx context.Context, email string) (IdentityRow, error) {
	return scanIdentity(q.queryRow(ctx, getIdentityByEmail, email))
}

const createIdentity = `INSERT INTO identities (
	id, email, credential_hash, role_id, mfa_enabled, mfa_secret, mfa_enabled_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateIdentity(ctx context.Context, arg IdentityRow) error {
	_, err := q.exec(ctx, createIdentity,
		arg.ID,
		arg.Email,
		arg.CredentialHash,
		arg.RoleID,
		arg.MfaEnabled,
		arg.MfaSecret,
		arg.MfaEnabledAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const updateCredentialHash = `UPDATE identities SET credential_hash = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateCredentialHash(ctx context.Context, id, hash string, now time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, updateCredentialHash, hash, now, id))
}

const setPendingMFASecret = `UPDATE identities
SET mfa_secret = ?, updated_at = ?
WHERE id = ? AND mfa_enabled = FALSE`

func (q *Queries) SetPendingMFASecret(ctx context.Context, id, secret string, now time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, setPendingMFASecret, secret, now, id))
}

const enableMFA = `UPDATE identities
SET mfa_enabled = TRUE, mfa_enabled_at = ?, updated_at = ?
WHERE id = ? AND mfa_secret = ? AND mfa_enabled = FALSE`

func (q *Queries) EnableMFA(ctx context.Context, id, expectedSecret string, now time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, enableMFA, now, now, id, expectedSecret))
}

const disableMFA = `UPDATE identities
SET mfa_enabled = FALSE, mfa_secret = NULL, mfa_enabled_at = NULL, updated_at = ?
WHERE id = ?`

func (q *Queries) DisableMFA(ctx context.Context, id string, now time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, disableMFA, now, id))
}

const countIdentitiesByID = `SELECT COUNT(*) FROM identities WHERE id = ?`

func (q *Queries) IdentityExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := q.queryRow(ctx, countIdentitiesByID, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

type RoleRow struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const getRoleByID = `SELECT id, name, created_at, updated_at FROM roles WHERE id = ?`

func (q *Queries) GetRoleByID(ctx context.Context, id string) (RoleRow, error) {
	var r RoleRow
	err := q.queryRow(ctx, getRoleByID, id).Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getRoleByName = `SELECT id, name, created_at, updated_at FROM roles WHERE name = ?`

func (q *Queries) GetRoleByName(ctx context.Context, name string) (RoleRow, error) {
	var r RoleRow
	err := q.queryRow(ctx, getRoleByName, name).Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const listRoles = `SELECT id, name, created_at, updated_at FROM roles ORDER BY name`

func (q *Queries) ListRoles(ctx context.Context) ([]RoleRow, error) {
	rows, err := q.query(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RoleRow
	for rows.Next() {
		var r RoleRow
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createRole = `INSERT INTO roles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateRole(ctx context.Context, arg RoleRow) error {
	_, err := q.exec(ctx, createRole, arg.ID, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const consumeTOTPStep = `INSERT INTO totp_used_steps (identity_id, step, expires_at)
VALUES (?, ?, ?)
ON CONFLICT (identity_id, step) DO NOTHING`

func (q *Queries) ConsumeTOTPStep(ctx context.Context, identityID string, step int64, expiresAt time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, consumeTOTPStep, identityID, step, expiresAt))
}

const deleteExpiredTOTPSteps = `DELETE FROM totp_used_steps WHERE expires_at < ?`

func (q *Queries) DeleteExpiredTOTPSteps(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, deleteExpiredTOTPSteps, now))
}

type SigningKeyRow struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           sql.NullTime
	ExpiresAt           time.Time
}

const createSigningKey = `INSERT INTO signing_keys (
	id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at
) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSigningKey(ctx context.Context, arg SigningKeyRow) error {
	_, err := q.exec(ctx, createSigningKey,
		arg.ID,
		arg.Kid,
		arg.Algorithm,
		arg.PrivateKeyEncrypted,
		arg.CreatedAt,
		arg.RetiredAt,
		arg.ExpiresAt,
	)
	return err
}

const listSigningKeys = `SELECT id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at
FROM signing_keys
ORDER BY created_at DESC`

func (q *Queries) ListSigningKeys(ctx context.Context) ([]SigningKeyRow, error) {
	rows, err := q.query(ctx, listSigningKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SigningKeyRow
	for rows.Next() {
		var k SigningKeyRow
		if err := rows.Scan(
			&k.ID,
			&k.Kid,
			&k.Algorithm,
			&k.PrivateKeyEncrypted,
			&k.CreatedAt,
			&k.RetiredAt,
			&k.ExpiresAt,
		); err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, rows.Err()
}

const deleteExpiredSigningKeys = `DELETE FROM signing_keys WHERE expires_at < ?`

func (q *Queries) DeleteExpiredSigningKeys(ctx context.Context, before time.Time) (int64, error) {
	return rowsAffected(q.exec(ctx, deleteExpiredSigningKeys, before))
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
