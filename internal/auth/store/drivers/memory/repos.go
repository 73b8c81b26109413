package memory

import (
	"context"
	"sort"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

type identitiesRepo struct{ r runner }

func (repo *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	var out domain.Identity
	err := repo.r.run(func(st *state) error {
		i, ok := st.identities[id]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneIdentity(i)
		return nil
	})
	return out, err
}

func (repo *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	var out domain.Identity
	err := repo.r.run(func(st *state) error {
		id, ok := st.emails[email]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneIdentity(st.identities[id])
		return nil
	})
	return out, err
}

func (repo *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	return repo.r.run(func(st *state) error {
		if _, ok := st.identities[i.ID]; ok {
			return store.ErrAlreadyExists
		}
		if _, ok := st.emails[i.Email]; ok {
			return store.ErrAlreadyExists
		}
		if _, ok := st.roles[i.RoleID]; !ok {
			return store.ErrNotFound
		}
		if i.MFAEnabled && i.MFASecret == nil {
			return store.ErrConflict
		}

		if i.CreatedAt.IsZero() {
			i.CreatedAt = time.Now().UTC()
		}
		if i.UpdatedAt.IsZero() {
			i.UpdatedAt = i.CreatedAt
		}
		st.identities[i.ID] = cloneIdentity(i)
		st.emails[i.Email] = i.ID
		return nil
	})
}

func (repo *identitiesRepo) UpdateCredentialHash(ctx context.Context, id string, hash string, now time.Time) error {
	return repo.r.run(func(st *state) error {
		i, ok := st.identities[id]
		if !ok {
			return store.ErrNotFound
		}
		i.CredentialHash = hash
		i.UpdatedAt = now.UTC()
		st.identities[id] = i
		return nil
	})
}

func (repo *identitiesRepo) SetPendingMFASecret(ctx context.Context, id string, secret string, now time.Time) error {
	return repo.r.run(func(st *state) error {
		i, ok := st.identities[id]
		if !ok {
			return store.ErrNotFound
		}
		if i.MFAEnabled {
			return store.ErrConflict
		}
		i.MFASecret = &secret
		i.UpdatedAt = now.UTC()
		st.identities[id] = i
		return nil
	})
}

func (repo *identitiesRepo) EnableMFA(ctx context.Context, id string, expectedSecret string, now time.Time) error {
	return repo.r.run(func(st *state) error {
		i, ok := st.identities[id]
		if !ok {
			return store.ErrNotFound
		}
		if i.MFAEnabled || i.MFASecret == nil || *i.MFASecret != expectedSecret {
			return store.ErrConflict
		}
		at := now.UTC()
		i.MFAEnabled = true
		i.MFAEnabledAt = &at
		i.UpdatedAt = at
		st.identities[id] = i
		return nil
	})
}

func (repo *identitiesRepo) DisableMFA(ctx context.Context, id string, now time.Time) error {
	return repo.r.run(func(st *state) error {
		i, ok := st.identities[id]
		if !ok {
			return store.ErrNotFound
		}
		i.MFAEnabled = false
		i.MFASecret = nil
		i.MFAEnabledAt = nil
		i.UpdatedAt = now.UTC()
		st.identities[id] = i
		return nil
	})
}

type rolesRepo struct{ r runner }

func (repo *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	var out domain.Role
	err := repo.r.run(func(st *state) error {
		role, ok := st.roles[id]
		if !ok {
			return store.ErrNotFound
		}
		out = role
		return nil
	})
	return out, err
}

func (repo *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var out domain.Role
	err := repo.r.run(func(st *state) error {
		id, ok := st.roleNames[name]
		if !ok {
			return store.ErrNotFound
		}
		out = st.roles[id]
		return nil
	})
	return out, err
}

func (repo *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var out []domain.Role
	err := repo.r.run(func(st *state) error {
		out = make([]domain.Role, 0, len(st.roles))
		for _, role := range st.roles {
			out = append(out, role)
		}
		sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
		return nil
	})
	return out, err
}

func (repo *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	return repo.r.run(func(st *state) error {
		if _, ok := st.roles[role.ID]; ok {
			return store.ErrAlreadyExists
		}
		if _, ok := st.roleNames[role.Name]; ok {
			return store.ErrAlreadyExists
		}
		if role.CreatedAt.IsZero() {
			role.CreatedAt = time.Now().UTC()
		}
		if role.UpdatedAt.IsZero() {
			role.UpdatedAt = role.CreatedAt
		}
		st.roles[role.ID] = role
		st.roleNames[role.Name] = role.ID
		return nil
	})
}

type totpStepsRepo struct{ r runner }

func (repo *totpStepsRepo) ConsumeTOTPStep(ctx context.Context, identityID string, step int64, expiresAt time.Time) error {
	return repo.r.run(func(st *state) error {
		if _, ok := st.identities[identityID]; !ok {
			return store.ErrNotFound
		}
		k := totpKey{identityID: identityID, step: step}
		if _, ok := st.totpSteps[k]; ok {
			return store.ErrAlreadyExists
		}
		st.totpSteps[k] = expiresAt.UnixNano()
		return nil
	})
}

func (repo *totpStepsRepo) DeleteExpiredTOTPSteps(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := repo.r.run(func(st *state) error {
		cutoff := now.UnixNano()
		for k, exp := range st.totpSteps {
			if exp < cutoff {
				delete(st.totpSteps, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

type signingKeysRepo struct{ r runner }

func (repo *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	return repo.r.run(func(st *state) error {
		if _, ok := st.signingKeys[key.ID]; ok {
			return store.ErrAlreadyExists
		}
		for _, existing := range st.signingKeys {
			if existing.Kid == key.Kid {
				return store.ErrAlreadyExists
			}
		}
		st.signingKeys[key.ID] = cloneSigningKey(key)
		return nil
	})
}

func (repo *signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	var out []domain.SigningKey
	err := repo.r.run(func(st *state) error {
		out = make([]domain.SigningKey, 0, len(st.signingKeys))
		for _, k := range st.signingKeys {
			out = append(out, cloneSigningKey(k))
		}
		sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
		return nil
	})
	return out, err
}

func (repo *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := repo.r.run(func(st *state) error {
		for id, k := range st.signingKeys {
			if k.ExpiresAt.Before(before) {
				delete(st.signingKeys, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
