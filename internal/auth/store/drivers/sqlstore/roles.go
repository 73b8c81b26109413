package sqlstore

import (
	"context"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
)

type rolesRepo struct {
	q *Queries
	d Dialect
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	row, err := r.q.GetRoleByID(ctx, id)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return mapRole(row), nil
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	row, err := r.q.GetRoleByName(ctx, name)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return mapRole(row), nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.q.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	roles := make([]domain.Role, len(rows))
	for i, row := range rows {
		roles[i] = mapRole(row)
	}
	return roles, nil
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	createdAt := role.CreatedAt.UTC()
	if role.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := role.UpdatedAt.UTC()
	if role.UpdatedAt.IsZero() {
		updatedAt = createdAt
	}

	err := r.q.CreateRole(ctx, RoleRow{
		ID:        role.ID,
		Name:      role.Name,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	})
	return mapWriteErr(r.d, err)
}

func mapRole(row RoleRow) domain.Role {
	return domain.Role{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
