package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/idx"
)

var (
	ErrRoleNameRequired = errors.New("role name is required")
	ErrRoleExists       = errors.New("role already exists")
)

type RolesService struct {
	Store store.Store
	Now   func() time.Time
}

// GetRoleByID fetches a role by its ID.
func (s *RolesService) GetRoleByID(ctx context.Context, roleID string) (domain.Role, error) {
	return s.Store.Roles().GetRoleByID(ctx, roleID)
}

// ListRoles returns all roles ordered by name.
func (s *RolesService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListRoles(ctx)
}

func (s *RolesService) CreateRole(ctx context.Context, name string) (domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Role{}, ErrRoleNameRequired
	}

	now := nowFunc(s.Now)
	role := domain.Role{
		ID:        idx.NewAt(now).String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Role{}, ErrRoleExists
		}
		return domain.Role{}, err
	}
	return role, nil
}

// EnsureRoles creates any of names that do not exist yet.
func (s *RolesService) EnsureRoles(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := s.CreateRole(ctx, name); err != nil && !errors.Is(err, ErrRoleExists) {
			return err
		}
	}
	return nil
}
