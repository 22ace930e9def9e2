package profiles

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// Service handles profile administration outside the authorization path.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.repo.List(ctx)
}

// Get fetches a single profile.
func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// Deactivate revokes access for a profile without deleting it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// Activate restores access for a profile.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}

// AssignRole changes a profile's role.
func (s *Service) AssignRole(ctx context.Context, id int64, role authz.Role) error {
	if !role.Valid() {
		return errInvalidRole(role)
	}
	return s.repo.SetRole(ctx, id, role)
}

type errInvalidRole authz.Role

func (e errInvalidRole) Error() string {
	return "profiles: invalid role " + string(e)
}
