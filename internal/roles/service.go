package roles

import (
	"context"
	"errors"

	"github.com/erp-portal/portal/internal/tokens"
)

var (
	// ErrNoCompany is returned when the session has no active company.
	ErrNoCompany = errors.New("roles: no active company")
	// ErrSystemRole is returned for writes to a system role; no request is sent.
	ErrSystemRole = errors.New("roles: system roles cannot be modified")
)

// Service wraps role management and user role assignment.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func companyOf(sess *tokens.Session) (string, error) {
	id := sess.Claims().ActiveCompanyID
	if id == "" {
		return "", ErrNoCompany
	}
	return id, nil
}

// List returns the roles of the active company.
func (s *Service) List(ctx context.Context, sess *tokens.Session) ([]Role, error) {
	cid, err := companyOf(sess)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, sess, cid)
}

// Find returns one role of the active company from the list.
func (s *Service) Find(ctx context.Context, sess *tokens.Session, id string) (Role, []Role, bool, error) {
	roles, err := s.List(ctx, sess)
	if err != nil {
		return Role{}, nil, false, err
	}
	for _, r := range roles {
		if r.ID == id {
			return r, roles, true, nil
		}
	}
	return Role{}, roles, false, nil
}

// Create adds a custom role.
func (s *Service) Create(ctx context.Context, sess *tokens.Session, d Draft) (Role, error) {
	cid, err := companyOf(sess)
	if err != nil {
		return Role{}, err
	}
	return s.repo.Create(ctx, sess, cid, d)
}

// Update replaces the name, description and permission keys of a custom role.
func (s *Service) Update(ctx context.Context, sess *tokens.Session, role Role, d Draft) (Role, error) {
	if role.IsSystem {
		return Role{}, ErrSystemRole
	}
	cid, err := companyOf(sess)
	if err != nil {
		return Role{}, err
	}
	return s.repo.Update(ctx, sess, cid, role.ID, d)
}

// Delete removes a custom role.
func (s *Service) Delete(ctx context.Context, sess *tokens.Session, role Role) error {
	if role.IsSystem {
		return ErrSystemRole
	}
	cid, err := companyOf(sess)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, sess, cid, role.ID)
}

// Catalog returns the permission catalog grouped by module.
func (s *Service) Catalog(ctx context.Context, sess *tokens.Session) ([]ModuleGroup, error) {
	return s.repo.Catalog(ctx, sess)
}

// UserRoles returns the roles assigned to a user in the active company.
func (s *Service) UserRoles(ctx context.Context, sess *tokens.Session, userID string) ([]Role, error) {
	cid, err := companyOf(sess)
	if err != nil {
		return nil, err
	}
	return s.repo.UserRoles(ctx, sess, cid, userID)
}

// Toggle assigns the role when the user lacks it and revokes it otherwise.
// It reports whether the role is assigned afterwards.
func (s *Service) Toggle(ctx context.Context, sess *tokens.Session, userID, roleID string) (bool, error) {
	cid, err := companyOf(sess)
	if err != nil {
		return false, err
	}
	current, err := s.repo.UserRoles(ctx, sess, cid, userID)
	if err != nil {
		return false, err
	}
	a := Assignment{UserID: userID, RoleID: roleID}
	for _, r := range current {
		if r.ID == roleID {
			return false, s.repo.Revoke(ctx, sess, cid, a)
		}
	}
	return true, s.repo.Assign(ctx, sess, cid, a)
}
