package users

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/roles"
	"github.com/erp-portal/portal/internal/tokens"
)

// ErrNoCompany is returned when the session has no active company.
var ErrNoCompany = errors.New("users: no active company")

// Service wraps the directory and role assignment flows.
type Service struct {
	repo  Repository
	roles *roles.Service
}

// NewService constructs a Service.
func NewService(repo Repository, roleService *roles.Service) *Service {
	return &Service{repo: repo, roles: roleService}
}

func companyOf(sess *tokens.Session) (string, error) {
	id := sess.Claims().ActiveCompanyID
	if id == "" {
		return "", ErrNoCompany
	}
	return id, nil
}

// Directory returns the company users whose name or email contains search,
// case-insensitively, in backend order.
func (s *Service) Directory(ctx context.Context, sess *tokens.Session, search string) ([]User, error) {
	cid, err := companyOf(sess)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, sess, cid)
	if err != nil {
		return nil, err
	}
	return mastertable.Filter(users, search, mastertable.Fields[User]("full_name", "email")), nil
}

// Find returns one company user.
func (s *Service) Find(ctx context.Context, sess *tokens.Session, id string) (User, bool, error) {
	users, err := s.Directory(ctx, sess, "")
	if err != nil {
		return User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

// Invite adds a user to the active company.
func (s *Service) Invite(ctx context.Context, sess *tokens.Session, in Invite) (User, error) {
	cid, err := companyOf(sess)
	if err != nil {
		return User{}, err
	}
	return s.repo.Invite(ctx, sess, cid, in)
}

// RoleOption is one company role with the user's assignment state.
type RoleOption struct {
	Role     roles.Role
	Assigned bool
}

// Assignments is the role panel of one user.
type Assignments struct {
	Options   []RoleOption
	Effective []string
}

// Assignments loads the company roles and the user's roles concurrently.
func (s *Service) Assignments(ctx context.Context, sess *tokens.Session, userID string) (Assignments, error) {
	var all, mine []roles.Role
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.roles.List(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = s.roles.UserRoles(gctx, sess, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Assignments{}, err
	}

	assigned := make(map[string]bool, len(mine))
	for _, r := range mine {
		assigned[r.ID] = true
	}
	out := Assignments{Effective: roles.EffectivePermissions(mine)}
	for _, r := range all {
		out.Options = append(out.Options, RoleOption{Role: r, Assigned: assigned[r.ID]})
	}
	return out, nil
}

// ToggleRole assigns or revokes roleID for userID.
func (s *Service) ToggleRole(ctx context.Context, sess *tokens.Session, userID, roleID string) (bool, error) {
	return s.roles.Toggle(ctx, sess, userID, roleID)
}
