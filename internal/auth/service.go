package auth

import (
	"context"

	"github.com/erp-portal/portal/internal/tokens"
)

const (
	// DashboardPath is the landing page for users with an active company.
	DashboardPath = "/dashboard"
	// OnboardingPath is where users without an active company choose one.
	OnboardingPath = "/onboarding"
)

// Service wraps the authentication flows.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Login exchanges credentials for tokens and stores them in sess.
func (s *Service) Login(ctx context.Context, sess *tokens.Session, creds Credentials) error {
	pair, err := s.repo.Login(ctx, creds)
	if err != nil {
		return err
	}
	sess.Update(pair)
	return nil
}

// Register creates an account and stores its tokens in sess.
func (s *Service) Register(ctx context.Context, sess *tokens.Session, creds Credentials) error {
	pair, err := s.repo.Register(ctx, creds)
	if err != nil {
		return err
	}
	sess.Update(pair)
	return nil
}

// Logout notifies the backend and always clears the tokens.
func (s *Service) Logout(ctx context.Context, sess *tokens.Session) error {
	var err error
	if sess.State() != tokens.Anonymous {
		err = s.repo.Logout(ctx, sess)
	}
	sess.Clear()
	return err
}

// Companies lists the user's companies.
func (s *Service) Companies(ctx context.Context, sess *tokens.Session) ([]Company, error) {
	return s.repo.Companies(ctx, sess)
}

// SelectCompany switches the active tenant and replaces the token pair.
func (s *Service) SelectCompany(ctx context.Context, sess *tokens.Session, companyID string) error {
	pair, err := s.repo.SelectCompany(ctx, sess, companyID)
	if err != nil {
		return err
	}
	sess.Update(pair)
	return nil
}

// CreateCompany creates a company and immediately selects it.
func (s *Service) CreateCompany(ctx context.Context, sess *tokens.Session, in CompanyInput) (Company, error) {
	company, err := s.repo.CreateCompany(ctx, sess, in)
	if err != nil {
		return Company{}, err
	}
	return company, s.SelectCompany(ctx, sess, company.ID)
}

// Landing returns where a session belongs after authenticating.
func Landing(sess *tokens.Session) string {
	if sess.Claims().HasCompany() {
		return DashboardPath
	}
	return OnboardingPath
}
