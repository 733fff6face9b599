package auth

import (
	"context"
	"net/url"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/tokens"
)

// Repository defines the backend operations of the auth module.
type Repository interface {
	Login(ctx context.Context, creds Credentials) (tokens.Pair, error)
	Register(ctx context.Context, creds Credentials) (tokens.Pair, error)
	Logout(ctx context.Context, src apiclient.TokenSource) error
	Companies(ctx context.Context, src apiclient.TokenSource) ([]Company, error)
	CreateCompany(ctx context.Context, src apiclient.TokenSource, in CompanyInput) (Company, error)
	SelectCompany(ctx context.Context, src apiclient.TokenSource, companyID string) (tokens.Pair, error)
}

// APIRepository implements Repository against the REST backend.
type APIRepository struct {
	client *apiclient.Client
}

// NewRepository constructs an APIRepository.
func NewRepository(client *apiclient.Client) *APIRepository {
	return &APIRepository{client: client}
}

func (r *APIRepository) anonymous() *apiclient.Caller {
	return r.client.With(tokens.NewSession("", ""))
}

func (r *APIRepository) Login(ctx context.Context, creds Credentials) (tokens.Pair, error) {
	var pair tokens.Pair
	err := r.anonymous().Post(ctx, "auth/login", nil, creds, &pair)
	return pair, err
}

func (r *APIRepository) Register(ctx context.Context, creds Credentials) (tokens.Pair, error) {
	var pair tokens.Pair
	err := r.anonymous().Post(ctx, "auth/register", nil, creds, &pair)
	return pair, err
}

func (r *APIRepository) Logout(ctx context.Context, src apiclient.TokenSource) error {
	return r.client.With(src).Post(ctx, "auth/logout", nil, nil, nil)
}

func (r *APIRepository) Companies(ctx context.Context, src apiclient.TokenSource) ([]Company, error) {
	var companies []Company
	err := r.client.With(src).Get(ctx, "companies/", nil, &companies)
	return companies, err
}

func (r *APIRepository) CreateCompany(ctx context.Context, src apiclient.TokenSource, in CompanyInput) (Company, error) {
	var company Company
	err := r.client.With(src).Post(ctx, "companies/", nil, in, &company)
	return company, err
}

func (r *APIRepository) SelectCompany(ctx context.Context, src apiclient.TokenSource, companyID string) (tokens.Pair, error) {
	var pair tokens.Pair
	err := r.client.With(src).Post(ctx, "companies/select/"+url.PathEscape(companyID), nil, nil, &pair)
	return pair, err
}
