package users

import (
	"context"
	"net/url"

	"github.com/erp-portal/portal/internal/apiclient"
)

// Repository defines the backend operations of the users module.
type Repository interface {
	List(ctx context.Context, src apiclient.TokenSource, companyID string) ([]User, error)
	Invite(ctx context.Context, src apiclient.TokenSource, companyID string, in Invite) (User, error)
}

// APIRepository implements Repository against the REST backend.
type APIRepository struct {
	client *apiclient.Client
}

// NewRepository constructs an APIRepository.
func NewRepository(client *apiclient.Client) *APIRepository {
	return &APIRepository{client: client}
}

func usersPath(companyID string) string {
	return "companies/" + url.PathEscape(companyID) + "/users"
}

func (r *APIRepository) List(ctx context.Context, src apiclient.TokenSource, companyID string) ([]User, error) {
	var users []User
	err := r.client.With(src).Get(ctx, usersPath(companyID), nil, &users)
	return users, err
}

func (r *APIRepository) Invite(ctx context.Context, src apiclient.TokenSource, companyID string, in Invite) (User, error) {
	var user User
	err := r.client.With(src).Post(ctx, usersPath(companyID), nil, in, &user)
	return user, err
}
