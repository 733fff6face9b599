package roles

import (
	"context"
	"net/url"

	"github.com/erp-portal/portal/internal/apiclient"
)

// Repository defines the backend operations of the roles module. Every call
// is scoped by the active company id.
type Repository interface {
	List(ctx context.Context, src apiclient.TokenSource, companyID string) ([]Role, error)
	Create(ctx context.Context, src apiclient.TokenSource, companyID string, d Draft) (Role, error)
	Update(ctx context.Context, src apiclient.TokenSource, companyID, id string, d Draft) (Role, error)
	Delete(ctx context.Context, src apiclient.TokenSource, companyID, id string) error
	Catalog(ctx context.Context, src apiclient.TokenSource) ([]ModuleGroup, error)
	UserRoles(ctx context.Context, src apiclient.TokenSource, companyID, userID string) ([]Role, error)
	Assign(ctx context.Context, src apiclient.TokenSource, companyID string, a Assignment) error
	Revoke(ctx context.Context, src apiclient.TokenSource, companyID string, a Assignment) error
}

// APIRepository implements Repository against the REST backend.
type APIRepository struct {
	client *apiclient.Client
}

// NewRepository constructs an APIRepository.
func NewRepository(client *apiclient.Client) *APIRepository {
	return &APIRepository{client: client}
}

func scope(companyID string) url.Values {
	return url.Values{"company_id": {companyID}}
}

func (r *APIRepository) List(ctx context.Context, src apiclient.TokenSource, companyID string) ([]Role, error) {
	var roles []Role
	err := r.client.With(src).Get(ctx, "roles/", scope(companyID), &roles)
	return roles, err
}

func (r *APIRepository) Create(ctx context.Context, src apiclient.TokenSource, companyID string, d Draft) (Role, error) {
	var role Role
	err := r.client.With(src).Post(ctx, "roles/", scope(companyID), d, &role)
	return role, err
}

func (r *APIRepository) Update(ctx context.Context, src apiclient.TokenSource, companyID, id string, d Draft) (Role, error) {
	var role Role
	err := r.client.With(src).Patch(ctx, "roles/"+url.PathEscape(id), scope(companyID), d, &role)
	return role, err
}

func (r *APIRepository) Delete(ctx context.Context, src apiclient.TokenSource, companyID, id string) error {
	return r.client.With(src).Delete(ctx, "roles/"+url.PathEscape(id), scope(companyID), nil)
}

func (r *APIRepository) Catalog(ctx context.Context, src apiclient.TokenSource) ([]ModuleGroup, error) {
	var groups []ModuleGroup
	err := r.client.With(src).Get(ctx, "permissions/modules", nil, &groups)
	return groups, err
}

func (r *APIRepository) UserRoles(ctx context.Context, src apiclient.TokenSource, companyID, userID string) ([]Role, error) {
	var roles []Role
	err := r.client.With(src).Get(ctx, "roles/user/"+url.PathEscape(userID), scope(companyID), &roles)
	return roles, err
}

func (r *APIRepository) Assign(ctx context.Context, src apiclient.TokenSource, companyID string, a Assignment) error {
	return r.client.With(src).Post(ctx, "roles/assign", scope(companyID), a, nil)
}

func (r *APIRepository) Revoke(ctx context.Context, src apiclient.TokenSource, companyID string, a Assignment) error {
	return r.client.With(src).Post(ctx, "roles/revoke", scope(companyID), a, nil)
}
