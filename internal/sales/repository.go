package sales

import (
	"context"
	"net/url"

	"github.com/erp-portal/portal/internal/apiclient"
)

// Repository defines the backend operations of the sales module.
type Repository interface {
	List(ctx context.Context, src apiclient.TokenSource, k Kind) ([]Document, error)
	Get(ctx context.Context, src apiclient.TokenSource, k Kind, id string) (Document, error)
	Create(ctx context.Context, src apiclient.TokenSource, k Kind, d Draft) (Document, error)
	Transition(ctx context.Context, src apiclient.TokenSource, k Kind, id string) (Document, error)
	Customers(ctx context.Context, src apiclient.TokenSource) ([]Customer, error)
	Items(ctx context.Context, src apiclient.TokenSource) ([]Item, error)
	Taxes(ctx context.Context, src apiclient.TokenSource) ([]Tax, error)
}

// APIRepository implements Repository against the REST backend.
type APIRepository struct {
	client *apiclient.Client
}

// NewRepository constructs an APIRepository.
func NewRepository(client *apiclient.Client) *APIRepository {
	return &APIRepository{client: client}
}

func (r *APIRepository) List(ctx context.Context, src apiclient.TokenSource, k Kind) ([]Document, error) {
	var docs []Document
	err := r.client.With(src).Get(ctx, k.Resource, nil, &docs)
	return docs, err
}

func (r *APIRepository) Get(ctx context.Context, src apiclient.TokenSource, k Kind, id string) (Document, error) {
	var doc Document
	err := r.client.With(src).Get(ctx, k.Resource+url.PathEscape(id), nil, &doc)
	return doc, err
}

func (r *APIRepository) Create(ctx context.Context, src apiclient.TokenSource, k Kind, d Draft) (Document, error) {
	var doc Document
	err := r.client.With(src).Post(ctx, k.Resource, nil, d, &doc)
	return doc, err
}

func (r *APIRepository) Transition(ctx context.Context, src apiclient.TokenSource, k Kind, id string) (Document, error) {
	var doc Document
	err := r.client.With(src).Post(ctx, k.Resource+url.PathEscape(id)+"/"+k.Action, nil, nil, &doc)
	return doc, err
}

func (r *APIRepository) Customers(ctx context.Context, src apiclient.TokenSource) ([]Customer, error) {
	var customers []Customer
	err := r.client.With(src).Get(ctx, "customers/", nil, &customers)
	return customers, err
}

func (r *APIRepository) Items(ctx context.Context, src apiclient.TokenSource) ([]Item, error) {
	var items []Item
	err := r.client.With(src).Get(ctx, "items/", nil, &items)
	return items, err
}

func (r *APIRepository) Taxes(ctx context.Context, src apiclient.TokenSource) ([]Tax, error) {
	var taxes []Tax
	err := r.client.With(src).Get(ctx, "taxes/", nil, &taxes)
	return taxes, err
}
