package hr

import (
	"context"

	"github.com/erp-portal/portal/internal/apiclient"
)

const (
	getPath    = "onboarding"
	savePath   = "onboarding/save"
	submitPath = "onboarding/submit"
)

// Repository persists onboarding drafts.
type Repository interface {
	Get(ctx context.Context, src apiclient.TokenSource) (*Record, error)
	Save(ctx context.Context, src apiclient.TokenSource, rec Record) (Record, error)
	Submit(ctx context.Context, src apiclient.TokenSource, rec Record) (Record, error)
}

// APIRepository talks to the onboarding endpoints of the backend.
type APIRepository struct {
	client *apiclient.Client
}

// NewRepository constructs an APIRepository.
func NewRepository(client *apiclient.Client) *APIRepository {
	return &APIRepository{client: client}
}

// Get returns the stored draft, or nil when none exists yet.
func (r *APIRepository) Get(ctx context.Context, src apiclient.TokenSource) (*Record, error) {
	var out envelope
	if err := r.client.With(src).Get(ctx, getPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Save stores rec as a draft.
func (r *APIRepository) Save(ctx context.Context, src apiclient.TokenSource, rec Record) (Record, error) {
	return r.post(ctx, src, savePath, rec)
}

// Submit sends rec for approval.
func (r *APIRepository) Submit(ctx context.Context, src apiclient.TokenSource, rec Record) (Record, error) {
	rec.Status = StatusSubmitted
	return r.post(ctx, src, submitPath, rec)
}

func (r *APIRepository) post(ctx context.Context, src apiclient.TokenSource, path string, rec Record) (Record, error) {
	var out envelope
	if err := r.client.With(src).Post(ctx, path, nil, normalize(rec), &out); err != nil {
		return Record{}, err
	}
	if out.Data == nil {
		return normalize(rec), nil
	}
	return normalize(*out.Data), nil
}
