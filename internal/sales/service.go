package sales

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/erp-portal/portal/internal/apiclient"
)

// Service wraps the sales flows.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Catalog holds the master lists a draft form needs.
type Catalog struct {
	Customers []Customer
	Items     []Item
	Taxes     []Tax
}

// Rates indexes tax rates by id.
func (c Catalog) Rates() map[string]float64 {
	out := make(map[string]float64, len(c.Taxes))
	for _, t := range c.Taxes {
		out[t.ID] = t.Rate
	}
	return out
}

func (c Catalog) itemsByID() map[string]Item {
	out := make(map[string]Item, len(c.Items))
	for _, it := range c.Items {
		out[it.ID] = it
	}
	return out
}

// List returns every document of kind k.
func (s *Service) List(ctx context.Context, src apiclient.TokenSource, k Kind) ([]Document, error) {
	return s.repo.List(ctx, src, k)
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, src apiclient.TokenSource, k Kind, id string) (Document, error) {
	return s.repo.Get(ctx, src, k, id)
}

// Create posts the draft and returns the priced document.
func (s *Service) Create(ctx context.Context, src apiclient.TokenSource, k Kind, d Draft) (Document, error) {
	return s.repo.Create(ctx, src, k, d)
}

// Transition runs the kind's status action on a document.
func (s *Service) Transition(ctx context.Context, src apiclient.TokenSource, k Kind, id string) (Document, error) {
	return s.repo.Transition(ctx, src, k, id)
}

// Catalog loads customers, items and taxes concurrently. A failed list is
// logged and left empty; only an expired session aborts the load.
func (s *Service) Catalog(ctx context.Context, src apiclient.TokenSource) (Catalog, error) {
	var c Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers, err := s.repo.Customers(gctx, src)
		c.Customers = customers
		return s.optional("customers", err)
	})
	g.Go(func() error {
		items, err := s.repo.Items(gctx, src)
		c.Items = items
		return s.optional("items", err)
	})
	g.Go(func() error {
		taxes, err := s.repo.Taxes(gctx, src)
		c.Taxes = taxes
		return s.optional("taxes", err)
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (s *Service) optional(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apiclient.ErrSessionExpired) {
		return err
	}
	s.logger.Warn("load "+what+" options", slog.Any("error", err))
	return nil
}
