// Package dashboard serves the landing page of a company workspace.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/sales"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

const (
	pageTemplate = "pages/dashboard.html"
	recentLimit  = 5
)

// Stats is the workspace summary returned by the backend.
type Stats struct {
	UserCount   int    `json:"user_count"`
	RoleCount   int    `json:"role_count"`
	CompanyName string `json:"company_name" validate:"required"`
}

// Handler renders the dashboard.
type Handler struct {
	logger *slog.Logger
	client *apiclient.Client
	docs   sales.Repository
	pages  *view.Responder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, client *apiclient.Client, docs sales.Repository, pages *view.Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, client: client, docs: docs, pages: pages}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

type pageData struct {
	Stats            *Stats
	Email            string
	RecentQuotations []sales.Document
	RecentInvoices   []sales.Document
	ShowQuotations   bool
	ShowInvoices     bool
}

// show loads each widget concurrently. A failed widget renders empty and
// contributes to one error toast; only an expired session aborts the page.
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := tokens.FromContext(r.Context())
	perms := permissions.FromContext(r.Context())
	data := pageData{
		Email:          sess.Claims().Subject,
		ShowQuotations: perms.Has("sales.quote.view"),
		ShowInvoices:   perms.Has("sales.invoice.view"),
	}

	var (
		failed   = make([]string, 3)
		stats    Stats
		statsOK  bool
		quotes   []sales.Document
		invoices []sales.Document
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		err := h.client.With(sess).Get(ctx, "dashboard/stats", nil, &stats)
		statsOK = err == nil
		return h.widget(err, "workspace stats", &failed[0])
	})
	if data.ShowQuotations {
		g.Go(func() error {
			docs, err := h.docs.List(ctx, sess, sales.Quotations)
			quotes = docs
			return h.widget(err, "recent quotations", &failed[1])
		})
	}
	if data.ShowInvoices {
		g.Go(func() error {
			docs, err := h.docs.List(ctx, sess, sales.Invoices)
			invoices = docs
			return h.widget(err, "recent invoices", &failed[2])
		})
	}
	if err := g.Wait(); err != nil && h.pages.Expired(w, r, err) {
		return
	}

	if statsOK {
		data.Stats = &stats
	}
	data.RecentQuotations = recent(quotes)
	data.RecentInvoices = recent(invoices)

	var toast string
	if missing := compact(failed); len(missing) > 0 {
		toast = "Could not load " + strings.Join(missing, ", ") + "."
	}
	h.pages.Render(w, r, view.Page{Template: pageTemplate, Title: "Dashboard", Data: data, Toast: toast})
}

func (h *Handler) widget(err error, name string, slot *string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apiclient.ErrSessionExpired) || errors.Is(err, context.Canceled) {
		return err
	}
	h.logger.Error("load "+name, slog.Any("error", err))
	*slot = name
	return nil
}

// recent returns the newest documents first.
func recent(docs []sales.Document) []sales.Document {
	out := append([]sales.Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}

func compact(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
