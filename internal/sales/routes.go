package sales

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/view"
)

// Module bundles the quotation, order and invoice handlers.
type Module struct {
	handlers []*Handler
}

// NewModule builds the three document handlers over one service.
func NewModule(logger *slog.Logger, client *apiclient.Client, pages *view.Responder) *Module {
	service := NewService(NewRepository(client), logger)
	return &Module{handlers: []*Handler{
		NewHandler(logger, service, pages, Quotations, &Orders),
		NewHandler(logger, service, pages, Orders, &Invoices),
		NewHandler(logger, service, pages, Invoices, nil),
	}}
}

// MountRoutes registers /<slug> sub-routers for each kind.
func (m *Module) MountRoutes(r chi.Router) {
	for _, h := range m.handlers {
		r.Route("/"+h.Slug(), h.MountRoutes)
	}
}
