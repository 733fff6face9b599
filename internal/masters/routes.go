package masters

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/view"
)

type mountable interface {
	Slug() string
	MountRoutes(chi.Router)
}

// Module bundles the handlers of every master entity.
type Module struct {
	handlers []mountable
}

// NewModule builds handlers for all master entities.
func NewModule(logger *slog.Logger, client *apiclient.Client, pages *view.Responder) *Module {
	return &Module{handlers: []mountable{
		NewHandler(logger, client, pages, Customers()),
		NewHandler(logger, client, pages, Vendors()),
		NewHandler(logger, client, pages, Items()),
		NewHandler(logger, client, pages, Categories()),
		NewHandler(logger, client, pages, Taxes()),
		NewHandler(logger, client, pages, PriceLists()),
	}}
}

// MountRoutes registers /<slug> sub-routers for each entity.
func (m *Module) MountRoutes(r chi.Router) {
	for _, h := range m.handlers {
		r.Route("/"+h.Slug(), h.MountRoutes)
	}
}
