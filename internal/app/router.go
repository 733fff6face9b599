package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/auth"
	"github.com/erp-portal/portal/internal/dashboard"
	"github.com/erp-portal/portal/internal/hr"
	"github.com/erp-portal/portal/internal/masters"
	"github.com/erp-portal/portal/internal/observability"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/roles"
	"github.com/erp-portal/portal/internal/sales"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/users"
	"github.com/erp-portal/portal/internal/view"
	"github.com/erp-portal/portal/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Client         *apiclient.Client
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	TokenStore     *tokens.Store
	Guard          *auth.Guard
	Permissions    *permissions.Loader
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	MastersModule    *masters.Module
	RolesHandler     *roles.Handler
	UsersHandler     *users.Handler
	SalesModule      *sales.Module
	HRHandler        *hr.Handler
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		TokenStore:     params.TokenStore,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := tokens.FromContext(r.Context())
		if sess.State() == tokens.Anonymous {
			http.Redirect(w, r, view.LoginPath, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, auth.Landing(sess), http.StatusSeeOther)
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, params.Guard.Guest)
	})
	r.Route(auth.OnboardingPath, func(r chi.Router) {
		r.Use(params.Guard.RequireUser)
		params.AuthHandler.MountOnboarding(r)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(params.Guard.RequireCompany)
		r.Use(params.Permissions.Middleware(params.Client))
		params.DashboardHandler.MountRoutes(r)
		r.Route("/masters", params.MastersModule.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/sales", params.SalesModule.MountRoutes)
		r.Route("/hr/onboarding", params.HRHandler.MountRoutes)
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers keep static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
