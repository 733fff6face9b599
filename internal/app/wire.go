package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

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
)

// SessionCookie names the UI session cookie.
const SessionCookie = "portal_session"

// Portal is the assembled HTTP application.
type Portal struct {
	Handler  http.Handler
	Metrics  *observability.Metrics
	autosave *hr.Autosaver
}

// Close stops background work. Pending autosaves are dropped.
func (p *Portal) Close() {
	p.autosave.Stop()
}

// Build wires every page module against the backend at cfg.APIURL.
func Build(cfg *Config, logger *slog.Logger, redisClient *redis.Client) (*Portal, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	metrics := observability.NewMetrics()
	client := apiclient.New(apiclient.Options{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.APITimeout,
		Logger:   logger,
		Observer: metrics,
	})

	sessionManager := shared.NewSessionManager(redisClient, SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return nil, err
	}
	pages := view.NewResponder(templates, csrfManager, logger)

	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(client)), pages, sessionManager)

	roleService := roles.NewService(roles.NewRepository(client))
	userService := users.NewService(users.NewRepository(client), roleService)

	permissionLoader := permissions.NewLoader(cfg.PermissionsCacheTTL, logger).WithObserver(metrics)

	hrRepo := hr.NewRepository(client)
	autosaver := hr.NewAutosaver(hrRepo, cfg.AutosaveDelay, cfg.APITimeout, logger).WithObserver(metrics)

	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Client:           client,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		TokenStore:       tokens.NewStore(cfg.CookieSecure),
		Guard:            auth.NewGuard(client, logger),
		Permissions:      permissionLoader,
		Metrics:          metrics,
		AuthHandler:      authHandler,
		DashboardHandler: dashboard.NewHandler(logger, client, sales.NewRepository(client), pages),
		MastersModule:    masters.NewModule(logger, client, pages),
		RolesHandler:     roles.NewHandler(logger, roleService, pages).WithPermissionCache(permissionLoader),
		UsersHandler:     users.NewHandler(logger, userService, pages).WithPermissionCache(permissionLoader),
		SalesModule:      sales.NewModule(logger, client, pages),
		HRHandler:        hr.NewHandler(logger, hrRepo, autosaver, pages),
	})

	return &Portal{Handler: router, Metrics: metrics, autosave: autosaver}, nil
}
