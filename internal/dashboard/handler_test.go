package dashboard_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/dashboard"
	"github.com/erp-portal/portal/internal/sales"
	"github.com/erp-portal/portal/internal/testing/portaltest"
)

func dashboardRouter(env *portaltest.Env) http.Handler {
	h := dashboard.NewHandler(nil, env.Backend.Client, sales.NewRepository(env.Backend.Client), env.Pages)
	return portaltest.Mount("/dashboard", h.MountRoutes)
}

func doc(id, number, created string) map[string]any {
	return map[string]any{
		"_id":          id,
		"quote_number": number,
		"status":       "DRAFT",
		"grand_total":  100,
		"created_at":   created,
	}
}

func TestDashboardRendersWidgets(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Get("/dashboard/stats", portaltest.Reply(http.StatusOK, map[string]any{
		"user_count": 12, "role_count": 4, "company_name": "Acme Pvt Ltd",
	}))
	env.Backend.Router.Get("/quotations/", portaltest.Reply(http.StatusOK, []map[string]any{
		doc("q1", "QT-0001", "2026-10-01T08:00:00"),
		doc("q2", "QT-0002", "2026-10-03T08:00:00"),
	}))

	res := env.Do(t, dashboardRouter(env), portaltest.Get("/dashboard/"), portaltest.Member(t, "sales.quote.view"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Acme Pvt Ltd")
	assert.Contains(t, body, "Signed in as u1@acme.test")
	assert.Contains(t, body, "Recent quotations")
	assert.NotContains(t, body, "Recent invoices")
	assert.Less(t, strings.Index(body, "QT-0002"), strings.Index(body, "QT-0001"), "newest first")
	assert.NotContains(t, body, "Could not load")
	assert.Zero(t, env.Backend.Calls(http.MethodGet, "/invoices/"))
}

func TestDashboardPartialFailureShowsToast(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Get("/dashboard/stats", portaltest.Reply(http.StatusInternalServerError, map[string]string{"detail": "boom"}))
	env.Backend.Router.Get("/quotations/", portaltest.Reply(http.StatusOK, []map[string]any{
		doc("q1", "QT-0001", "2026-10-01T08:00:00"),
	}))
	env.Backend.Router.Get("/invoices/", portaltest.Reply(http.StatusBadGateway, nil))

	res := env.Do(t, dashboardRouter(env), portaltest.Get("/dashboard/"), portaltest.Member(t, "sales.quote.view", "sales.invoice.view"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Could not load workspace stats, recent invoices.")
	assert.Contains(t, body, "QT-0001", "healthy widgets still render")
	assert.Contains(t, body, "No invoices yet.")
}

func TestDashboardExpiredSessionRedirects(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Get("/dashboard/stats", portaltest.Reply(http.StatusUnauthorized, map[string]string{"detail": "Token expired"}))
	env.Backend.Router.Post("/auth/refresh", portaltest.Reply(http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"}))

	res := env.Do(t, dashboardRouter(env), portaltest.Get("/dashboard/"), portaltest.Member(t))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Location())
	assert.Empty(t, res.Tokens.AccessToken())
}

