package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/hr"
	"github.com/erp-portal/portal/internal/permissions"
)

var (
	_ apiclient.Observer   = (*Metrics)(nil)
	_ hr.Observer          = (*Metrics)(nil)
	_ permissions.Observer = (*Metrics)(nil)
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `portal_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `portal_http_request_duration_seconds_bucket{route="/test"`)
}

func TestObserversCountOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpstream(http.MethodGet, 200)
	metrics.ObserveUpstream(http.MethodGet, 200)
	metrics.ObserveUpstream(http.MethodPost, 0)
	metrics.ObserveRefresh("failure")
	metrics.ObserveAutosave("saved")
	metrics.ObservePermissions("hit")

	body := scrape(t, metrics)
	for _, want := range []string{
		`portal_upstream_requests_total{code="200",method="GET"} 2`,
		`portal_upstream_requests_total{code="0",method="POST"} 1`,
		`portal_token_refresh_total{outcome="failure"} 1`,
		`portal_autosave_total{outcome="saved"} 1`,
		`portal_permission_lookups_total{result="hit"} 1`,
	} {
		assert.True(t, strings.Contains(body, want), "missing %s", want)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveUpstream(http.MethodGet, 500)
	metrics.ObserveRefresh("success")

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	rr := httptest.NewRecorder()
	metrics.Middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
