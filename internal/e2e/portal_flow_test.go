package e2e

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/app"
	"github.com/erp-portal/portal/internal/testing/portaltest"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type flow struct {
	t        *testing.T
	server   *httptest.Server
	client   *http.Client
	refreshN atomic.Int32
	access   string
}

// newFlow runs the assembled portal against a fake backend whose login
// returns a company-scoped token pair.
func newFlow(t *testing.T) *flow {
	t.Helper()
	f := &flow{t: t, access: portaltest.AccessToken(t, "u1", "c1")}

	api := chi.NewRouter()
	api.Route(portaltest.APIPrefix, func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var creds map[string]string
			portaltest.Decode(t, r, &creds)
			if creds["password"] != "correct-horse" {
				portaltest.JSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
				return
			}
			portaltest.JSON(w, http.StatusOK, tokens.Pair{AccessToken: f.access, RefreshToken: "refresh-1"})
		})
		r.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			f.refreshN.Add(1)
			portaltest.JSON(w, http.StatusOK, tokens.Pair{AccessToken: f.access, RefreshToken: "refresh-2"})
		})
		r.Group(func(r chi.Router) {
			r.Use(f.requireBearer)
			r.Get("/auth/permissions", portaltest.Reply(http.StatusOK, []string{"customers.view"}))
			r.Get("/dashboard/stats", portaltest.Reply(http.StatusOK, map[string]any{
				"user_count": 4, "role_count": 2, "company_name": "Acme Trading",
			}))
			r.Get("/customers/", portaltest.Reply(http.StatusOK, []map[string]any{
				{"_id": "cust-1", "name": "Acme Corp", "is_active": true},
			}))
		})
	})
	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &app.Config{
		AppEnv:              "test",
		AppRequestTimeout:   5 * time.Second,
		APIURL:              backend.URL + portaltest.APIPrefix,
		APITimeout:          5 * time.Second,
		SessionSecret:       "session-secret",
		SessionTTL:          time.Hour,
		CSRFSecret:          "csrf-secret",
		PermissionsCacheTTL: time.Minute,
		AutosaveDelay:       time.Second,
		RateLimit:           1000,
	}
	portal, err := app.Build(cfg, nil, rdb)
	require.NoError(t, err)
	t.Cleanup(portal.Close)

	f.server = httptest.NewServer(portal.Handler)
	t.Cleanup(f.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{Jar: jar, Timeout: 10 * time.Second}
	return f
}

// requireBearer rejects every token but the current access token.
func (f *flow) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.access {
			portaltest.JSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *flow) get(path string) (*http.Response, string) {
	f.t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(f.t, err)
	return resp, readBody(f.t, resp)
}

func (f *flow) post(path string, form url.Values) (*http.Response, string) {
	f.t.Helper()
	resp, err := f.client.PostForm(f.server.URL+path, form)
	require.NoError(f.t, err)
	return resp, readBody(f.t, resp)
}

func (f *flow) csrf(page string) string {
	f.t.Helper()
	m := csrfPattern.FindStringSubmatch(page)
	require.Len(f.t, m, 2, "page carries a csrf token")
	return m[1]
}

func (f *flow) cookie(name string) string {
	u, _ := url.Parse(f.server.URL)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHealthz(t *testing.T) {
	f := newFlow(t)
	resp, body := f.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestAnonymousVisitorLandsOnLogin(t *testing.T) {
	f := newFlow(t)
	resp, body := f.get("/dashboard/masters/customers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Request.URL.Path)
	assert.Contains(t, body, "Sign in")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestAnonymousFragmentGetsLocation(t *testing.T) {
	f := newFlow(t)
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/dashboard/masters/customers/rows?search=acme", nil)
	require.NoError(t, err)
	req.Header.Set(view.FragmentHeader, "1")

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/dashboard/masters/customers/rows", resp.Request.URL.Path, "no redirect is followed")
	assert.Equal(t, view.LoginPath, resp.Header.Get(view.LocationHeader))
	assert.NotContains(t, body, "Sign in")
}

func TestLoginReachesDashboard(t *testing.T) {
	f := newFlow(t)
	_, page := f.get("/auth/login")

	resp, body := f.post("/auth/login", url.Values{
		"csrf_token": {f.csrf(page)},
		"email":      {"owner@acme.test"},
		"password":   {"correct-horse"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Request.URL.Path)
	assert.Contains(t, body, "Acme Trading")
	assert.Contains(t, body, "Welcome back")
	assert.Equal(t, f.access, f.cookie(tokens.AccessCookie))
	assert.Equal(t, "refresh-1", f.cookie(tokens.RefreshCookie))

	// Signed-in users skip the login page.
	resp, _ = f.get("/auth/login")
	assert.Equal(t, "/dashboard", resp.Request.URL.Path)
}

func TestLoginFailureShowsBackendDetail(t *testing.T) {
	f := newFlow(t)
	_, page := f.get("/auth/login")

	resp, body := f.post("/auth/login", url.Values{
		"csrf_token": {f.csrf(page)},
		"email":      {"owner@acme.test"},
		"password":   {"wrong"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Incorrect email or password")
	assert.Empty(t, f.cookie(tokens.AccessCookie))
}

func TestPostWithoutCSRFIsRejected(t *testing.T) {
	f := newFlow(t)
	resp, _ := f.post("/auth/login", url.Values{"email": {"owner@acme.test"}, "password": {"correct-horse"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRefreshCookieAloneRestoresSession(t *testing.T) {
	f := newFlow(t)
	u, _ := url.Parse(f.server.URL)
	f.client.Jar.SetCookies(u, []*http.Cookie{{Name: tokens.RefreshCookie, Value: "refresh-1", Path: "/"}})

	resp, body := f.get("/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Request.URL.Path)
	assert.Contains(t, body, "Acme Trading")
	assert.Equal(t, int32(1), f.refreshN.Load())
	assert.Equal(t, "refresh-2", f.cookie(tokens.RefreshCookie))
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	f := newFlow(t)
	stale := portaltest.Mint(t, map[string]any{
		"sub":               "u1@acme.test",
		"user_id":           "u1",
		"active_company_id": "c1",
		"exp":               time.Now().Add(-time.Minute).Unix(),
	})
	u, _ := url.Parse(f.server.URL)
	f.client.Jar.SetCookies(u, []*http.Cookie{
		{Name: tokens.AccessCookie, Value: stale, Path: "/"},
		{Name: tokens.RefreshCookie, Value: "refresh-1", Path: "/"},
	})

	resp, body := f.get("/dashboard/masters/customers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/dashboard/masters/customers", resp.Request.URL.Path)
	assert.Contains(t, body, "Acme Corp")
	assert.NotContains(t, body, "Token expired")
	assert.Equal(t, int32(1), f.refreshN.Load())
	assert.Equal(t, f.access, f.cookie(tokens.AccessCookie))
}

func TestMetricsCountUpstreamCalls(t *testing.T) {
	f := newFlow(t)
	u, _ := url.Parse(f.server.URL)
	f.client.Jar.SetCookies(u, []*http.Cookie{{Name: tokens.AccessCookie, Value: f.access, Path: "/"}})
	_, _ = f.get("/dashboard")

	resp, body := f.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `portal_upstream_requests_total{code="200",method="GET"}`)
	assert.Contains(t, body, `portal_permission_lookups_total{result="miss"} 1`)
	assert.True(t, strings.Contains(body, `portal_http_requests_total{code="200",route="/dashboard/"}`) ||
		strings.Contains(body, `portal_http_requests_total{code="200",route="/dashboard"}`))
}
