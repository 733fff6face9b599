// Package portaltest wires the session, template and backend fakes that the
// page handler tests share.
package portaltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
	_ "github.com/erp-portal/portal/testing"
)

// APIPrefix is where the fake backend serves its routes.
const APIPrefix = "/api/v1"

// Backend is a fake ERP API that counts every call it receives.
type Backend struct {
	Router chi.Router
	Server *httptest.Server
	Client *apiclient.Client

	mu    sync.Mutex
	calls map[string]int
	total int
}

// NewBackend starts a Backend that lives for the duration of t.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{calls: make(map[string]int)}
	root := chi.NewRouter()
	root.Route(APIPrefix, func(r chi.Router) {
		r.Use(b.count)
		b.Router = r
	})
	b.Server = httptest.NewServer(root)
	t.Cleanup(b.Server.Close)
	b.Client = apiclient.New(apiclient.Options{BaseURL: b.Server.URL + APIPrefix, Timeout: 5 * time.Second})
	return b
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.Method+" "+strings.TrimPrefix(r.URL.Path, APIPrefix)]++
		b.total++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Calls returns how often method and path (relative to APIPrefix) were hit.
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// Total returns the number of calls the backend received.
func (b *Backend) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Reply returns a handler that always answers with status and v.
func Reply(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { JSON(w, status, v) }
}

// Decode reads a JSON request body into v.
func Decode(t *testing.T, r *http.Request, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

// Env bundles the per-test collaborators of a page handler.
type Env struct {
	Sessions *shared.SessionManager
	CSRF     *shared.CSRFManager
	Engine   *view.Engine
	Pages    *view.Responder
	Backend  *Backend
}

// New builds an Env backed by miniredis and a fresh Backend.
func New(t *testing.T) *Env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := view.NewEngine()
	require.NoError(t, err)
	csrf := shared.NewCSRFManager("test-csrf")
	return &Env{
		Sessions: shared.NewSessionManager(client, "portal_test", "test-secret", time.Hour, false),
		CSRF:     csrf,
		Engine:   engine,
		Pages:    view.NewResponder(engine, csrf, nil),
		Backend:  NewBackend(t),
	}
}

// Mint signs claims with a throwaway key.
func Mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// AccessToken mints a token for userID scoped to companyID (empty for none).
func AccessToken(t *testing.T, userID, companyID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":     userID + "@acme.test",
		"user_id": userID,
		"exp":     time.Now().Add(30 * time.Minute).Unix(),
	}
	if companyID != "" {
		claims["active_company_id"] = companyID
	}
	return Mint(t, claims)
}

// Caller describes who issues a test request.
type Caller struct {
	Access  string
	Refresh string
	Perms   []string
}

// Member is a company-scoped caller holding perms.
func Member(t *testing.T, perms ...string) Caller {
	t.Helper()
	return Caller{Access: AccessToken(t, "u1", "c1"), Refresh: "refresh-1", Perms: perms}
}

// Response is a recorded handler response plus the UI session it committed.
type Response struct {
	*httptest.ResponseRecorder
	Session *shared.Session
	Tokens  *tokens.Session
}

// Flash pops the first queued flash message.
func (r *Response) Flash() *shared.FlashMessage {
	if r.Session == nil {
		return nil
	}
	return r.Session.PopFlash()
}

// Location returns the redirect target.
func (r *Response) Location() string {
	return r.Header().Get("Location")
}

// Mount builds a router with fn registered under prefix.
func Mount(prefix string, fn func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Route(prefix, fn)
	return r
}

// Get builds a GET request.
func Get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

// Post builds a form POST request.
func Post(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// Do serves req through h as c, with the UI session, token session and
// permission set in the context the way the portal middleware stack leaves
// them.
func (e *Env) Do(t *testing.T, h http.Handler, req *http.Request, c Caller) *Response {
	t.Helper()
	sess, err := e.Sessions.Load(req.Context(), req)
	require.NoError(t, err)

	tok := tokens.NewSession(c.Access, c.Refresh)
	reqCtx := shared.ContextWithSession(req.Context(), sess)
	reqCtx = tokens.ContextWithSession(reqCtx, tok)
	reqCtx = permissions.WithSet(reqCtx, permissions.NewSet(c.Perms...))

	rec := httptest.NewRecorder()
	req = req.WithContext(reqCtx)
	cw := shared.NewCommitWriter(rec, req, e.Sessions, sess)
	h.ServeHTTP(cw, req)
	require.NoError(t, cw.Finish())
	return &Response{ResponseRecorder: rec, Session: sess, Tokens: tok}
}

// Follow issues a GET to the redirect target of prev, carrying its session
// cookie.
func (e *Env) Follow(t *testing.T, h http.Handler, prev *Response, c Caller) *Response {
	t.Helper()
	req := Get(prev.Location())
	for _, cookie := range prev.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return e.Do(t, h, req, c)
}
