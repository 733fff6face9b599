package permissions

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/tokens"
)

func TestSetHidesByDefault(t *testing.T) {
	var unloaded *Set
	assert.False(t, unloaded.Has("customers.view"))
	assert.False(t, unloaded.HasAny("customers.view"))
	assert.False(t, unloaded.HasAll("customers.view"))
	assert.Zero(t, unloaded.Len())

	empty := NewSet()
	assert.False(t, empty.Has("customers.view"))
}

func TestSetQueries(t *testing.T) {
	set := NewSet(" Customers.View ", "customers.edit", "")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("customers.view"))
	assert.True(t, set.HasAll("customers.view", "customers.edit"))
	assert.False(t, set.HasAll("customers.view", "customers.delete"))
	assert.True(t, set.HasAny("vendors.view", "customers.edit"))
	assert.False(t, set.HasAny("vendors.view"))
	assert.Equal(t, []string{"customers.edit", "customers.view"}, set.Keys())
}

func TestGate(t *testing.T) {
	set := NewSet("roles.manage")
	assert.Equal(t, template.HTML("<button>"), Gate(set, "roles.manage", "<button>", ""))
	assert.Equal(t, template.HTML(""), Gate(set, "users.edit", "<button>", ""))
	assert.Equal(t, template.HTML("-"), Gate(nil, "roles.manage", "<button>", "-"))
}

func TestVisibleNavigation(t *testing.T) {
	set := NewSet("customers.view", "roles.view")
	labels := []string{}
	for _, item := range Visible(set, Navigation) {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "Dashboard")
	assert.Contains(t, labels, "Customers")
	assert.Contains(t, labels, "Roles")
	assert.NotContains(t, labels, "Vendors")
	assert.NotContains(t, labels, "Users")
}

type stubFetcher struct {
	calls int
	keys  []string
	err   error
}

func (s *stubFetcher) Get(_ context.Context, path string, _ url.Values, out any) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	if path != permissionsPath {
		return errors.New("unexpected path " + path)
	}
	*(out.(*[]string)) = s.keys
	return nil
}

func TestLoaderCachesPerToken(t *testing.T) {
	loader := NewLoader(time.Minute, nil)
	fetcher := &stubFetcher{keys: []string{"items.view"}}

	first := loader.Load(context.Background(), fetcher, "token-a")
	second := loader.Load(context.Background(), fetcher, "token-a")
	assert.True(t, first.Has("items.view"))
	assert.Same(t, first, second)
	assert.Equal(t, 1, fetcher.calls)

	loader.Load(context.Background(), fetcher, "token-b")
	assert.Equal(t, 2, fetcher.calls)

	loader.Forget("token-a")
	loader.Load(context.Background(), fetcher, "token-a")
	assert.Equal(t, 3, fetcher.calls)
}

func TestLoaderFailureYieldsEmptySet(t *testing.T) {
	loader := NewLoader(time.Minute, nil)
	fetcher := &stubFetcher{err: errors.New("boom")}

	set := loader.Load(context.Background(), fetcher, "token-a")
	require.NotNil(t, set)
	assert.Zero(t, set.Len())

	loader.Load(context.Background(), fetcher, "token-a")
	assert.Equal(t, 2, fetcher.calls, "failures are not cached")

	assert.Zero(t, loader.Load(context.Background(), fetcher, "").Len())
}

func TestMiddlewareStoresSet(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/permissions", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["customers.view","customers.create"]`))
	}))
	defer backend.Close()

	client := apiclient.New(apiclient.Options{BaseURL: backend.URL})
	loader := NewLoader(time.Minute, nil)

	var got *Set
	handler := loader.Middleware(client)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(tokens.ContextWithSession(req.Context(), tokens.NewSession("access-1", "refresh-1")))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.True(t, got.Has("customers.create"))

	anon := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	handler.ServeHTTP(httptest.NewRecorder(), anon)
	require.NotNil(t, got)
	assert.Zero(t, got.Len())
}
