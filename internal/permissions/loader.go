package permissions

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/tokens"
)

const permissionsPath = "auth/permissions"

// Fetcher is the subset of apiclient.Caller used to load permissions.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Observer counts cache hits and misses.
type Observer interface {
	ObservePermissions(result string)
}

// Loader fetches the permission keys of the current user and caches them per
// access token.
type Loader struct {
	cache    *cache.Cache
	logger   *slog.Logger
	observer Observer
}

// NewLoader constructs a Loader with the given cache lifetime.
func NewLoader(ttl time.Duration, logger *slog.Logger) *Loader {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{cache: cache.New(ttl, 2*ttl), logger: logger}
}

// WithObserver reports lookups to o.
func (l *Loader) WithObserver(o Observer) *Loader {
	l.observer = o
	return l
}

// Load returns the permission Set for accessToken. A failed fetch yields an
// empty Set, which hides every gated control.
func (l *Loader) Load(ctx context.Context, f Fetcher, accessToken string) *Set {
	if accessToken == "" {
		return NewSet()
	}
	if cached, ok := l.cache.Get(accessToken); ok {
		l.observe("hit")
		return cached.(*Set)
	}
	l.observe("miss")
	var keys []string
	if err := f.Get(ctx, permissionsPath, nil, &keys); err != nil {
		l.logger.Warn("load permissions", slog.Any("error", err))
		return NewSet()
	}
	set := NewSet(keys...)
	l.cache.Set(accessToken, set, cache.DefaultExpiration)
	return set
}

func (l *Loader) observe(result string) {
	if l.observer != nil {
		l.observer.ObservePermissions(result)
	}
}

// Forget drops the cached Set for accessToken.
func (l *Loader) Forget(accessToken string) {
	l.cache.Delete(accessToken)
}

// Middleware loads the Set for authenticated requests and stores it in the
// request context. It never blocks a request.
func (l *Loader) Middleware(client *apiclient.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := tokens.FromContext(r.Context())
			set := NewSet()
			if sess.State() != tokens.Anonymous {
				set = l.Load(r.Context(), client.With(sess), sess.AccessToken())
			}
			next.ServeHTTP(w, r.WithContext(WithSet(r.Context(), set)))
		})
	}
}
