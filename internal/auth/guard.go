package auth

import (
	"log/slog"
	"net/http"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

// Guard routes requests according to the token session state.
type Guard struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(client *apiclient.Client, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{client: client, logger: logger}
}

// RequireCompany admits sessions scoped to a company. Anonymous sessions go
// to the login page and sessions without a company go to onboarding.
func (g *Guard) RequireCompany(next http.Handler) http.Handler {
	return g.require(true, next)
}

// RequireUser admits any authenticated session.
func (g *Guard) RequireUser(next http.Handler) http.Handler {
	return g.require(false, next)
}

func (g *Guard) require(needCompany bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := tokens.FromContext(r.Context())
		if !g.ensureAccess(r, sess) {
			view.SendAway(w, r, view.LoginPath)
			return
		}
		if needCompany && !sess.Claims().HasCompany() {
			view.SendAway(w, r, OnboardingPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Guest sends authenticated sessions away from the login and register pages.
func (g *Guard) Guest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := tokens.FromContext(r.Context())
		if r.Method == http.MethodGet && sess.AccessToken() != "" {
			http.Redirect(w, r, Landing(sess), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ensureAccess makes sure sess carries an access token, exchanging the
// refresh token once when only that survived.
func (g *Guard) ensureAccess(r *http.Request, sess *tokens.Session) bool {
	if sess.AccessToken() != "" {
		return true
	}
	refresh := sess.RefreshToken()
	if refresh == "" {
		return false
	}
	pair, err := g.client.Refresh(r.Context(), refresh)
	if err != nil {
		g.logger.Info("session refresh failed", slog.Any("error", err))
		sess.Clear()
		return false
	}
	sess.Update(pair)
	return true
}
