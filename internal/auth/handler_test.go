package auth_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/auth"
	"github.com/erp-portal/portal/internal/testing/portaltest"
	"github.com/erp-portal/portal/internal/tokens"
)

type stubRepo struct {
	pair      tokens.Pair
	err       error
	companies []auth.Company
	selected  string
	created   auth.CompanyInput
	logouts   int
	logins    int
}

func (s *stubRepo) Login(_ context.Context, _ auth.Credentials) (tokens.Pair, error) {
	s.logins++
	return s.pair, s.err
}

func (s *stubRepo) Register(_ context.Context, _ auth.Credentials) (tokens.Pair, error) {
	return s.pair, s.err
}

func (s *stubRepo) Logout(context.Context, apiclient.TokenSource) error {
	s.logouts++
	return nil
}

func (s *stubRepo) Companies(context.Context, apiclient.TokenSource) ([]auth.Company, error) {
	return s.companies, nil
}

func (s *stubRepo) CreateCompany(_ context.Context, _ apiclient.TokenSource, in auth.CompanyInput) (auth.Company, error) {
	s.created = in
	return auth.Company{ID: "c9", Name: in.Name}, s.err
}

func (s *stubRepo) SelectCompany(_ context.Context, _ apiclient.TokenSource, companyID string) (tokens.Pair, error) {
	s.selected = companyID
	return s.pair, s.err
}

func passthrough(next http.Handler) http.Handler { return next }

func newAuthRouter(env *portaltest.Env, repo auth.Repository) http.Handler {
	h := auth.NewHandler(nil, auth.NewService(repo), env.Pages, env.Sessions)
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) { h.MountRoutes(r, passthrough) })
	r.Route("/onboarding", h.MountOnboarding)
	return r
}

func TestLoginPage(t *testing.T) {
	env := portaltest.New(t)
	res := env.Do(t, newAuthRouter(env, &stubRepo{}), portaltest.Get("/auth/login"), portaltest.Caller{})

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `action="/auth/login"`)
	assert.Contains(t, res.Body.String(), `name="csrf_token"`)
}

func TestLoginValidatesBeforeCalling(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{}

	form := url.Values{"email": {"not-an-email"}, "password": {""}}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/auth/login", form), portaltest.Caller{})

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Enter a valid email address")
	assert.Contains(t, res.Body.String(), "This field is required")
	assert.Zero(t, repo.logins)
}

func TestLoginWithoutCompanyGoesToOnboarding(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{pair: tokens.Pair{AccessToken: portaltest.AccessToken(t, "u1", ""), RefreshToken: "refresh-1"}}

	form := url.Values{"email": {"asha@acme.test"}, "password": {"secret123"}}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/auth/login", form), portaltest.Caller{})

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, auth.OnboardingPath, res.Location())
	assert.Equal(t, "refresh-1", res.Tokens.RefreshToken())
	assert.Equal(t, tokens.AuthenticatedNoCompany, res.Tokens.State())
}

func TestLoginWithCompanyGoesToDashboard(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{pair: tokens.Pair{AccessToken: portaltest.AccessToken(t, "u1", "c1"), RefreshToken: "refresh-1"}}

	form := url.Values{"email": {"asha@acme.test"}, "password": {"secret123"}}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/auth/login", form), portaltest.Caller{})

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, auth.DashboardPath, res.Location())
}

func TestLoginFailureShowsBackendDetail(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{err: &apiclient.Error{Status: http.StatusUnauthorized, Detail: "Incorrect email or password"}}

	form := url.Values{"email": {"asha@acme.test"}, "password": {"wrong"}}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/auth/login", form), portaltest.Caller{})

	assert.Equal(t, http.StatusBadRequest, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Incorrect email or password")
	assert.Contains(t, body, `value="asha@acme.test"`)
	assert.NotContains(t, body, "wrong")
	assert.Equal(t, tokens.Anonymous, res.Tokens.State())
}

func TestRegisterPasswordMismatch(t *testing.T) {
	env := portaltest.New(t)

	form := url.Values{"email": {"asha@acme.test"}, "password": {"secret123"}, "confirm_password": {"secret124"}}
	res := env.Do(t, newAuthRouter(env, &stubRepo{}), portaltest.Post("/auth/register", form), portaltest.Caller{})

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Passwords do not match")
}

func TestRegisterLandsOnOnboarding(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{pair: tokens.Pair{AccessToken: portaltest.AccessToken(t, "u2", ""), RefreshToken: "refresh-2"}}

	form := url.Values{"email": {"new@acme.test"}, "password": {"secret123"}, "confirm_password": {"secret123"}}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/auth/register", form), portaltest.Caller{})

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, auth.OnboardingPath, res.Location())
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Account created. Set up your company to continue.", flash.Message)
}

func TestLogoutClearsTokensAndSession(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{}

	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/auth/logout", nil), portaltest.Member(t))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Location())
	assert.Equal(t, 1, repo.logouts)
	assert.Equal(t, tokens.Anonymous, res.Tokens.State())

	var cleared bool
	for _, c := range res.Result().Cookies() {
		if c.Name == env.Sessions.CookieName() && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie is expired")
}

func TestOnboardingListsCompanies(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{companies: []auth.Company{{ID: "c1", Name: "Acme Pvt Ltd"}}}

	caller := portaltest.Caller{Access: portaltest.AccessToken(t, "u1", ""), Refresh: "refresh-1"}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Get("/onboarding/"), caller)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Acme Pvt Ltd")
	assert.Contains(t, res.Body.String(), `action="/onboarding/select/c1"`)
}

func TestCreateCompanySelectsIt(t *testing.T) {
	env := portaltest.New(t)
	scoped := portaltest.AccessToken(t, "u1", "c9")
	repo := &stubRepo{pair: tokens.Pair{AccessToken: scoped, RefreshToken: "refresh-9"}}

	caller := portaltest.Caller{Access: portaltest.AccessToken(t, "u1", ""), Refresh: "refresh-1"}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/onboarding/companies", url.Values{"name": {" Initech "}}), caller)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, auth.DashboardPath, res.Location())
	assert.Equal(t, "Initech", repo.created.Name)
	assert.Equal(t, "c9", repo.selected)
	assert.Equal(t, scoped, res.Tokens.AccessToken())
	assert.Equal(t, "c9", res.Tokens.Claims().ActiveCompanyID)
}

func TestCreateCompanyRequiresName(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{}

	caller := portaltest.Caller{Access: portaltest.AccessToken(t, "u1", ""), Refresh: "refresh-1"}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/onboarding/companies", url.Values{"name": {""}}), caller)

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "This field is required")
	assert.Empty(t, repo.selected)
}

func TestSelectCompanyFailureReturnsToOnboarding(t *testing.T) {
	env := portaltest.New(t)
	repo := &stubRepo{err: &apiclient.Error{Status: http.StatusForbidden, Detail: "Not a member of this company"}}

	caller := portaltest.Caller{Access: portaltest.AccessToken(t, "u1", ""), Refresh: "refresh-1"}
	res := env.Do(t, newAuthRouter(env, repo), portaltest.Post("/onboarding/select/c7", nil), caller)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, auth.OnboardingPath, res.Location())
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Not a member of this company", flash.Message)
}
