package view

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
)

// LoginPath is where expired sessions are sent.
const LoginPath = "/auth/login"

const (
	// FragmentHeader marks in-page requests issued by the page script.
	FragmentHeader = "X-Portal-Fragment"
	// LocationHeader carries the navigation target of a fragment response.
	LocationHeader = "X-Location"
)

// IsFragment reports whether r was issued by the page script rather than
// by a browser navigation.
func IsFragment(r *http.Request) bool {
	return r.Header.Get(FragmentHeader) != ""
}

// SendAway points the browser at location. Navigations get a 303. Fragment
// requests get a 401 carrying LocationHeader, because fetch follows
// redirects without telling the script.
func SendAway(w http.ResponseWriter, r *http.Request, location string) {
	if IsFragment(r) {
		Unauthorized(w, location)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Unauthorized answers a fragment request with 401 and the page to load.
func Unauthorized(w http.ResponseWriter, location string) {
	w.Header().Set(LocationHeader, location)
	w.WriteHeader(http.StatusUnauthorized)
}

// Page describes one full-page render.
type Page struct {
	Template string
	Title    string
	Data     any
	Status   int
	// Toast is shown as a non-blocking error when no flash is pending.
	Toast string
}

// Responder renders pages with the shared layout data and issues redirects.
type Responder struct {
	engine *Engine
	csrf   *shared.CSRFManager
	logger *slog.Logger
}

// NewResponder constructs a Responder.
func NewResponder(engine *Engine, csrf *shared.CSRFManager, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{engine: engine, csrf: csrf, logger: logger}
}

// Render writes p with the request's session, permissions and navigation.
func (rs *Responder) Render(w http.ResponseWriter, r *http.Request, p Page) {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	if sess != nil {
		csrfToken, _ = rs.csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if flash == nil && p.Toast != "" {
		flash = &shared.FlashMessage{Kind: "error", Message: p.Toast}
	}
	perms := permissions.FromContext(r.Context())
	data := TemplateData{
		Title:       p.Title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Perms:       perms,
		Nav:         permissions.Visible(perms, permissions.Navigation),
		User:        tokens.FromContext(r.Context()).Claims(),
		Data:        p.Data,
	}
	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rs.engine.Render(w, p.Template, data); err != nil {
		rs.logger.Error("template render failed", slog.Any("error", err), slog.String("template", p.Template))
	}
}

// Fragment writes a template without the layout, for in-page refreshes.
func (rs *Responder) Fragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rs.engine.Execute(w, name, data); err != nil {
		rs.logger.Error("fragment render failed", slog.Any("error", err), slog.String("template", name))
	}
}

// RedirectWithFlash queues a flash message and redirects with 303.
func (rs *Responder) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Expired redirects to the login page when err means the session could not
// be refreshed. It reports whether it handled the response.
func (rs *Responder) Expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apiclient.ErrSessionExpired) {
		return false
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Your session has expired. Please sign in again."})
	}
	SendAway(w, r, LoginPath)
	return true
}

// ExpiredFragment is Expired for routes that only serve fragments: an
// expired session always answers 401 with LocationHeader.
func (rs *Responder) ExpiredFragment(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, apiclient.ErrSessionExpired) {
		return false
	}
	Unauthorized(w, LoginPath)
	return true
}

// Upstream logs a failed backend call and returns the toast text for it.
func (rs *Responder) Upstream(op string, err error, fallback string) string {
	rs.logger.Error(op, slog.Any("error", err))
	return apiclient.Message(err, fallback)
}
