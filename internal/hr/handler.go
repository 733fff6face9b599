package hr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erp-portal/portal/internal/modal"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

const (
	pageTemplate = "pages/hr/onboarding.html"
	basePath     = "/dashboard/hr/onboarding"
)

var errLocked = errors.New("onboarding is locked")

// Handler serves the onboarding draft page.
type Handler struct {
	logger   *slog.Logger
	repo     Repository
	autosave *Autosaver
	pages    *view.Responder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, autosave *Autosaver, pages *view.Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, repo: repo, autosave: autosave, pages: pages}
}

// MountRoutes registers onboarding routes on a router scoped to /dashboard/hr/onboarding.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Post("/", h.save)
	r.Post("/draft", h.draft)
}

type pageData struct {
	Status  string
	Locked  bool
	Pending bool
	Error   string
	Action  string
	Draft   string
	Steps   []Step
}

func ownerKey(sess *tokens.Session) string {
	c := sess.Claims()
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := tokens.FromContext(r.Context())
	key := ownerKey(sess)
	rec := newRecord()
	var toast string
	stored, err := h.repo.Get(r.Context(), sess)
	switch {
	case err != nil:
		if h.pages.Expired(w, r, err) {
			return
		}
		toast = h.pages.Upstream("load onboarding", err, "Failed to fetch onboarding data")
	case stored != nil:
		rec = normalize(*stored)
	}
	// Edits still waiting for their autosave are newer than the stored copy.
	if queued, ok := h.autosave.Draft(key); ok && !rec.Locked() {
		queued.Status = rec.Status
		rec = queued
	}
	h.render(w, r, rec, h.autosave.Pending(key), "", http.StatusOK, toast)
}

// draft queues the posted form for a debounced save.
func (h *Handler) draft(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess := tokens.FromContext(r.Context())
	key := ownerKey(sess)
	rec, err := h.bind(r, sess, key)
	var invalid formError
	switch {
	case err == nil:
	case errors.Is(err, errLocked):
		w.WriteHeader(http.StatusConflict)
		return
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusUnprocessableEntity)
		return
	case h.pages.Expired(w, r, err):
		return
	default:
		h.logger.Error("load onboarding", slog.Any("error", err))
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if !h.autosave.Queue(key, sess, rec) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess := tokens.FromContext(r.Context())
	key := ownerKey(sess)
	rec, err := h.bind(r, sess, key)
	var invalid formError
	switch {
	case err == nil:
	case errors.Is(err, errLocked):
		h.pages.RedirectWithFlash(w, r, basePath, "error", "Onboarding has already been submitted")
		return
	case errors.As(err, &invalid):
		h.render(w, r, rec, false, invalid.Error(), http.StatusUnprocessableEntity, "")
		return
	default:
		h.fail(w, r, rec, "load onboarding", err, "Failed to fetch onboarding data")
		return
	}
	h.autosave.Cancel(key)

	if r.PostFormValue("op") == "submit" {
		if label, missing := Missing(rec); missing {
			h.render(w, r, rec, false, "Missing required field: "+label, http.StatusUnprocessableEntity, "")
			return
		}
		if _, err := h.repo.Submit(r.Context(), sess, rec); err != nil {
			h.fail(w, r, rec, "submit onboarding", err, "Failed to submit onboarding")
			return
		}
		h.pages.RedirectWithFlash(w, r, basePath, "success", "Onboarding submitted for approval")
		return
	}

	if _, err := h.repo.Save(r.Context(), sess, rec); err != nil {
		h.fail(w, r, rec, "save onboarding", err, "Failed to save onboarding data")
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, "success", "Onboarding data saved successfully")
}

// formError carries the message of a posted value that could not be bound.
type formError string

func (e formError) Error() string { return string(e) }

// bind merges the posted fields into the queued draft, or into the stored
// record when nothing is queued. The lock follows the stored status; a
// posted status is ignored.
func (h *Handler) bind(r *http.Request, sess *tokens.Session, key string) (Record, error) {
	base, ok := h.autosave.Draft(key)
	if !ok {
		stored, err := h.repo.Get(r.Context(), sess)
		if err != nil {
			return newRecord(), err
		}
		base = newRecord()
		if stored != nil {
			base = normalize(*stored)
		}
	}
	if base.Locked() {
		return base, errLocked
	}
	m := modal.New(newRecord, cloneRecord)
	m.OpenEdit(key, base)
	if err := modal.Bind(m, specs, r.PostForm); err != nil {
		return m.Draft(), formError(m.Error())
	}
	return m.Draft(), nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, rec Record, op string, err error, fallback string) {
	if h.pages.Expired(w, r, err) {
		return
	}
	h.render(w, r, rec, false, h.pages.Upstream(op, err, fallback), http.StatusBadRequest, "")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, rec Record, pending bool, errMsg string, status int, toast string) {
	m := modal.New(newRecord, cloneRecord)
	m.OpenEdit("onboarding", rec)
	data := pageData{
		Status:  rec.Status,
		Locked:  rec.Locked(),
		Pending: pending,
		Error:   errMsg,
		Action:  basePath,
		Draft:   basePath + "/draft",
		Steps:   Steps(m),
	}
	h.pages.Render(w, r, view.Page{Template: pageTemplate, Title: "Employee Onboarding", Data: data, Status: status, Toast: toast})
}
