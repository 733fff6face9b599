package masters

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/erp-portal/portal/internal/apiclient"
	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

const (
	listTemplate = "pages/masters/list.html"
	rowsTemplate = "partials/master_rows.html"
	basePrefix   = "/dashboard/masters/"
)

// Handler serves list, create, edit and deactivate screens for one entity.
type Handler[T mastertable.Row, D any] struct {
	logger *slog.Logger
	client *apiclient.Client
	pages  *view.Responder
	entity Entity[T, D]
}

// NewHandler constructs a Handler for entity.
func NewHandler[T mastertable.Row, D any](logger *slog.Logger, client *apiclient.Client, pages *view.Responder, entity Entity[T, D]) *Handler[T, D] {
	if logger == nil {
		logger = slog.Default()
	}
	if entity.DeactivateVerb == "" {
		entity.DeactivateVerb = "Deactivate"
	}
	return &Handler[T, D]{logger: logger, client: client, pages: pages, entity: entity}
}

// MountRoutes registers the entity routes on a router scoped to its base path.
func (h *Handler[T, D]) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/rows", h.rows)
	r.Get("/new", h.showCreate)
	r.Post("/", h.create)
	if h.entity.Editable {
		r.Get("/{id}/edit", h.showEdit)
		r.Post("/{id}", h.update)
	}
	r.Get("/{id}/deactivate", h.confirmDeactivate)
	r.Post("/{id}/deactivate", h.deactivate)
}

// Slug returns the route segment.
func (h *Handler[T, D]) Slug() string { return h.entity.Slug }

type entityMeta struct {
	Title          string
	Singular       string
	BasePath       string
	DeactivateVerb string
	Editable       bool
}

type formView struct {
	Title   string
	Action  string
	Submit  string
	Error   string
	Editing bool
	Fields  []modal.FieldView
}

type confirmView struct {
	ID     string
	Name   string
	Action string
	Verb   string
}

type pageData struct {
	Entity  entityMeta
	Table   mastertable.View
	Form    *formView
	Confirm *confirmView
}

func (h *Handler[T, D]) basePath() string {
	return basePrefix + h.entity.Slug
}

func (h *Handler[T, D]) list(w http.ResponseWriter, r *http.Request) {
	search := mastertable.SearchFrom(r)
	rows, _, err := h.load(r.Context(), h.caller(r), search, false)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.render(w, r, nil, search, nil, nil, http.StatusOK, h.pages.Upstream("list "+h.entity.Slug, err, "Failed to load "+h.entity.Title))
		return
	}
	h.render(w, r, rows, search, nil, nil, http.StatusOK, "")
}

func (h *Handler[T, D]) rows(w http.ResponseWriter, r *http.Request) {
	search := mastertable.SearchFrom(r)
	rows, _, err := h.load(r.Context(), h.caller(r), search, false)
	if h.pages.ExpiredFragment(w, err) {
		return
	}
	if err != nil {
		h.logger.Error("list "+h.entity.Slug+" rows", slog.Any("error", err))
		rows = nil
	}
	h.pages.Fragment(w, r, rowsTemplate, h.table(rows, search, false).View(permissions.FromContext(r.Context())))
}

func (h *Handler[T, D]) showCreate(w http.ResponseWriter, r *http.Request) {
	rows, support, err := h.load(r.Context(), h.caller(r), "", true)
	if err != nil && h.pages.Expired(w, r, err) {
		return
	}
	m := h.newModal()
	m.OpenCreate()
	toast := ""
	if err != nil {
		toast = h.pages.Upstream("list "+h.entity.Slug, err, "Failed to load "+h.entity.Title)
	}
	h.render(w, r, rows, "", h.form(m, support), nil, http.StatusOK, toast)
}

func (h *Handler[T, D]) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	caller := h.caller(r)
	m := h.newModal()
	m.OpenCreate()
	err := modal.Bind(m, h.fields(nil), r.PostForm)
	if err == nil {
		err = m.Submit(r.Context(), func(ctx context.Context, _ string, draft D) error {
			return caller.Post(ctx, h.entity.Resource, nil, draft, nil)
		})
	}
	if err != nil {
		h.failForm(w, r, caller, m, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, h.basePath(), "success", h.entity.Singular+" created successfully")
}

func (h *Handler[T, D]) showEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, support, err := h.load(r.Context(), h.caller(r), "", true)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", h.pages.Upstream("load "+h.entity.Slug, err, "Failed to load "+h.entity.Title))
		return
	}
	record, ok := find(rows, id)
	if !ok {
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", h.entity.Singular+" not found")
		return
	}
	m := h.newModal()
	m.OpenEdit(id, h.entity.Draft(record))
	h.render(w, r, rows, "", h.form(m, support), nil, http.StatusOK, "")
}

func (h *Handler[T, D]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	caller := h.caller(r)
	rows, _, err := h.load(r.Context(), caller, "", false)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", h.pages.Upstream("load "+h.entity.Slug, err, "Failed to load "+h.entity.Title))
		return
	}
	record, ok := find(rows, id)
	if !ok {
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", h.entity.Singular+" not found")
		return
	}
	m := h.newModal()
	m.OpenEdit(id, h.entity.Draft(record))
	err = modal.Bind(m, h.fields(nil), r.PostForm)
	if err == nil {
		err = m.Submit(r.Context(), func(ctx context.Context, id string, draft D) error {
			return caller.Patch(ctx, h.entity.Resource+url.PathEscape(id), nil, draft, nil)
		})
	}
	if err != nil {
		h.failForm(w, r, caller, m, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, h.basePath(), "success", h.entity.Singular+" updated successfully")
}

func (h *Handler[T, D]) confirmDeactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, _, err := h.load(r.Context(), h.caller(r), "", false)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", h.pages.Upstream("load "+h.entity.Slug, err, "Failed to load "+h.entity.Title))
		return
	}
	record, ok := find(rows, id)
	if !ok {
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", h.entity.Singular+" not found")
		return
	}
	confirm := &confirmView{
		ID:     id,
		Name:   record.Field("name"),
		Action: h.basePath() + "/" + id + "/deactivate",
		Verb:   h.entity.DeactivateVerb,
	}
	h.render(w, r, rows, "", nil, confirm, http.StatusOK, "")
}

// deactivate fires the request only for an explicitly confirmed form.
func (h *Handler[T, D]) deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if !mastertable.Confirmed(r) {
		http.Redirect(w, r, h.basePath(), http.StatusSeeOther)
		return
	}
	if err := h.caller(r).Delete(r.Context(), h.entity.Resource+url.PathEscape(id), nil, nil); err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		msg := h.pages.Upstream(h.entity.Slug+" "+h.entity.DeactivateVerb, err, "Failed to "+h.entity.DeactivateVerb+" "+h.entity.Singular)
		h.pages.RedirectWithFlash(w, r, h.basePath(), "error", msg)
		return
	}
	h.pages.RedirectWithFlash(w, r, h.basePath(), "success", h.entity.Singular+" "+pastTense(h.entity.DeactivateVerb))
}

func (h *Handler[T, D]) failForm(w http.ResponseWriter, r *http.Request, caller *apiclient.Caller, m *modal.Modal[D], err error) {
	if h.pages.Expired(w, r, err) {
		return
	}
	status := http.StatusUnprocessableEntity
	if !errors.Is(err, modal.ErrValidation) {
		h.logger.Error("save "+h.entity.Slug, slog.Any("error", err))
		status = http.StatusBadRequest
	}
	rows, support, loadErr := h.load(r.Context(), caller, "", true)
	if loadErr != nil && h.pages.Expired(w, r, loadErr) {
		return
	}
	h.render(w, r, rows, "", h.form(m, support), nil, status, "")
}

func (h *Handler[T, D]) render(w http.ResponseWriter, r *http.Request, rows []T, search string, form *formView, confirm *confirmView, status int, toast string) {
	perms := permissions.FromContext(r.Context())
	data := pageData{
		Entity: entityMeta{
			Title:          h.entity.Title,
			Singular:       h.entity.Singular,
			BasePath:       h.basePath(),
			DeactivateVerb: h.entity.DeactivateVerb,
			Editable:       h.entity.Editable,
		},
		Table:   h.page(r, rows, search).View(perms),
		Form:    form,
		Confirm: confirm,
	}
	h.pages.Render(w, r, view.Page{Template: listTemplate, Title: h.entity.Title, Data: data, Status: status, Toast: toast})
}

// page is the table of the full list screen, paginated by the page query.
func (h *Handler[T, D]) page(r *http.Request, rows []T, search string) mastertable.Table[T] {
	t := h.table(rows, search, false)
	t.Page = mastertable.PageFrom(r)
	t.PerPage = shared.DefaultPerPage
	return t
}

func (h *Handler[T, D]) table(rows []T, search string, loading bool) mastertable.Table[T] {
	return mastertable.Table[T]{
		Title:             h.entity.Title,
		Columns:           h.entity.Columns,
		Rows:              rows,
		IsLoading:         loading,
		Search:            search,
		SearchPlaceholder: h.entity.SearchPlaceholder,
		EmptyMessage:      h.entity.EmptyMessage,
		PermissionPrefix:  h.entity.PermissionPrefix,
		BasePath:          h.basePath(),
		LiveSearch:        true,
	}
}

func (h *Handler[T, D]) form(m *modal.Modal[D], support map[string][]modal.Option) *formView {
	fv := &formView{
		Title:   "New " + h.entity.Singular,
		Action:  h.basePath(),
		Submit:  "Create " + h.entity.Singular,
		Error:   m.Error(),
		Editing: m.Editing(),
		Fields:  modal.Fields(m, h.fields(support)),
	}
	if m.Editing() {
		fv.Title = "Edit " + h.entity.Singular
		fv.Action = h.basePath() + "/" + m.ID()
		fv.Submit = "Save changes"
	}
	return fv
}

func (h *Handler[T, D]) fields(support map[string][]modal.Option) []modal.FieldSpec[D] {
	if support == nil {
		support = map[string][]modal.Option{}
	}
	return h.entity.Fields(support)
}

func (h *Handler[T, D]) newModal() *modal.Modal[D] {
	m := modal.New(h.entity.Defaults, h.entity.Clone)
	m.Fallback = h.entity.Fallback
	if m.Fallback == "" {
		m.Fallback = "Failed to save " + h.entity.Singular
	}
	return m
}

func (h *Handler[T, D]) caller(r *http.Request) *apiclient.Caller {
	return h.client.With(tokens.FromContext(r.Context()))
}

// load fetches the rows and, when asked, the form's option lists
// concurrently. Option failures only empty that list.
func (h *Handler[T, D]) load(ctx context.Context, caller *apiclient.Caller, search string, withSupport bool) ([]T, map[string][]modal.Option, error) {
	var (
		rows    []T
		mu      sync.Mutex
		support = make(map[string][]modal.Option, len(h.entity.Support))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var query url.Values
		if h.entity.ServerSearch && search != "" {
			query = url.Values{mastertable.SearchParam: {search}}
		}
		var fetched []T
		if err := caller.Get(gctx, h.entity.Resource, query, &fetched); err != nil {
			return err
		}
		rows = mastertable.Filter(fetched, search, mastertable.Fields[T](h.entity.SearchFields...))
		return nil
	})
	if withSupport {
		for key, path := range h.entity.Support {
			key, path := key, path
			g.Go(func() error {
				var refs []Ref
				if err := caller.Get(gctx, path, nil, &refs); err != nil {
					if errors.Is(err, apiclient.ErrSessionExpired) {
						return err
					}
					h.logger.Warn("load "+key+" options", slog.Any("error", err))
					return nil
				}
				mu.Lock()
				support[key] = options(refs)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, support, err
	}
	return rows, support, nil
}

func find[T mastertable.Row](rows []T, id string) (T, bool) {
	for _, row := range rows {
		if row.RowID() == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

func pastTense(verb string) string {
	switch verb {
	case "Delete":
		return "deleted"
	case "Deactivate":
		return "deactivated"
	default:
		return "updated"
	}
}
