package roles

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

const (
	listTemplate = "pages/roles/list.html"
	rowsTemplate = "partials/master_rows.html"
	basePath     = "/dashboard/roles"
)

var columns = []mastertable.Column[Role]{
	{Key: "name", Label: "Role"},
	{Key: "description", Label: "Description"},
	{Key: "permissions", Label: "Permissions"},
	{Key: "type", Label: "Type"},
}

// PermissionCache drops the cached permission set of an access token.
type PermissionCache interface {
	Forget(accessToken string)
}

// Handler serves the role list, the role editor and role deletion.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Responder
	perms   PermissionCache
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages}
}

// WithPermissionCache makes role changes drop the caller's cached
// permissions, so the next page reflects them.
func (h *Handler) WithPermissionCache(c PermissionCache) *Handler {
	h.perms = c
	return h
}

func (h *Handler) forgetPermissions(sess *tokens.Session) {
	if h.perms != nil {
		h.perms.Forget(sess.AccessToken())
	}
}

// MountRoutes registers role routes on a router scoped to /dashboard/roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/rows", h.rows)
	r.Get("/new", h.showCreate)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.showEdit)
	r.Post("/{id}", h.update)
	r.Get("/{id}/deactivate", h.confirmDelete)
	r.Post("/{id}/deactivate", h.delete)
}

type formView struct {
	Title    string
	Action   string
	Submit   string
	Error    string
	ReadOnly bool
	Fields   []modal.FieldView
	Selected []string
	Groups   []ModuleGroup
}

type confirmView struct {
	ID     string
	Name   string
	Action string
}

type pageData struct {
	Table       mastertable.View
	SystemCount int
	CustomCount int
	Form        *formView
	Confirm     *confirmView
}

var fields = []modal.FieldSpec[Draft]{
	{Name: "name", Label: "Role name", Type: modal.Text, Required: true, Placeholder: "e.g. Sales Manager",
		Value: modal.String(func(d *Draft) *string { return &d.Name })},
	{Name: "description", Label: "Description", Type: modal.Textarea,
		Value: modal.String(func(d *Draft) *string { return &d.Description })},
	{Name: "permission_keys", Label: "Permissions", Type: modal.MultiSelect,
		Value: modal.StringList(func(d *Draft) *[]string { return &d.PermissionKeys })},
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := mastertable.SearchFrom(r)
	roles, err := h.service.List(r.Context(), tokens.FromContext(r.Context()))
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.render(w, r, nil, search, nil, nil, http.StatusOK, h.pages.Upstream("list roles", err, "Failed to load roles"))
		return
	}
	h.render(w, r, roles, search, nil, nil, http.StatusOK, "")
}

func (h *Handler) rows(w http.ResponseWriter, r *http.Request) {
	search := mastertable.SearchFrom(r)
	roles, err := h.service.List(r.Context(), tokens.FromContext(r.Context()))
	if h.pages.ExpiredFragment(w, err) {
		return
	}
	if err != nil {
		h.logger.Error("list roles rows", slog.Any("error", err))
		roles = nil
	}
	h.pages.Fragment(w, r, rowsTemplate, table(roles, search).View(permissions.FromContext(r.Context())))
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	sess := tokens.FromContext(r.Context())
	roles, err := h.service.List(r.Context(), sess)
	if err != nil && h.pages.Expired(w, r, err) {
		return
	}
	m := newModal()
	m.OpenCreate()
	h.render(w, r, roles, "", h.form(r.Context(), sess, m, false), nil, http.StatusOK, "")
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess := tokens.FromContext(r.Context())
	m := newModal()
	m.OpenCreate()
	err := modal.Bind(m, fields, r.PostForm)
	if err == nil {
		err = m.Submit(r.Context(), func(ctx context.Context, _ string, d Draft) error {
			_, err := h.service.Create(ctx, sess, d)
			return err
		})
	}
	if err != nil {
		h.failForm(w, r, m, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, "success", "Role created successfully")
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	sess := tokens.FromContext(r.Context())
	role, roles, ok := h.find(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	m := newModal()
	m.OpenEdit(role.ID, draftOf(role))
	h.render(w, r, roles, "", h.form(r.Context(), sess, m, role.IsSystem), nil, http.StatusOK, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess := tokens.FromContext(r.Context())
	role, _, ok := h.find(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if role.IsSystem {
		h.pages.RedirectWithFlash(w, r, basePath, "error", "System protected roles cannot be modified")
		return
	}
	m := newModal()
	m.OpenEdit(role.ID, draftOf(role))
	err := modal.Bind(m, fields, r.PostForm)
	if err == nil {
		err = m.Submit(r.Context(), func(ctx context.Context, _ string, d Draft) error {
			_, err := h.service.Update(ctx, sess, role, d)
			return err
		})
	}
	if err != nil {
		h.failForm(w, r, m, err)
		return
	}
	h.forgetPermissions(sess)
	h.pages.RedirectWithFlash(w, r, basePath, "success", "Role updated successfully")
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	role, roles, ok := h.find(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if role.IsSystem {
		h.pages.RedirectWithFlash(w, r, basePath, "error", "System protected roles cannot be deleted")
		return
	}
	confirm := &confirmView{ID: role.ID, Name: role.Name, Action: basePath + "/" + role.ID + "/deactivate"}
	h.render(w, r, roles, "", nil, confirm, http.StatusOK, "")
}

// delete fires the request only for an explicitly confirmed form.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if !mastertable.Confirmed(r) {
		http.Redirect(w, r, basePath, http.StatusSeeOther)
		return
	}
	role, _, ok := h.find(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	sess := tokens.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), sess, role); err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		msg := h.pages.Upstream("delete role", err, "Failed to delete role")
		if errors.Is(err, ErrSystemRole) {
			msg = "System protected roles cannot be deleted"
		}
		h.pages.RedirectWithFlash(w, r, basePath, "error", msg)
		return
	}
	h.forgetPermissions(sess)
	h.pages.RedirectWithFlash(w, r, basePath, "success", "Role deleted successfully")
}

// find loads the company roles and picks id, redirecting when it is absent.
func (h *Handler) find(w http.ResponseWriter, r *http.Request, id string) (Role, []Role, bool) {
	role, roles, found, err := h.service.Find(r.Context(), tokens.FromContext(r.Context()), id)
	if err != nil {
		if !h.pages.Expired(w, r, err) {
			h.pages.RedirectWithFlash(w, r, basePath, "error", h.pages.Upstream("load roles", err, "Failed to load roles"))
		}
		return Role{}, nil, false
	}
	if !found {
		h.pages.RedirectWithFlash(w, r, basePath, "error", "Role not found")
		return Role{}, nil, false
	}
	return role, roles, true
}

func (h *Handler) failForm(w http.ResponseWriter, r *http.Request, m *modal.Modal[Draft], err error) {
	if h.pages.Expired(w, r, err) {
		return
	}
	status := http.StatusUnprocessableEntity
	if !errors.Is(err, modal.ErrValidation) {
		h.logger.Error("save role", slog.Any("error", err))
		status = http.StatusBadRequest
	}
	sess := tokens.FromContext(r.Context())
	roles, listErr := h.service.List(r.Context(), sess)
	if listErr != nil && h.pages.Expired(w, r, listErr) {
		return
	}
	h.render(w, r, roles, "", h.form(r.Context(), sess, m, false), nil, status, "")
}

func (h *Handler) form(ctx context.Context, sess *tokens.Session, m *modal.Modal[Draft], readOnly bool) *formView {
	groups, err := h.service.Catalog(ctx, sess)
	if err != nil {
		h.logger.Warn("load permission catalog", slog.Any("error", err))
	}
	fv := &formView{
		Title:    "New role",
		Action:   basePath,
		Submit:   "Create role",
		Error:    m.Error(),
		ReadOnly: readOnly,
		Fields:   modal.Fields(m, fields[:2]),
		Selected: m.Draft().PermissionKeys,
		Groups:   groups,
	}
	if m.Editing() {
		fv.Title = "Edit role"
		fv.Action = basePath + "/" + m.ID()
		fv.Submit = "Save changes"
	}
	if readOnly {
		fv.Title = "Role details"
	}
	return fv
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, roles []Role, search string, form *formView, confirm *confirmView, status int, toast string) {
	t := table(roles, search)
	t.Page = mastertable.PageFrom(r)
	t.PerPage = shared.DefaultPerPage
	data := pageData{
		Table:   t.View(permissions.FromContext(r.Context())),
		Form:    form,
		Confirm: confirm,
	}
	for _, role := range roles {
		if role.IsSystem {
			data.SystemCount++
		} else {
			data.CustomCount++
		}
	}
	h.pages.Render(w, r, view.Page{Template: listTemplate, Title: "Roles", Data: data, Status: status, Toast: toast})
}

// table filters roles by search on name and description.
func table(roles []Role, search string) mastertable.Table[Role] {
	return mastertable.Table[Role]{
		Title:             "Roles",
		Columns:           columns,
		Rows:              mastertable.Filter(roles, search, mastertable.Fields[Role]("name", "description")),
		Search:            search,
		SearchPlaceholder: "Search roles...",
		EmptyMessage:      "No roles defined yet.",
		PermissionPrefix:  "roles",
		BasePath:          basePath,
		LiveSearch:        true,
	}
}

func newModal() *modal.Modal[Draft] {
	m := modal.New(newDraft, cloneDraft)
	m.Fallback = "Failed to save role"
	return m
}
