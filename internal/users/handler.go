package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/roles"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

const (
	listTemplate  = "pages/users/list.html"
	rolesTemplate = "pages/users/roles.html"
	basePath      = "/dashboard/users"
)

var columns = []mastertable.Column[User]{
	{Key: "full_name", Label: "Name"},
	{Key: "email", Label: "Email"},
	{Key: "status", Label: "Status"},
}

var fields = []modal.FieldSpec[Invite]{
	{Name: "full_name", Label: "Full name", Placeholder: "Jane Smith",
		Value: modal.String(func(i *Invite) *string { return &i.FullName })},
	{Name: "email", Label: "Email", Type: modal.Email, Required: true, Placeholder: "jane@company.com",
		Value: modal.String(func(i *Invite) *string { return &i.Email })},
	{Name: "password", Label: "Temporary password", Type: modal.Password, Required: true,
		Value: modal.String(func(i *Invite) *string { return &i.Password })},
}

// Handler serves the user directory and role assignment screens.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Responder
	perms   roles.PermissionCache
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages}
}

// WithPermissionCache makes role assignments drop the caller's cached
// permissions.
func (h *Handler) WithPermissionCache(c roles.PermissionCache) *Handler {
	h.perms = c
	return h
}

// MountRoutes registers user routes on a router scoped to /dashboard/users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.showInvite)
	r.Post("/", h.invite)
	r.Get("/{id}/roles", h.showRoles)
	r.Post("/{id}/roles/{roleID}", h.toggleRole)
}

type formView struct {
	Title  string
	Action string
	Submit string
	Error  string
	Fields []modal.FieldView
}

type listData struct {
	Table    mastertable.View
	CanRoles bool
	Form     *formView
}

type rolesData struct {
	User      User
	Options   []RoleOption
	Effective []string
	CanAssign bool
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := mastertable.SearchFrom(r)
	users, err := h.service.Directory(r.Context(), tokens.FromContext(r.Context()), search)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.render(w, r, nil, search, nil, http.StatusOK, h.pages.Upstream("list users", err, "Failed to load users"))
		return
	}
	h.render(w, r, users, search, nil, http.StatusOK, "")
}

func (h *Handler) showInvite(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Directory(r.Context(), tokens.FromContext(r.Context()), "")
	if err != nil && h.pages.Expired(w, r, err) {
		return
	}
	m := newModal()
	m.OpenCreate()
	h.render(w, r, users, "", form(m), http.StatusOK, "")
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess := tokens.FromContext(r.Context())
	m := newModal()
	m.OpenCreate()
	err := modal.Bind(m, fields, r.PostForm)
	if err == nil {
		err = m.Submit(r.Context(), func(ctx context.Context, _ string, in Invite) error {
			_, err := h.service.Invite(ctx, sess, in)
			return err
		})
	}
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, modal.ErrValidation) {
			h.logger.Error("invite user", slog.Any("error", err))
			status = http.StatusBadRequest
		}
		users, listErr := h.service.Directory(r.Context(), sess, "")
		if listErr != nil && h.pages.Expired(w, r, listErr) {
			return
		}
		h.render(w, r, users, "", form(m), status, "")
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, "success", "User added successfully")
}

func (h *Handler) showRoles(w http.ResponseWriter, r *http.Request) {
	sess := tokens.FromContext(r.Context())
	user, ok := h.find(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	data := rolesData{
		User:      user,
		CanAssign: permissions.FromContext(r.Context()).Has("users.edit"),
	}
	var toast string
	assignments, err := h.service.Assignments(r.Context(), sess, user.ID)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		toast = h.pages.Upstream("load user roles", err, "Failed to load role data")
	}
	data.Options = assignments.Options
	data.Effective = assignments.Effective
	h.pages.Render(w, r, view.Page{Template: rolesTemplate, Title: "Roles for " + user.DisplayName(), Data: data, Toast: toast})
}

func (h *Handler) toggleRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	target := basePath + "/" + userID + "/roles"
	sess := tokens.FromContext(r.Context())
	assigned, err := h.service.ToggleRole(r.Context(), sess, userID, chi.URLParam(r, "roleID"))
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		h.pages.RedirectWithFlash(w, r, target, "error", h.pages.Upstream("toggle user role", err, "Failed to update role"))
		return
	}
	if h.perms != nil {
		h.perms.Forget(sess.AccessToken())
	}
	msg := "Role revoked"
	if assigned {
		msg = "Role assigned"
	}
	h.pages.RedirectWithFlash(w, r, target, "success", msg)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request, id string) (User, bool) {
	user, found, err := h.service.Find(r.Context(), tokens.FromContext(r.Context()), id)
	if err != nil {
		if !h.pages.Expired(w, r, err) {
			h.pages.RedirectWithFlash(w, r, basePath, "error", h.pages.Upstream("load users", err, "Failed to load users"))
		}
		return User{}, false
	}
	if !found {
		h.pages.RedirectWithFlash(w, r, basePath, "error", "User not found")
		return User{}, false
	}
	return user, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, users []User, search string, fv *formView, status int, toast string) {
	perms := permissions.FromContext(r.Context())
	table := mastertable.Table[User]{
		Title:             "Users",
		Columns:           columns,
		Rows:              users,
		Search:            search,
		SearchPlaceholder: "Search by name or email...",
		EmptyMessage:      "No users found.",
		PermissionPrefix:  "users",
		BasePath:          basePath,
		Page:              mastertable.PageFrom(r),
		PerPage:           shared.DefaultPerPage,
	}
	data := listData{
		Table:    table.View(perms),
		CanRoles: perms.HasAny("users.edit", "roles.view"),
		Form:     fv,
	}
	h.pages.Render(w, r, view.Page{Template: listTemplate, Title: "Users", Data: data, Status: status, Toast: toast})
}

func form(m *modal.Modal[Invite]) *formView {
	return &formView{
		Title:  "Add user",
		Action: basePath,
		Submit: "Add user",
		Error:  m.Error(),
		Fields: modal.Fields(m, fields),
	}
}

func newModal() *modal.Modal[Invite] {
	m := modal.New(newInvite, cloneInvite)
	m.Fallback = "Failed to add user"
	return m
}
