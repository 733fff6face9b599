package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
	"github.com/erp-portal/portal/internal/tokens"
	"github.com/erp-portal/portal/internal/view"
)

const (
	listTemplate   = "pages/sales/list.html"
	detailTemplate = "pages/sales/detail.html"
	formTemplate   = "pages/sales/form.html"

	perPage = 20
)

// Handler serves the list, detail and create screens of one document kind.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Responder
	kind    Kind
	// next is the kind that can be derived from this one, if any.
	next *Kind
}

// NewHandler constructs a Handler for kind k.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder, k Kind, next *Kind) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, kind: k, next: next}
}

// MountRoutes registers the kind routes on a router scoped to its base path.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.showCreate)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Post("/{id}/"+h.kind.Action, h.transition)
}

// Slug returns the route segment.
func (h *Handler) Slug() string { return h.kind.Slug }

type kindMeta struct {
	Title       string
	Singular    string
	BasePath    string
	ActionLabel string
	Action      string
	DateField   string
	DateLabel   string
	SourceParam string
	SourceTitle string
}

type listView struct {
	Kind       kindMeta
	Search     string
	Rows       []Document
	State      mastertable.State
	Pagination shared.Pagination
	CanCreate  bool
}

type followUp struct {
	Label string
	Href  string
}

type detailView struct {
	Kind          kindMeta
	Doc           Document
	CanTransition bool
	FollowUp      *followUp
}

type formView struct {
	Kind      kindMeta
	Action    string
	Error     string
	Draft     Draft
	Date      string
	Source    string
	Lines     []LinePreview
	Totals    Totals
	Customers []modal.Option
	Items     []modal.Option
	Taxes     []modal.Option
}

func (h *Handler) meta() kindMeta {
	m := kindMeta{
		Title:       h.kind.Title,
		Singular:    h.kind.Singular,
		BasePath:    h.kind.basePath(),
		ActionLabel: h.kind.ActionLabel,
		Action:      h.kind.Action,
		DateField:   h.kind.DateField,
		DateLabel:   h.kind.DateLabel,
		SourceParam: h.kind.SourceParam,
	}
	if h.kind.Source != nil {
		m.SourceTitle = h.kind.Source.Singular
	}
	return m
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := mastertable.SearchFrom(r)
	data := listView{
		Kind:      h.meta(),
		Search:    search,
		State:     mastertable.Empty,
		CanCreate: permissions.FromContext(r.Context()).Has(mastertable.PermissionKey(h.kind.PermissionPrefix, mastertable.ActionCreate)),
	}
	docs, err := h.service.List(r.Context(), tokens.FromContext(r.Context()), h.kind)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		toast := h.pages.Upstream("list "+h.kind.Slug, err, "Failed to load "+strings.ToLower(h.kind.Title))
		h.pages.Render(w, r, view.Page{Template: listTemplate, Title: h.kind.Title, Data: data, Toast: toast})
		return
	}
	docs = mastertable.Filter(docs, search, mastertable.Fields[Document]("number", "customer_name", "status"))
	data.Rows, data.Pagination = mastertable.Paginate(docs, mastertable.PageFrom(r), perPage)
	if len(data.Rows) > 0 {
		data.State = mastertable.Ready
	}
	h.pages.Render(w, r, view.Page{Template: listTemplate, Title: h.kind.Title, Data: data})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.service.Get(r.Context(), tokens.FromContext(r.Context()), h.kind, id)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		msg := h.pages.Upstream("get "+h.kind.Slug, err, h.kind.Singular+" not found")
		h.pages.RedirectWithFlash(w, r, h.kind.basePath(), "error", msg)
		return
	}
	perms := permissions.FromContext(r.Context())
	data := detailView{
		Kind:          h.meta(),
		Doc:           doc,
		CanTransition: h.kind.CanTransition(doc.Status),
	}
	if h.next != nil && perms.Has(mastertable.PermissionKey(h.next.PermissionPrefix, mastertable.ActionCreate)) {
		data.FollowUp = &followUp{
			Label: "Create " + strings.ToLower(h.next.Singular),
			Href:  h.next.basePath() + "/new?" + url.Values{h.next.SourceParam: {doc.ID}}.Encode(),
		}
	}
	h.pages.Render(w, r, view.Page{Template: detailTemplate, Title: h.kind.Singular + " " + doc.Number(), Data: data})
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	src := tokens.FromContext(r.Context())
	m := h.newModal()
	m.OpenCreate()

	var toast string
	if h.kind.SourceParam != "" {
		if sourceID := r.URL.Query().Get(h.kind.SourceParam); sourceID != "" {
			origin, err := h.service.Get(r.Context(), src, *h.kind.Source, sourceID)
			if err != nil {
				if h.pages.Expired(w, r, err) {
					return
				}
				toast = h.pages.Upstream("load "+h.kind.Source.Slug, err, "Failed to load "+strings.ToLower(h.kind.Source.Singular))
			} else {
				m.Update(func(d *Draft) {
					*d = draftFrom(origin)
					h.kind.setSource(d, origin.ID)
				})
			}
		}
	}
	h.renderForm(w, r, m, http.StatusOK, toast)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	src := tokens.FromContext(r.Context())
	m := h.newModal()
	m.OpenCreate()

	draft, err := parseDraft(h.kind, r.PostForm)
	m.Update(func(d *Draft) { *d = draft })
	if err != nil {
		m.Fail(err.Error())
		h.renderForm(w, r, m, http.StatusUnprocessableEntity, "")
		return
	}

	op := r.PostFormValue("op")
	if op != opSave {
		m.Update(func(d *Draft) { applyOp(d, op) })
		h.renderForm(w, r, m, http.StatusOK, "")
		return
	}

	var created Document
	err = m.Submit(r.Context(), func(ctx context.Context, _ string, d Draft) error {
		doc, err := h.service.Create(ctx, src, h.kind, d)
		created = doc
		return err
	})
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, modal.ErrValidation) {
			h.logger.Error("create "+h.kind.Slug, slog.Any("error", err))
			status = http.StatusBadRequest
		}
		h.renderForm(w, r, m, status, "")
		return
	}
	h.pages.RedirectWithFlash(w, r, h.kind.basePath()+"/"+url.PathEscape(created.ID), "success", h.kind.Singular+" "+created.Number()+" created")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	target := h.kind.basePath() + "/" + url.PathEscape(id)
	doc, err := h.service.Transition(r.Context(), tokens.FromContext(r.Context()), h.kind, id)
	if err != nil {
		if h.pages.Expired(w, r, err) {
			return
		}
		msg := h.pages.Upstream(h.kind.Action+" "+h.kind.Slug, err, "Failed to "+h.kind.Action+" "+strings.ToLower(h.kind.Singular))
		h.pages.RedirectWithFlash(w, r, target, "error", msg)
		return
	}
	h.pages.RedirectWithFlash(w, r, target, "success", h.kind.Singular+" "+doc.Number()+" "+h.kind.ActionDone)
}

// renderForm loads the catalog, fills prices for newly picked items and
// previews the totals before rendering.
func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, m *modal.Modal[Draft], status int, toast string) {
	catalog, err := h.service.Catalog(r.Context(), tokens.FromContext(r.Context()))
	if err != nil && h.pages.Expired(w, r, err) {
		return
	}
	m.Update(func(d *Draft) { autofill(d.Items, catalog.itemsByID()) })
	draft := m.Draft()
	lines, totals := Preview(draft.Items, catalog.Rates())

	data := formView{
		Kind:   h.meta(),
		Action: h.kind.basePath(),
		Error:  m.Error(),
		Draft:  draft,
		Date:   h.kind.date(draft),
		Source: h.kind.source(draft),
		Lines:  lines,
		Totals: totals,
	}
	for _, c := range catalog.Customers {
		data.Customers = append(data.Customers, modal.Option{Value: c.ID, Label: c.Name})
	}
	for _, it := range catalog.Items {
		data.Items = append(data.Items, modal.Option{Value: it.ID, Label: it.Name})
	}
	for _, t := range catalog.Taxes {
		data.Taxes = append(data.Taxes, modal.Option{Value: t.ID, Label: t.Name + " (" + strconv.FormatFloat(t.Rate, 'f', -1, 64) + "%)"})
	}
	h.pages.Render(w, r, view.Page{Template: formTemplate, Title: "New " + strings.ToLower(h.kind.Singular), Data: data, Status: status, Toast: toast})
}

func (h *Handler) newModal() *modal.Modal[Draft] {
	m := modal.New(newDraft, cloneDraft)
	m.Fallback = "Failed to create " + strings.ToLower(h.kind.Singular)
	return m
}
