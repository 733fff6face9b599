// Package mastertable renders the list view shared by every master-data page:
// a search box, a header row, loading skeletons or an empty message, and
// permission-gated row actions.
package mastertable

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
)

// Row is a record the table can display.
type Row interface {
	RowID() string
	Field(key string) string
	Active() bool
}

// Column describes one table column. A nil Render shows Field(Key) escaped.
type Column[T Row] struct {
	Key    string
	Label  string
	Render func(T) template.HTML
}

func (c Column[T]) cell(row T) template.HTML {
	if c.Render != nil {
		return c.Render(row)
	}
	return template.HTML(template.HTMLEscapeString(row.Field(c.Key)))
}

// State is the mutually exclusive body state of a table.
type State int

const (
	// Loading shows skeleton rows only.
	Loading State = iota
	// Empty shows the empty message only.
	Empty
	// Ready shows data rows.
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	default:
		return "ready"
	}
}

// Action is a row or toolbar operation gated by "<prefix>.<action>".
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// PermissionKey returns the permission guarding action on prefix.
func PermissionKey(prefix string, action Action) string {
	return prefix + "." + string(action)
}

const (
	// SearchParam carries the search text, verbatim.
	SearchParam = "search"
	// PageParam carries the 1-based page number.
	PageParam = "page"
	// ConfirmField must be "yes" on a deactivation form before any request fires.
	ConfirmField = "confirm"

	skeletonRows = 5
)

// Table is the configuration and data for one render.
type Table[T Row] struct {
	Title             string
	Columns           []Column[T]
	Rows              []T
	IsLoading         bool
	Search            string
	SearchPlaceholder string
	EmptyMessage      string
	PermissionPrefix  string
	BasePath          string
	// LiveSearch advertises BasePath+"/rows" as the fragment route that
	// re-renders the body while the user types.
	LiveSearch bool
	Page       int
	PerPage    int
}

// RowView is one rendered data row.
type RowView struct {
	ID        string
	Cells     []template.HTML
	Active    bool
	CanEdit   bool
	CanDelete bool
	EditHref  string
	// DeactivateHref leads to the confirmation step, never to the action itself.
	DeactivateHref string
}

// View is the template-ready projection of a Table.
type View struct {
	Title             string
	Search            string
	SearchPlaceholder string
	EmptyMessage      string
	BasePath          string
	RowsHref          string
	Headers           []string
	State             State
	Rows              []RowView
	Skeleton          []int
	ColumnCount       int
	CanCreate         bool
	CreateHref        string
	Pagination        shared.Pagination
}

// AsLoading returns a copy of v showing skeleton rows.
func (v View) AsLoading() View {
	v.State = Loading
	v.Rows = nil
	v.Skeleton = make([]int, skeletonRows)
	for i := range v.Skeleton {
		v.Skeleton[i] = i
	}
	return v
}

// Loading reports whether the skeleton is shown.
func (v View) Loading() bool { return v.State == Loading }

// Empty reports whether the empty message is shown.
func (v View) Empty() bool { return v.State == Empty }

// View projects the table for rendering with the given permissions.
func (t Table[T]) View(perms *permissions.Set) View {
	v := View{
		Title:             t.Title,
		Search:            t.Search,
		SearchPlaceholder: t.SearchPlaceholder,
		EmptyMessage:      t.EmptyMessage,
		BasePath:          strings.TrimSuffix(t.BasePath, "/"),
		ColumnCount:       len(t.Columns) + 1,
		CanCreate:         perms.Has(PermissionKey(t.PermissionPrefix, ActionCreate)),
	}
	if v.SearchPlaceholder == "" {
		v.SearchPlaceholder = "Search..."
	}
	if v.EmptyMessage == "" {
		v.EmptyMessage = "No records found."
	}
	v.CreateHref = v.BasePath + "/new"
	if t.LiveSearch {
		v.RowsHref = v.BasePath + "/rows"
	}
	for _, c := range t.Columns {
		v.Headers = append(v.Headers, c.Label)
	}

	if t.IsLoading {
		return v.AsLoading()
	}

	rows, pagination := Paginate(t.Rows, t.Page, t.PerPage)
	v.Pagination = pagination
	if len(rows) == 0 {
		v.State = Empty
		return v
	}

	canEdit := perms.Has(PermissionKey(t.PermissionPrefix, ActionEdit))
	canDelete := perms.Has(PermissionKey(t.PermissionPrefix, ActionDelete))
	v.State = Ready
	v.Rows = make([]RowView, 0, len(rows))
	for _, row := range rows {
		rv := RowView{
			ID:             row.RowID(),
			Active:         row.Active(),
			CanEdit:        canEdit,
			CanDelete:      canDelete && row.Active(),
			EditHref:       v.BasePath + "/" + row.RowID() + "/edit",
			DeactivateHref: v.BasePath + "/" + row.RowID() + "/deactivate",
		}
		for _, c := range t.Columns {
			rv.Cells = append(rv.Cells, c.cell(row))
		}
		v.Rows = append(v.Rows, rv)
	}
	return v
}

// Paginate returns one page of rows. perPage <= 0 returns every row on a
// single page.
func Paginate[T any](rows []T, page, perPage int) ([]T, shared.Pagination) {
	if perPage <= 0 {
		return rows, shared.Pagination{Page: 1, PerPage: len(rows), Total: len(rows), TotalPages: 1}
	}
	p := shared.NewPagination(page, perPage, len(rows))
	start, end := p.Bounds()
	if start == end {
		return nil, p
	}
	return rows[start:end], p
}

// SearchFrom returns the search text of r exactly as typed.
func SearchFrom(r *http.Request) string {
	return r.URL.Query().Get(SearchParam)
}

// PageFrom returns the requested page, or 1 when absent or malformed.
func PageFrom(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get(PageParam))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Confirmed reports whether a deactivation form carried explicit confirmation.
func Confirmed(r *http.Request) bool {
	return r.PostFormValue(ConfirmField) == "yes"
}
