// Package masters serves the master-data screens (customers, vendors, items,
// categories, taxes and price lists) from one configurable CRUD handler.
package masters

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// Entity configures the generic handler for one master resource.
type Entity[T mastertable.Row, D any] struct {
	// Slug is the route segment under /dashboard/masters.
	Slug string
	// Resource is the backend collection path, with trailing slash.
	Resource          string
	Title             string
	Singular          string
	PermissionPrefix  string
	SearchPlaceholder string
	EmptyMessage      string
	Columns           []mastertable.Column[T]
	// SearchFields are filtered locally; ServerSearch also forwards the text.
	SearchFields []string
	ServerSearch bool
	// Editable enables the edit form; categories are create/delete only.
	Editable bool
	// DeactivateVerb labels the destructive action ("Deactivate", "Delete").
	DeactivateVerb string
	// Support maps option keys to backend list paths loaded for the form.
	Support  map[string]string
	Fields   func(support map[string][]modal.Option) []modal.FieldSpec[D]
	Defaults func() D
	Draft    func(T) D
	Clone    func(D) D
	Fallback string
}

// Ref is the minimal shape of any backend record used as a form option.
type Ref struct {
	ID   string `json:"_id" validate:"required"`
	Name string `json:"name"`
}

func options(refs []Ref) []modal.Option {
	out := make([]modal.Option, 0, len(refs))
	for _, ref := range refs {
		out = append(out, modal.Option{Value: ref.ID, Label: ref.Name})
	}
	return out
}

// Address is the free-form postal address embedded in parties.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func defaultAddress() Address {
	return Address{Country: "India"}
}

func addressOrDefault(a *Address) Address {
	if a == nil {
		return defaultAddress()
	}
	return *a
}

func addressFields[D any](prefix, group string, addr func(*D) *Address) []modal.FieldSpec[D] {
	return []modal.FieldSpec[D]{
		{Name: prefix + ".street", Label: group + " street", Value: modal.String(func(d *D) *string { return &addr(d).Street })},
		{Name: prefix + ".city", Label: group + " city", Value: modal.String(func(d *D) *string { return &addr(d).City })},
		{Name: prefix + ".state", Label: group + " state", Value: modal.String(func(d *D) *string { return &addr(d).State })},
		{Name: prefix + ".zip", Label: group + " zip", Value: modal.String(func(d *D) *string { return &addr(d).Zip })},
		{Name: prefix + ".country", Label: group + " country", Value: modal.String(func(d *D) *string { return &addr(d).Country })},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var printer = message.NewPrinter(language.English)

func formatMoney(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func status(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
