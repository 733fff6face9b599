package masters

import (
	"html/template"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// Customer is a customer record as listed by the backend.
type Customer struct {
	ID              string   `json:"_id" validate:"required"`
	Name            string   `json:"name"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	GSTNumber       *string  `json:"gst_number"`
	BillingAddress  *Address `json:"billing_address"`
	ShippingAddress *Address `json:"shipping_address"`
	IsActive        bool     `json:"is_active"`
}

func (c Customer) RowID() string { return c.ID }
func (c Customer) Active() bool  { return c.IsActive }

func (c Customer) Field(key string) string {
	switch key {
	case "name":
		return c.Name
	case "email":
		return deref(c.Email)
	case "phone":
		return deref(c.Phone)
	case "gst_number":
		return deref(c.GSTNumber)
	case "city":
		if c.BillingAddress != nil {
			return c.BillingAddress.City
		}
	case "status":
		return status(c.IsActive)
	}
	return ""
}

// CustomerDraft is the create/update payload.
type CustomerDraft struct {
	Name            string  `json:"name" validate:"required" label:"Customer name"`
	Email           string  `json:"email" validate:"omitempty,email" label:"Email"`
	Phone           string  `json:"phone"`
	GSTNumber       string  `json:"gst_number"`
	BillingAddress  Address `json:"billing_address"`
	ShippingAddress Address `json:"shipping_address"`
}

// Customers configures the customers screen.
func Customers() Entity[Customer, CustomerDraft] {
	return Entity[Customer, CustomerDraft]{
		Slug:              "customers",
		Resource:          "customers/",
		Title:             "Customers",
		Singular:          "Customer",
		PermissionPrefix:  "customers",
		SearchPlaceholder: "Search customers by name, email or GSTIN...",
		EmptyMessage:      "No customers yet.",
		Columns: []mastertable.Column[Customer]{
			{Key: "name", Label: "Customer", Render: partyCell[Customer]},
			{Key: "phone", Label: "Contact"},
			{Key: "gst_number", Label: "GSTIN"},
			{Key: "status", Label: "Status", Render: statusCell[Customer]},
		},
		SearchFields: []string{"name", "email", "phone", "gst_number"},
		ServerSearch: true,
		Editable:     true,
		Fields: func(map[string][]modal.Option) []modal.FieldSpec[CustomerDraft] {
			fields := []modal.FieldSpec[CustomerDraft]{
				{Name: "name", Label: "Customer name", Required: true, Value: modal.String(func(d *CustomerDraft) *string { return &d.Name })},
				{Name: "gst_number", Label: "GSTIN", Value: modal.String(func(d *CustomerDraft) *string { return &d.GSTNumber })},
				{Name: "email", Label: "Email", Type: modal.Email, Value: modal.String(func(d *CustomerDraft) *string { return &d.Email })},
				{Name: "phone", Label: "Phone", Value: modal.String(func(d *CustomerDraft) *string { return &d.Phone })},
			}
			fields = append(fields, addressFields("billing_address", "Billing", func(d *CustomerDraft) *Address { return &d.BillingAddress })...)
			return append(fields, addressFields("shipping_address", "Shipping", func(d *CustomerDraft) *Address { return &d.ShippingAddress })...)
		},
		Defaults: func() CustomerDraft {
			return CustomerDraft{BillingAddress: defaultAddress(), ShippingAddress: defaultAddress()}
		},
		Draft: func(c Customer) CustomerDraft {
			return CustomerDraft{
				Name:            c.Name,
				Email:           deref(c.Email),
				Phone:           deref(c.Phone),
				GSTNumber:       deref(c.GSTNumber),
				BillingAddress:  addressOrDefault(c.BillingAddress),
				ShippingAddress: addressOrDefault(c.ShippingAddress),
			}
		},
		Fallback: "Failed to save customer",
	}
}

func partyCell[T mastertable.Row](row T) template.HTML {
	name := template.HTMLEscapeString(row.Field("name"))
	email := row.Field("email")
	if email == "" {
		return template.HTML(`<div class="cell-title">` + name + `</div>`)
	}
	return template.HTML(`<div class="cell-title">` + name + `</div><div class="cell-sub">` + template.HTMLEscapeString(email) + `</div>`)
}

func statusCell[T mastertable.Row](row T) template.HTML {
	if row.Active() {
		return `<span class="badge badge-success">Active</span>`
	}
	return `<span class="badge badge-muted">Inactive</span>`
}
