package masters

import (
	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// Vendor is a supplier record.
type Vendor struct {
	ID        string   `json:"_id" validate:"required"`
	Name      string   `json:"name"`
	Email     *string  `json:"email"`
	Phone     *string  `json:"phone"`
	GSTNumber *string  `json:"gst_number"`
	Address   *Address `json:"address"`
	IsActive  bool     `json:"is_active"`
}

func (v Vendor) RowID() string { return v.ID }
func (v Vendor) Active() bool  { return v.IsActive }

func (v Vendor) Field(key string) string {
	switch key {
	case "name":
		return v.Name
	case "email":
		return deref(v.Email)
	case "phone":
		return deref(v.Phone)
	case "gst_number":
		return deref(v.GSTNumber)
	case "city":
		if v.Address != nil {
			return v.Address.City
		}
	case "status":
		return status(v.IsActive)
	}
	return ""
}

// VendorDraft is the create/update payload.
type VendorDraft struct {
	Name      string  `json:"name" validate:"required" label:"Vendor name"`
	Email     string  `json:"email" validate:"omitempty,email" label:"Email"`
	Phone     string  `json:"phone"`
	GSTNumber string  `json:"gst_number"`
	Address   Address `json:"address"`
}

// Vendors configures the vendors screen.
func Vendors() Entity[Vendor, VendorDraft] {
	return Entity[Vendor, VendorDraft]{
		Slug:              "vendors",
		Resource:          "vendors/",
		Title:             "Vendors",
		Singular:          "Vendor",
		PermissionPrefix:  "vendors",
		SearchPlaceholder: "Search vendors...",
		EmptyMessage:      "No vendors yet.",
		Columns: []mastertable.Column[Vendor]{
			{Key: "name", Label: "Vendor", Render: partyCell[Vendor]},
			{Key: "phone", Label: "Contact"},
			{Key: "gst_number", Label: "GSTIN"},
			{Key: "city", Label: "City"},
			{Key: "status", Label: "Status", Render: statusCell[Vendor]},
		},
		SearchFields: []string{"name", "email", "gst_number"},
		ServerSearch: true,
		Editable:     true,
		Fields: func(map[string][]modal.Option) []modal.FieldSpec[VendorDraft] {
			fields := []modal.FieldSpec[VendorDraft]{
				{Name: "name", Label: "Vendor name", Required: true, Value: modal.String(func(d *VendorDraft) *string { return &d.Name })},
				{Name: "gst_number", Label: "GSTIN", Value: modal.String(func(d *VendorDraft) *string { return &d.GSTNumber })},
				{Name: "email", Label: "Email", Type: modal.Email, Value: modal.String(func(d *VendorDraft) *string { return &d.Email })},
				{Name: "phone", Label: "Phone", Value: modal.String(func(d *VendorDraft) *string { return &d.Phone })},
			}
			return append(fields, addressFields("address", "Address", func(d *VendorDraft) *Address { return &d.Address })...)
		},
		Defaults: func() VendorDraft { return VendorDraft{Address: defaultAddress()} },
		Draft: func(v Vendor) VendorDraft {
			return VendorDraft{
				Name:      v.Name,
				Email:     deref(v.Email),
				Phone:     deref(v.Phone),
				GSTNumber: deref(v.GSTNumber),
				Address:   addressOrDefault(v.Address),
			}
		},
	}
}
