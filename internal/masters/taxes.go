package masters

import (
	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// Tax is a tax rate applied to items.
type Tax struct {
	ID       string  `json:"_id" validate:"required"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	TaxType  string  `json:"tax_type"`
	IsActive bool    `json:"is_active"`
}

func (t Tax) RowID() string { return t.ID }
func (t Tax) Active() bool  { return t.IsActive }

func (t Tax) Field(key string) string {
	switch key {
	case "name":
		return t.Name
	case "rate":
		return printer.Sprintf("%.2f%%", t.Rate)
	case "tax_type":
		return t.TaxType
	case "status":
		return status(t.IsActive)
	}
	return ""
}

// TaxDraft is the create/update payload.
type TaxDraft struct {
	Name    string  `json:"name" validate:"required" label:"Tax name"`
	Rate    float64 `json:"rate" validate:"gte=0,lte=100" label:"Rate"`
	TaxType string  `json:"tax_type" validate:"required" label:"Tax type"`
}

var taxTypes = []modal.Option{
	{Value: "CGST", Label: "CGST"},
	{Value: "SGST", Label: "SGST"},
	{Value: "IGST", Label: "IGST"},
	{Value: "VAT", Label: "VAT"},
}

// Taxes configures the taxes screen.
func Taxes() Entity[Tax, TaxDraft] {
	return Entity[Tax, TaxDraft]{
		Slug:             "taxes",
		Resource:         "taxes/",
		Title:            "Taxes",
		Singular:         "Tax",
		PermissionPrefix: "taxes",
		EmptyMessage:     "No taxes configured.",
		Columns: []mastertable.Column[Tax]{
			{Key: "name", Label: "Tax"},
			{Key: "tax_type", Label: "Type"},
			{Key: "rate", Label: "Rate"},
			{Key: "status", Label: "Status", Render: statusCell[Tax]},
		},
		SearchFields: []string{"name", "tax_type"},
		Editable:     true,
		Fields: func(map[string][]modal.Option) []modal.FieldSpec[TaxDraft] {
			return []modal.FieldSpec[TaxDraft]{
				{Name: "name", Label: "Tax name", Required: true, Placeholder: "GST 18%", Value: modal.String(func(d *TaxDraft) *string { return &d.Name })},
				{Name: "rate", Label: "Rate (%)", Type: modal.Number, Required: true, Value: modal.Float(func(d *TaxDraft) *float64 { return &d.Rate })},
				{Name: "tax_type", Label: "Tax type", Type: modal.Select, Required: true, Options: taxTypes,
					Value: modal.String(func(d *TaxDraft) *string { return &d.TaxType })},
			}
		},
		Defaults: func() TaxDraft { return TaxDraft{TaxType: "CGST"} },
		Draft: func(t Tax) TaxDraft {
			return TaxDraft{Name: t.Name, Rate: t.Rate, TaxType: t.TaxType}
		},
	}
}
