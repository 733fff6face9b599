package masters

import (
	"html/template"
	"slices"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// Item is a product or service.
type Item struct {
	ID             string   `json:"_id" validate:"required"`
	Name           string   `json:"name"`
	ItemType       string   `json:"item_type"`
	CategoryID     *string  `json:"category_id"`
	SKU            *string  `json:"sku"`
	Unit           string   `json:"unit"`
	SalePrice      float64  `json:"sale_price"`
	PurchasePrice  float64  `json:"purchase_price"`
	TaxIDs         []string `json:"tax_ids"`
	TrackInventory bool     `json:"track_inventory"`
	IsActive       bool     `json:"is_active"`
}

func (i Item) RowID() string { return i.ID }
func (i Item) Active() bool  { return i.IsActive }

func (i Item) Field(key string) string {
	switch key {
	case "name":
		return i.Name
	case "sku":
		return deref(i.SKU)
	case "item_type":
		return i.ItemType
	case "unit":
		return i.Unit
	case "sale_price":
		return formatMoney(i.SalePrice)
	case "purchase_price":
		return formatMoney(i.PurchasePrice)
	case "track_inventory":
		if i.TrackInventory {
			return "Tracked"
		}
		return "Not tracked"
	case "status":
		return status(i.IsActive)
	}
	return ""
}

// ItemDraft is the create/update payload.
type ItemDraft struct {
	Name           string   `json:"name" validate:"required" label:"Item name"`
	ItemType       string   `json:"item_type" validate:"required,oneof=PRODUCT SERVICE" label:"Type"`
	CategoryID     *string  `json:"category_id"`
	SKU            *string  `json:"sku"`
	Unit           string   `json:"unit" validate:"required" label:"Unit"`
	SalePrice      float64  `json:"sale_price" validate:"gte=0" label:"Sale price"`
	PurchasePrice  float64  `json:"purchase_price" validate:"gte=0" label:"Purchase price"`
	TaxIDs         []string `json:"tax_ids"`
	TrackInventory bool     `json:"track_inventory"`
}

var units = []modal.Option{
	{Value: "PCS", Label: "Pieces"},
	{Value: "KG", Label: "Kilograms"},
	{Value: "LTR", Label: "Litres"},
	{Value: "MTR", Label: "Metres"},
	{Value: "BOX", Label: "Boxes"},
	{Value: "HRS", Label: "Hours"},
}

// Items configures the items screen. Categories and taxes feed its selects.
func Items() Entity[Item, ItemDraft] {
	return Entity[Item, ItemDraft]{
		Slug:              "items",
		Resource:          "items/",
		Title:             "Items",
		Singular:          "Item",
		PermissionPrefix:  "items",
		SearchPlaceholder: "Search by name or SKU...",
		EmptyMessage:      "No items yet.",
		Columns: []mastertable.Column[Item]{
			{Key: "name", Label: "Item", Render: func(i Item) template.HTML {
				return template.HTML(`<div class="cell-title">` + template.HTMLEscapeString(i.Name) +
					`</div><div class="cell-sub">` + template.HTMLEscapeString(i.ItemType+" · "+i.Unit) + `</div>`)
			}},
			{Key: "sku", Label: "SKU"},
			{Key: "sale_price", Label: "Sale price"},
			{Key: "track_inventory", Label: "Inventory"},
			{Key: "status", Label: "Status", Render: statusCell[Item]},
		},
		SearchFields: []string{"name", "sku"},
		ServerSearch: true,
		Editable:     true,
		Support:      map[string]string{"categories": "categories/", "taxes": "taxes/"},
		Fields: func(support map[string][]modal.Option) []modal.FieldSpec[ItemDraft] {
			categories := append([]modal.Option{{Value: "", Label: "No category"}}, support["categories"]...)
			return []modal.FieldSpec[ItemDraft]{
				{Name: "name", Label: "Item name", Required: true, Value: modal.String(func(d *ItemDraft) *string { return &d.Name })},
				{Name: "item_type", Label: "Type", Type: modal.Select, Required: true,
					Options: []modal.Option{{Value: "PRODUCT", Label: "Product"}, {Value: "SERVICE", Label: "Service"}},
					Value:   modal.String(func(d *ItemDraft) *string { return &d.ItemType })},
				{Name: "sku", Label: "SKU", Value: modal.OptionalString(func(d *ItemDraft) **string { return &d.SKU })},
				{Name: "category_id", Label: "Category", Type: modal.Select, Options: categories,
					Value: modal.OptionalString(func(d *ItemDraft) **string { return &d.CategoryID })},
				{Name: "unit", Label: "Unit", Type: modal.Select, Required: true, Options: units,
					Value: modal.String(func(d *ItemDraft) *string { return &d.Unit })},
				{Name: "sale_price", Label: "Sale price", Type: modal.Number, Value: modal.Float(func(d *ItemDraft) *float64 { return &d.SalePrice })},
				{Name: "purchase_price", Label: "Purchase price", Type: modal.Number, Value: modal.Float(func(d *ItemDraft) *float64 { return &d.PurchasePrice })},
				{Name: "tax_ids", Label: "Taxes", Type: modal.MultiSelect, Options: support["taxes"],
					Value: modal.StringList(func(d *ItemDraft) *[]string { return &d.TaxIDs })},
				{Name: "track_inventory", Label: "Track inventory", Type: modal.Checkbox, Value: modal.Bool(func(d *ItemDraft) *bool { return &d.TrackInventory })},
			}
		},
		Defaults: func() ItemDraft {
			return ItemDraft{ItemType: "PRODUCT", Unit: "PCS", TaxIDs: []string{}}
		},
		Draft: func(i Item) ItemDraft {
			taxes := slices.Clone(i.TaxIDs)
			if taxes == nil {
				taxes = []string{}
			}
			return ItemDraft{
				Name:           i.Name,
				ItemType:       i.ItemType,
				CategoryID:     cloneString(i.CategoryID),
				SKU:            cloneString(i.SKU),
				Unit:           i.Unit,
				SalePrice:      i.SalePrice,
				PurchasePrice:  i.PurchasePrice,
				TaxIDs:         taxes,
				TrackInventory: i.TrackInventory,
			}
		},
		Clone: func(d ItemDraft) ItemDraft {
			d.CategoryID = cloneString(d.CategoryID)
			d.SKU = cloneString(d.SKU)
			d.TaxIDs = slices.Clone(d.TaxIDs)
			return d
		},
	}
}
