package masters

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/modal"
)

// ItemPrice overrides the sale price of one item.
type ItemPrice struct {
	ItemID string  `json:"item_id" validate:"required"`
	Price  float64 `json:"price" validate:"gte=0"`
}

// PriceList is a named set of item price overrides.
type PriceList struct {
	ID         string      `json:"_id" validate:"required"`
	Name       string      `json:"name"`
	ItemPrices []ItemPrice `json:"item_prices"`
	IsActive   bool        `json:"is_active"`
}

func (p PriceList) RowID() string { return p.ID }
func (p PriceList) Active() bool  { return p.IsActive }

func (p PriceList) Field(key string) string {
	switch key {
	case "name":
		return p.Name
	case "items":
		return strconv.Itoa(len(p.ItemPrices)) + " items"
	case "status":
		return status(p.IsActive)
	}
	return ""
}

// PriceListDraft is the create/update payload.
type PriceListDraft struct {
	Name       string      `json:"name" validate:"required" label:"Price list name"`
	ItemPrices []ItemPrice `json:"item_prices" validate:"dive"`
}

var errPriceLine = errors.New(`lines must look like "<item id> = <price>"`)

// itemPriceLines edits item prices as one "<item id> = <price>" line each.
func itemPriceLines() modal.Accessor[PriceListDraft] {
	return modal.Accessor[PriceListDraft]{
		Get: func(d PriceListDraft) string {
			lines := make([]string, 0, len(d.ItemPrices))
			for _, ip := range d.ItemPrices {
				lines = append(lines, ip.ItemID+" = "+strconv.FormatFloat(ip.Price, 'f', -1, 64))
			}
			return strings.Join(lines, "\n")
		},
		Set: func(d *PriceListDraft, v string) error {
			prices := []ItemPrice{}
			for _, line := range strings.Split(v, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				id, raw, ok := strings.Cut(line, "=")
				if !ok {
					return errPriceLine
				}
				price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil || strings.TrimSpace(id) == "" {
					return errPriceLine
				}
				prices = append(prices, ItemPrice{ItemID: strings.TrimSpace(id), Price: price})
			}
			d.ItemPrices = prices
			return nil
		},
	}
}

// PriceLists configures the price lists screen.
func PriceLists() Entity[PriceList, PriceListDraft] {
	return Entity[PriceList, PriceListDraft]{
		Slug:             "price-lists",
		Resource:         "price-lists/",
		Title:            "Price Lists",
		Singular:         "Price list",
		PermissionPrefix: "price_lists",
		EmptyMessage:     "No price lists yet.",
		Columns: []mastertable.Column[PriceList]{
			{Key: "name", Label: "Price list"},
			{Key: "items", Label: "Items"},
			{Key: "status", Label: "Status", Render: statusCell[PriceList]},
		},
		SearchFields: []string{"name"},
		Editable:     true,
		Support:      map[string]string{"items": "items/"},
		Fields: func(support map[string][]modal.Option) []modal.FieldSpec[PriceListDraft] {
			return []modal.FieldSpec[PriceListDraft]{
				{Name: "name", Label: "Price list name", Required: true, Value: modal.String(func(d *PriceListDraft) *string { return &d.Name })},
				{Name: "item_prices", Label: "Item pricing", Type: modal.Textarea, Options: support["items"],
					Placeholder: "<item id> = <price>", Value: itemPriceLines()},
			}
		},
		Defaults: func() PriceListDraft { return PriceListDraft{ItemPrices: []ItemPrice{}} },
		Draft: func(p PriceList) PriceListDraft {
			prices := slices.Clone(p.ItemPrices)
			if prices == nil {
				prices = []ItemPrice{}
			}
			return PriceListDraft{Name: p.Name, ItemPrices: prices}
		},
		Clone: func(d PriceListDraft) PriceListDraft {
			d.ItemPrices = slices.Clone(d.ItemPrices)
			return d
		},
	}
}
