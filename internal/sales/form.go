package sales

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Form operations. Anything but save re-renders the draft.
const (
	opSave       = "save"
	opAddLine    = "add_line"
	opRemoveLine = "remove_line"
	opRecalc     = "recalculate"
)

// parseDraft reads the header fields and the parallel line arrays
// (item_id, qty, price) plus tax_ids_<n> for line n.
func parseDraft(k Kind, form url.Values) (Draft, error) {
	d := Draft{
		CustomerID: strings.TrimSpace(form.Get("customer_id")),
		Notes:      form.Get("notes"),
	}
	if k.DateField != "" {
		k.setDate(&d, strings.TrimSpace(form.Get(k.DateField)))
	}
	if k.SourceParam != "" {
		k.setSource(&d, strings.TrimSpace(form.Get(k.SourceParam)))
	}

	itemIDs := form["item_id"]
	quantities := form["qty"]
	prices := form["price"]
	d.Items = make([]LineInput, 0, len(itemIDs))
	for i := range itemIDs {
		line := LineInput{ItemID: strings.TrimSpace(itemIDs[i]), TaxIDs: []string{}}
		qty, err := parseNumber(at(quantities, i), 1)
		if err != nil {
			return d, fmt.Errorf("line %d quantity must be a number", i+1)
		}
		price, err := parseNumber(at(prices, i), 0)
		if err != nil {
			return d, fmt.Errorf("line %d price must be a number", i+1)
		}
		line.Qty = qty
		line.Price = price
		for _, id := range form["tax_ids_"+strconv.Itoa(i)] {
			if id = strings.TrimSpace(id); id != "" {
				line.TaxIDs = append(line.TaxIDs, id)
			}
		}
		d.Items = append(d.Items, line)
	}
	return d, nil
}

// applyOp edits the line list for the non-saving operations.
func applyOp(d *Draft, op string) {
	switch {
	case op == opAddLine:
		d.Items = append(d.Items, blankLine())
	case strings.HasPrefix(op, opRemoveLine+":"):
		idx, err := strconv.Atoi(strings.TrimPrefix(op, opRemoveLine+":"))
		if err != nil || idx < 0 || idx >= len(d.Items) {
			return
		}
		d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
		if len(d.Items) == 0 {
			d.Items = []LineInput{blankLine()}
		}
	}
}

func parseNumber(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
