package sales

// Totals is the previewed summary of a draft.
type Totals struct {
	Subtotal   float64
	TaxTotal   float64
	GrandTotal float64
}

// LinePreview is one draft line with its previewed amounts.
type LinePreview struct {
	LineInput
	Index     int
	TaxAmount float64
	LineTotal float64
}

// calculateLineTotals applies the summed tax rate to qty x price.
func calculateLineTotals(qty, price, taxPercent float64) (subtotal, taxAmount, lineTotal float64) {
	subtotal = qty * price
	taxAmount = subtotal * (taxPercent / 100)
	lineTotal = subtotal + taxAmount
	return
}

// Preview prices each line with the given tax rates by id. Unknown tax ids
// contribute nothing, matching the backend.
func Preview(lines []LineInput, rates map[string]float64) ([]LinePreview, Totals) {
	var totals Totals
	out := make([]LinePreview, 0, len(lines))
	for i, line := range lines {
		var percent float64
		for _, id := range line.TaxIDs {
			percent += rates[id]
		}
		subtotal, tax, total := calculateLineTotals(line.Qty, line.Price, percent)
		out = append(out, LinePreview{LineInput: line, Index: i, TaxAmount: tax, LineTotal: total})
		totals.Subtotal += subtotal
		totals.TaxTotal += tax
	}
	totals.GrandTotal = totals.Subtotal + totals.TaxTotal
	return out, totals
}

// autofill copies the master price and taxes onto lines that picked an item
// but have no price yet.
func autofill(lines []LineInput, items map[string]Item) {
	for i := range lines {
		item, ok := items[lines[i].ItemID]
		if !ok || lines[i].Price != 0 {
			continue
		}
		lines[i].Price = item.SalePrice
		if len(lines[i].TaxIDs) == 0 {
			lines[i].TaxIDs = append([]string{}, item.TaxIDs...)
		}
	}
}
