// Package sales serves the quotation, sales order and invoice screens. Totals
// are computed by the backend; the portal only previews them while a draft
// is being edited.
package sales

import (
	"strconv"

	"github.com/erp-portal/portal/internal/apiclient"
)

// Document statuses the portal branches on.
const (
	StatusDraft     = "DRAFT"
	StatusSent      = "SENT"
	StatusAccepted  = "ACCEPTED"
	StatusConfirmed = "CONFIRMED"
	StatusIssued    = "ISSUED"
)

// Line is a priced line as returned by the backend.
type Line struct {
	ItemID    string   `json:"item_id" validate:"required"`
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Qty       float64  `json:"qty"`
	Price     float64  `json:"price"`
	TaxIDs    []string `json:"tax_ids"`
	TaxAmount float64  `json:"tax_amount"`
	LineTotal float64  `json:"line_total"`
}

// Document is the common read shape of quotations, sales orders and
// invoices. Exactly one of the number fields is set per kind.
type Document struct {
	ID            string              `json:"_id" validate:"required"`
	QuoteNumber   string              `json:"quote_number"`
	OrderNumber   string              `json:"order_number"`
	InvoiceNumber string              `json:"invoice_number"`
	CustomerID    string              `json:"customer_id"`
	CustomerName  string              `json:"customer_name"`
	QuotationID   string              `json:"quotation_id"`
	SalesOrderID  string              `json:"sales_order_id"`
	Items         []Line              `json:"items" validate:"dive"`
	Subtotal      float64             `json:"subtotal"`
	TaxTotal      float64             `json:"tax_total"`
	GrandTotal    float64             `json:"grand_total"`
	Status        string              `json:"status"`
	ValidUntil    apiclient.Timestamp `json:"valid_until"`
	DueDate       apiclient.Timestamp `json:"due_date"`
	Notes         string              `json:"notes"`
	CreatedAt     apiclient.Timestamp `json:"created_at"`
}

// Number returns the human document number.
func (d Document) Number() string {
	switch {
	case d.QuoteNumber != "":
		return d.QuoteNumber
	case d.OrderNumber != "":
		return d.OrderNumber
	default:
		return d.InvoiceNumber
	}
}

// RowID implements mastertable.Row.
func (d Document) RowID() string { return d.ID }

// Field implements mastertable.Row.
func (d Document) Field(key string) string {
	switch key {
	case "number":
		return d.Number()
	case "customer_name":
		return d.CustomerName
	case "status":
		return d.Status
	case "grand_total":
		return strconv.FormatFloat(d.GrandTotal, 'f', 2, 64)
	}
	return ""
}

// Active implements mastertable.Row. Sales documents are never deactivated.
func (d Document) Active() bool { return false }

// LineInput is one line of a create request.
type LineInput struct {
	ItemID string   `json:"item_id" validate:"required" label:"Item"`
	Qty    float64  `json:"qty" validate:"gt=0" label:"Quantity"`
	Price  float64  `json:"price" validate:"gte=0" label:"Price"`
	TaxIDs []string `json:"tax_ids"`
}

// Draft is the create request for every kind. Fields that do not apply to
// a kind stay empty and are omitted.
type Draft struct {
	CustomerID   string      `json:"customer_id" validate:"required" label:"Customer"`
	Items        []LineInput `json:"items" validate:"required,min=1,dive" label:"Line items"`
	ValidUntil   string      `json:"valid_until,omitempty"`
	DueDate      string      `json:"due_date,omitempty"`
	QuotationID  string      `json:"quotation_id,omitempty"`
	SalesOrderID string      `json:"sales_order_id,omitempty"`
	Notes        string      `json:"notes,omitempty"`
}

func blankLine() LineInput {
	return LineInput{Qty: 1, TaxIDs: []string{}}
}

func newDraft() Draft {
	return Draft{Items: []LineInput{blankLine()}}
}

func cloneDraft(d Draft) Draft {
	out := d
	out.Items = make([]LineInput, len(d.Items))
	for i, line := range d.Items {
		line.TaxIDs = append([]string{}, line.TaxIDs...)
		out.Items[i] = line
	}
	return out
}

// draftFrom seeds a follow-up document (order from quotation, invoice from
// order) with the source's customer and lines.
func draftFrom(src Document) Draft {
	d := Draft{CustomerID: src.CustomerID, Notes: src.Notes}
	for _, line := range src.Items {
		d.Items = append(d.Items, LineInput{
			ItemID: line.ItemID,
			Qty:    line.Qty,
			Price:  line.Price,
			TaxIDs: append([]string{}, line.TaxIDs...),
		})
	}
	if len(d.Items) == 0 {
		d.Items = []LineInput{blankLine()}
	}
	return d
}

// Item is the master item shape used to price new lines.
type Item struct {
	ID        string   `json:"_id" validate:"required"`
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	SalePrice float64  `json:"sale_price"`
	TaxIDs    []string `json:"tax_ids"`
}

// Tax is the master tax shape used for the totals preview.
type Tax struct {
	ID   string  `json:"_id" validate:"required"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// Customer is the option shape for the customer select.
type Customer struct {
	ID   string `json:"_id" validate:"required"`
	Name string `json:"name"`
}
