package sales

// Kind configures the handler for one document type.
type Kind struct {
	// Slug is the route segment under /dashboard/sales.
	Slug string
	// Resource is the backend collection path, with trailing slash.
	Resource         string
	Title            string
	Singular         string
	PermissionPrefix string
	// Action is the status transition endpoint ("accept", "confirm", "issue")
	// and ActionFrom the statuses it applies to.
	Action      string
	ActionLabel string
	ActionDone  string
	ActionFrom  []string
	// DateField names the optional date input ("valid_until", "due_date").
	DateField string
	DateLabel string
	// Source is the kind a new document can be derived from, and SourceParam
	// the query/body field carrying its id.
	Source      *Kind
	SourceParam string
}

// Quotations, Orders and Invoices are the three document kinds.
var (
	Quotations = Kind{
		Slug:             "quotations",
		Resource:         "quotations/",
		Title:            "Quotations",
		Singular:         "Quotation",
		PermissionPrefix: "sales.quote",
		Action:           "accept",
		ActionLabel:      "Accept quotation",
		ActionDone:       "accepted",
		ActionFrom:       []string{StatusDraft, StatusSent},
		DateField:        "valid_until",
		DateLabel:        "Valid until",
	}
	Orders = Kind{
		Slug:             "orders",
		Resource:         "sales-orders/",
		Title:            "Sales Orders",
		Singular:         "Sales order",
		PermissionPrefix: "sales.order",
		Action:           "confirm",
		ActionLabel:      "Confirm order",
		ActionDone:       "confirmed",
		ActionFrom:       []string{StatusDraft},
		Source:           &Quotations,
		SourceParam:      "quotation_id",
	}
	Invoices = Kind{
		Slug:             "invoices",
		Resource:         "invoices/",
		Title:            "Invoices",
		Singular:         "Invoice",
		PermissionPrefix: "sales.invoice",
		Action:           "issue",
		ActionLabel:      "Issue invoice",
		ActionDone:       "issued",
		ActionFrom:       []string{StatusDraft},
		DateField:        "due_date",
		DateLabel:        "Due date",
		Source:           &Orders,
		SourceParam:      "sales_order_id",
	}
)

// CanTransition reports whether the kind's action applies to status.
func (k Kind) CanTransition(status string) bool {
	for _, s := range k.ActionFrom {
		if s == status {
			return true
		}
	}
	return false
}

func (k Kind) basePath() string {
	return "/dashboard/sales/" + k.Slug
}

func (k Kind) setDate(d *Draft, value string) {
	switch k.DateField {
	case "valid_until":
		d.ValidUntil = value
	case "due_date":
		d.DueDate = value
	}
}

func (k Kind) date(d Draft) string {
	switch k.DateField {
	case "valid_until":
		return d.ValidUntil
	case "due_date":
		return d.DueDate
	}
	return ""
}

func (k Kind) setSource(d *Draft, id string) {
	switch k.SourceParam {
	case "quotation_id":
		d.QuotationID = id
	case "sales_order_id":
		d.SalesOrderID = id
	}
}

func (k Kind) source(d Draft) string {
	switch k.SourceParam {
	case "quotation_id":
		return d.QuotationID
	case "sales_order_id":
		return d.SalesOrderID
	}
	return ""
}
