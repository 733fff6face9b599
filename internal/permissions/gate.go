package permissions

import "html/template"

// Gate returns children when set grants key and fallback otherwise.
func Gate(set *Set, key string, children, fallback template.HTML) template.HTML {
	if set.Has(key) {
		return children
	}
	return fallback
}

// FuncMap exposes the evaluator to templates:
//
//	{{if can .Perms "customers.edit"}}...{{end}}
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"can":    func(set *Set, key string) bool { return set.Has(key) },
		"canAny": func(set *Set, keys ...string) bool { return set.HasAny(keys...) },
		"gate":   Gate,
	}
}

// NavItem is one sidebar entry. An empty Permission is always shown.
type NavItem struct {
	Label      string
	Href       string
	Section    string
	Permission string
}

// Navigation is the portal sidebar.
var Navigation = []NavItem{
	{Label: "Dashboard", Href: "/dashboard", Section: "Overview"},
	{Label: "Customers", Href: "/dashboard/masters/customers", Section: "Masters", Permission: "customers.view"},
	{Label: "Vendors", Href: "/dashboard/masters/vendors", Section: "Masters", Permission: "vendors.view"},
	{Label: "Items", Href: "/dashboard/masters/items", Section: "Masters", Permission: "items.view"},
	{Label: "Categories", Href: "/dashboard/masters/categories", Section: "Masters", Permission: "categories.view"},
	{Label: "Taxes", Href: "/dashboard/masters/taxes", Section: "Masters", Permission: "taxes.view"},
	{Label: "Price Lists", Href: "/dashboard/masters/price-lists", Section: "Masters", Permission: "price_lists.view"},
	{Label: "Quotations", Href: "/dashboard/sales/quotations", Section: "Sales", Permission: "sales.quote.view"},
	{Label: "Sales Orders", Href: "/dashboard/sales/orders", Section: "Sales", Permission: "sales.order.view"},
	{Label: "Invoices", Href: "/dashboard/sales/invoices", Section: "Sales", Permission: "sales.invoice.view"},
	{Label: "Employee Onboarding", Href: "/dashboard/hr/onboarding", Section: "People"},
	{Label: "Users", Href: "/dashboard/users", Section: "Administration", Permission: "users.view"},
	{Label: "Roles", Href: "/dashboard/roles", Section: "Administration", Permission: "roles.view"},
}

// Visible filters items down to those set permits, preserving order.
func Visible(set *Set, items []NavItem) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.Permission == "" || set.Has(item.Permission) {
			out = append(out, item)
		}
	}
	return out
}
