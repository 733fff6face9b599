package sales_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/sales"
	"github.com/erp-portal/portal/internal/testing/portaltest"
)

func salesRouter(env *portaltest.Env) http.Handler {
	module := sales.NewModule(nil, env.Backend.Client, env.Pages)
	return portaltest.Mount("/dashboard/sales", module.MountRoutes)
}

func serveCatalog(b *portaltest.Backend) {
	b.Router.Get("/customers/", portaltest.Reply(http.StatusOK, []map[string]any{
		{"_id": "cust-1", "name": "Acme Traders"},
	}))
	b.Router.Get("/items/", portaltest.Reply(http.StatusOK, []map[string]any{
		{"_id": "item-1", "name": "Widget", "sale_price": 100, "tax_ids": []string{"gst18"}},
	}))
	b.Router.Get("/taxes/", portaltest.Reply(http.StatusOK, []map[string]any{
		{"_id": "gst18", "name": "GST", "rate": 18},
	}))
}

func quotation(status string) map[string]any {
	return map[string]any{
		"_id":           "q1",
		"quote_number":  "QT-0001",
		"customer_id":   "cust-1",
		"customer_name": "Acme Traders",
		"status":        status,
		"items": []map[string]any{
			{"item_id": "item-1", "name": "Widget", "qty": 2, "price": 100, "tax_ids": []string{"gst18"}, "tax_amount": 36, "line_total": 236},
		},
		"subtotal":    200,
		"tax_total":   36,
		"grand_total": 236,
		"created_at":  "2026-10-01T09:30:00",
	}
}

func TestListFiltersDocuments(t *testing.T) {
	env := portaltest.New(t)
	second := quotation("ACCEPTED")
	second["_id"], second["quote_number"], second["customer_name"] = "q2", "QT-0002", "Globex"
	env.Backend.Router.Get("/quotations/", portaltest.Reply(http.StatusOK, []map[string]any{quotation("DRAFT"), second}))

	res := env.Do(t, salesRouter(env), portaltest.Get("/dashboard/sales/quotations/?search=globex"), portaltest.Member(t, "sales.quote.view"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "QT-0002")
	assert.NotContains(t, body, "QT-0001")
	assert.NotContains(t, body, "New Quotation", "create needs sales.quote.create")
}

func TestRecalculatePreviewsWithoutSaving(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)

	form := url.Values{
		"customer_id": {"cust-1"},
		"item_id":     {"item-1"},
		"qty":         {"2"},
		"price":       {""},
		"op":          {"recalculate"},
	}
	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/", form), portaltest.Member(t, "sales.quote.create"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, `value="100"`, "price comes from the item master")
	assert.Contains(t, body, "236.00")
	assert.Contains(t, body, `value="gst18" checked`)
	assert.Zero(t, env.Backend.Calls(http.MethodPost, "/quotations/"))
}

func TestAddLineKeepsExistingLines(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)

	form := url.Values{
		"customer_id": {"cust-1"},
		"item_id":     {"item-1"},
		"qty":         {"3"},
		"price":       {"90"},
		"op":          {"add_line"},
	}
	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/orders/", form), portaltest.Member(t, "sales.order.create"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, `value="90"`)
	assert.Contains(t, body, `name="tax_ids_1"`)
	assert.Zero(t, env.Backend.Calls(http.MethodPost, "/sales-orders/"))
}

func TestCreateRequiresCustomer(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)

	form := url.Values{
		"item_id": {"item-1"},
		"qty":     {"1"},
		"price":   {"100"},
		"op":      {"save"},
	}
	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/", form), portaltest.Member(t, "sales.quote.create"))

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Customer is required")
	assert.Zero(t, env.Backend.Calls(http.MethodPost, "/quotations/"))
}

func TestCreateRejectsBadQuantity(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)

	form := url.Values{
		"customer_id": {"cust-1"},
		"item_id":     {"item-1"},
		"qty":         {"lots"},
		"op":          {"save"},
	}
	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/", form), portaltest.Member(t, "sales.quote.create"))

	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "line 1 quantity must be a number")
}

func TestCreateQuotation(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)
	var sent sales.Draft
	env.Backend.Router.Post("/quotations/", func(w http.ResponseWriter, r *http.Request) {
		portaltest.Decode(t, r, &sent)
		portaltest.JSON(w, http.StatusCreated, quotation("DRAFT"))
	})

	form := url.Values{
		"customer_id": {"cust-1"},
		"valid_until": {"2026-11-30"},
		"item_id":     {"item-1"},
		"qty":         {"2"},
		"price":       {"100"},
		"tax_ids_0":   {"gst18"},
		"op":          {"save"},
	}
	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/", form), portaltest.Member(t, "sales.quote.create"))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard/sales/quotations/q1", res.Location())
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Quotation QT-0001 created", flash.Message)

	assert.Equal(t, "cust-1", sent.CustomerID)
	assert.Equal(t, "2026-11-30", sent.ValidUntil)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, []string{"gst18"}, sent.Items[0].TaxIDs)
}

func TestCreateSurfacesBackendDetail(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)
	env.Backend.Router.Post("/quotations/", portaltest.Reply(http.StatusBadRequest, map[string]string{"detail": "Customer is inactive"}))

	form := url.Values{
		"customer_id": {"cust-1"},
		"item_id":     {"item-1"},
		"qty":         {"1"},
		"price":       {"100"},
		"op":          {"save"},
	}
	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/", form), portaltest.Member(t, "sales.quote.create"))

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Customer is inactive")
	assert.Equal(t, 1, env.Backend.Calls(http.MethodPost, "/quotations/"))
}

func TestDetailOffersTransitionAndFollowUp(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Get("/quotations/{id}", portaltest.Reply(http.StatusOK, quotation("SENT")))

	res := env.Do(t, salesRouter(env), portaltest.Get("/dashboard/sales/quotations/q1"), portaltest.Member(t, "sales.quote.view", "sales.order.create"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Accept quotation")
	assert.Contains(t, body, `href="/dashboard/sales/orders/new?quotation_id=q1"`)
	assert.Contains(t, body, "236.00")
}

func TestDetailHidesTransitionOnceAccepted(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Get("/quotations/{id}", portaltest.Reply(http.StatusOK, quotation("ACCEPTED")))

	res := env.Do(t, salesRouter(env), portaltest.Get("/dashboard/sales/quotations/q1"), portaltest.Member(t, "sales.quote.view"))

	require.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, res.Body.String(), "Accept quotation")
	assert.NotContains(t, res.Body.String(), "Create sales order")
}

func TestNewOrderFromQuotation(t *testing.T) {
	env := portaltest.New(t)
	serveCatalog(env.Backend)
	env.Backend.Router.Get("/quotations/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "q1", chi.URLParam(r, "id"))
		portaltest.JSON(w, http.StatusOK, quotation("ACCEPTED"))
	})

	res := env.Do(t, salesRouter(env), portaltest.Get("/dashboard/sales/orders/new?quotation_id=q1"), portaltest.Member(t, "sales.order.create"))

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, `name="quotation_id" value="q1"`)
	assert.Contains(t, body, `value="cust-1" selected`)
	assert.Contains(t, body, "236.00")
}

func TestTransition(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Post("/quotations/{id}/accept", portaltest.Reply(http.StatusOK, quotation("ACCEPTED")))

	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/q1/accept", nil), portaltest.Member(t, "sales.quote.edit"))

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard/sales/quotations/q1", res.Location())
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Quotation QT-0001 accepted", flash.Message)
	assert.Equal(t, 1, env.Backend.Calls(http.MethodPost, "/quotations/q1/accept"))
}

func TestTransitionFailureFlashesDetail(t *testing.T) {
	env := portaltest.New(t)
	env.Backend.Router.Post("/quotations/{id}/accept", portaltest.Reply(http.StatusBadRequest, map[string]string{"detail": "Quotation has expired"}))

	res := env.Do(t, salesRouter(env), portaltest.Post("/dashboard/sales/quotations/q1/accept", nil), portaltest.Member(t, "sales.quote.edit"))

	require.Equal(t, http.StatusSeeOther, res.Code)
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
	assert.Equal(t, "Quotation has expired", flash.Message)
}
