package modal

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/apiclient"
)

type address struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
}

type draft struct {
	Name    string   `json:"name" validate:"required"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Limit   float64  `json:"credit_limit"`
	Days    *float64 `json:"payment_terms_days"`
	Active  bool     `json:"is_active"`
	Tags    []string `json:"tags"`
	Billing address  `json:"billing_address"`
}

func cloneDraft(d draft) draft {
	d.Tags = slices.Clone(d.Tags)
	if d.Days != nil {
		days := *d.Days
		d.Days = &days
	}
	return d
}

var specs = []FieldSpec[draft]{
	{Name: "name", Label: "Name", Required: true, Value: String(func(d *draft) *string { return &d.Name })},
	{Name: "email", Label: "Email", Type: Email, Value: String(func(d *draft) *string { return &d.Email })},
	{Name: "credit_limit", Label: "Credit limit", Type: Number, Value: Float(func(d *draft) *float64 { return &d.Limit })},
	{Name: "payment_terms_days", Label: "Payment terms", Type: Number, Value: OptionalFloat(func(d *draft) **float64 { return &d.Days })},
	{Name: "is_active", Label: "Active", Type: Checkbox, Value: Bool(func(d *draft) *bool { return &d.Active })},
	{Name: "billing_address.line1", Label: "Line 1", Value: String(func(d *draft) *string { return &d.Billing.Line1 })},
	{Name: "billing_address.city", Label: "City", Value: String(func(d *draft) *string { return &d.Billing.City })},
}

func TestCancelLeavesRecordUntouched(t *testing.T) {
	days := 30.0
	record := draft{Name: "Acme", Tags: []string{"gold"}, Days: &days, Billing: address{Line1: "1 Road", City: "Pune"}}
	before := cloneDraft(record)

	m := New(func() draft { return draft{Active: true} }, cloneDraft)
	m.OpenEdit("c1", record)
	m.Update(func(d *draft) {
		d.Name = "Changed"
		d.Tags[0] = "silver"
		*d.Days = 60
		d.Billing.City = "Mumbai"
	})
	m.Close()

	assert.Equal(t, before, record)
	assert.Equal(t, 30.0, *record.Days)
	assert.Equal(t, Closed, m.State())
	assert.Empty(t, m.Draft().Name)
}

func TestOpenCreateUsesDefaults(t *testing.T) {
	m := New(func() draft { return draft{Active: true} }, cloneDraft)
	m.OpenCreate()
	assert.Equal(t, OpenCreate, m.State())
	assert.True(t, m.Draft().Active)
	assert.Empty(t, m.ID())
}

func TestSubmitBlocksMissingRequired(t *testing.T) {
	m := New[draft](nil, cloneDraft)
	m.OpenCreate()

	called := false
	err := m.Submit(context.Background(), func(context.Context, string, draft) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.False(t, called)
	assert.Equal(t, OpenCreate, m.State())
	assert.Equal(t, "name is required", m.Error())
}

func TestSubmitFailureKeepsDraftAndShowsDetail(t *testing.T) {
	m := New[draft](nil, cloneDraft)
	m.OpenEdit("c1", draft{Name: "Acme"})

	err := m.Submit(context.Background(), func(_ context.Context, id string, d draft) error {
		assert.Equal(t, "c1", id)
		return &apiclient.Error{Status: 400, Detail: "Customer code already exists"}
	})
	require.Error(t, err)
	assert.Equal(t, OpenEdit, m.State())
	assert.Equal(t, "Customer code already exists", m.Error())
	assert.Equal(t, "Acme", m.Draft().Name)

	m.Fallback = "Failed to save customer"
	_ = m.Submit(context.Background(), func(context.Context, string, draft) error {
		return errors.New("connection refused")
	})
	assert.Equal(t, "Failed to save customer", m.Error())
}

func TestSubmitSuccessCloses(t *testing.T) {
	m := New[draft](nil, cloneDraft)
	m.OpenCreate()
	m.Update(func(d *draft) { d.Name = "Acme Corp" })

	var got draft
	err := m.Submit(context.Background(), func(_ context.Context, _ string, d draft) error {
		got = d
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, Closed, m.State())
	assert.False(t, m.IsOpen())
}

func TestSubmitClosedModal(t *testing.T) {
	m := New[draft](nil, nil)
	assert.ErrorIs(t, m.Submit(context.Background(), nil), ErrNotOpen)
}

func TestBindMergesPostedKeysOnly(t *testing.T) {
	m := New[draft](nil, cloneDraft)
	m.OpenEdit("c1", draft{Name: "Acme", Active: true, Billing: address{Line1: "1 Road", City: "Pune"}})

	form := url.Values{
		"billing_address.city": {" Mumbai "},
		"credit_limit":         {"2500.5"},
		"payment_terms_days":   {""},
		"is_active":            {"false"},
	}
	require.NoError(t, Bind(m, specs, form))

	d := m.Draft()
	assert.Equal(t, "Acme", d.Name)
	assert.Equal(t, "1 Road", d.Billing.Line1)
	assert.Equal(t, "Mumbai", d.Billing.City)
	assert.Equal(t, 2500.5, d.Limit)
	assert.Nil(t, d.Days)
	assert.False(t, d.Active)

	require.NoError(t, Bind(m, specs, url.Values{"is_active": {"false", "true"}}))
	assert.True(t, m.Draft().Active)
}

func TestBindRejectsBadNumbers(t *testing.T) {
	m := New[draft](nil, cloneDraft)
	m.OpenCreate()
	err := Bind(m, specs, url.Values{"credit_limit": {"lots"}})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Credit limit must be a number", m.Error())
}

func TestFieldsResolveDraft(t *testing.T) {
	m := New[draft](nil, cloneDraft)
	m.OpenEdit("c1", draft{Name: "Acme", Active: true, Billing: address{City: "Pune"}})

	views := Fields(m, specs)
	require.Len(t, views, len(specs))
	assert.Equal(t, "Acme", views[0].Value)
	assert.Equal(t, Text, views[0].Type)
	assert.True(t, views[0].Required)
	assert.Equal(t, "", views[3].Value)
	assert.True(t, views[4].Checked)
	assert.Equal(t, "Pune", views[6].Value)
}
