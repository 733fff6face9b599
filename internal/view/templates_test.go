package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestEnginePagesDefined(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	for _, name := range []string{
		"pages/auth/login.html",
		"pages/auth/register.html",
		"pages/onboarding.html",
		"pages/dashboard.html",
		"pages/masters/list.html",
		"pages/roles/list.html",
		"pages/users/list.html",
		"pages/users/roles.html",
		"pages/sales/list.html",
		"pages/sales/detail.html",
		"pages/sales/form.html",
		"pages/hr/onboarding.html",
		"partials/master_rows.html",
	} {
		assert.NotNil(t, engine.templates.Lookup(name), name)
	}
}

func TestLayoutNavigation(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	perms := permissions.NewSet("roles.view")
	var buf bytes.Buffer
	require.NoError(t, engine.Execute(&buf, "layouts/head", TemplateData{
		Title:       "Roles",
		CurrentPath: "/dashboard/roles",
		Perms:       perms,
		Nav:         permissions.Visible(perms, permissions.Navigation),
		Flash:       &shared.FlashMessage{Kind: "success", Message: "Role created successfully"},
	}))
	out := buf.String()
	assert.Contains(t, out, `href="/dashboard/roles" class="nav-link is-active"`)
	assert.NotContains(t, out, "/dashboard/users")
	assert.Contains(t, out, "Role created successfully")
}

func TestActiveMatchesSubtrees(t *testing.T) {
	active := FuncMap()["active"].(func(string, string) bool)
	assert.True(t, active("/dashboard", "/dashboard"))
	assert.False(t, active("/dashboard/roles", "/dashboard"))
	assert.True(t, active("/dashboard/roles/r1/edit", "/dashboard/roles"))
	assert.False(t, active("/dashboard/rolesx", "/dashboard/roles"))
}
