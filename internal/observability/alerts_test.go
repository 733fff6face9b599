package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestPortalAlertRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "portal.yml"))
	require.NoError(t, err)

	var spec alertSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))
	require.Len(t, spec.Groups, 1)
	group := spec.Groups[0]
	assert.Equal(t, "portal", group.Name)

	expected := map[string]struct {
		severity string
		metric   string
	}{
		"PortalHighErrorRate":      {severity: "critical", metric: "portal_http_requests_total"},
		"PortalUpstreamErrors":     {severity: "warning", metric: "portal_upstream_requests_total"},
		"PortalRefreshFailures":    {severity: "warning", metric: "portal_token_refresh_total"},
		"PortalAutosaveFailures":   {severity: "warning", metric: "portal_autosave_total"},
		"PortalHighLatency":        {severity: "warning", metric: "portal_http_request_duration_seconds_bucket"},
	}
	require.Len(t, group.Rules, len(expected))

	for _, rule := range group.Rules {
		want, ok := expected[rule.Alert]
		require.True(t, ok, "unexpected rule %q", rule.Alert)
		assert.Equal(t, want.severity, rule.Labels["severity"], rule.Alert)
		assert.True(t, strings.Contains(rule.Expr, want.metric), "%s must query %s", rule.Alert, want.metric)
		assert.NotEmpty(t, rule.For, rule.Alert)
		assert.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
		assert.NotEmpty(t, rule.Annotations["description"], rule.Alert)
		assert.True(t, strings.HasPrefix(rule.Annotations["runbook"], "docs/runbook-portal.md#"), rule.Alert)
	}
}
