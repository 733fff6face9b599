package perf

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/erp-portal/portal/internal/masters"
	"github.com/erp-portal/portal/internal/mastertable"
	"github.com/erp-portal/portal/internal/permissions"
	"github.com/erp-portal/portal/internal/sales"
)

func customers(n int) []masters.Customer {
	out := make([]masters.Customer, n)
	for i := range out {
		out[i] = masters.Customer{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Customer Straße %d", i), IsActive: i%7 != 0}
	}
	return out
}

func lines(n int) []sales.LineInput {
	out := make([]sales.LineInput, n)
	for i := range out {
		out[i] = sales.LineInput{ItemID: fmt.Sprintf("item-%d", i), Qty: float64(i%5 + 1), Price: 99.5, TaxIDs: []string{"gst18", "cess1"}}
	}
	return out
}

// TestListFilterLatencyTarget keeps in-memory search well below a
// perceptible delay for a large master list.
func TestListFilterLatencyTarget(t *testing.T) {
	rows := customers(5000)
	fields := mastertable.Fields[masters.Customer]("name", "email")
	samples := make([]time.Duration, 0, 20)
	for i := 0; i < 20; i++ {
		start := time.Now()
		got := mastertable.Filter(rows, "CUSTOMER STRA", fields)
		samples = append(samples, time.Since(start))
		if len(got) == 0 {
			t.Fatalf("expected matches for folded search")
		}
	}
	if p95 := percentile95(samples); p95 > 250*time.Millisecond {
		t.Fatalf("filter latency regression: p95=%s", p95)
	}
}

func BenchmarkFilterCustomers(b *testing.B) {
	rows := customers(1000)
	fields := mastertable.Fields[masters.Customer]("name", "email")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = mastertable.Filter(rows, "customer 99", fields)
	}
}

func BenchmarkPreviewTotals(b *testing.B) {
	in := lines(50)
	rates := map[string]float64{"gst18": 18, "cess1": 1}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = sales.Preview(in, rates)
	}
}

func BenchmarkPermissionChecks(b *testing.B) {
	set := permissions.NewSet("customers.view", "customers.edit", "sales.quote.view", "roles.view")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = set.HasAny("users.edit", "roles.view")
		_ = set.HasAll("customers.view", "customers.edit")
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
