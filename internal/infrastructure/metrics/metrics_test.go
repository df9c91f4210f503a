package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.ObserveHTTP("GET", "/api/promotions/list", 200, time.Millisecond)
	m.ObserveUpstream("promotions", "GET", 200, time.Millisecond)
	m.ObserveAudit("get", "written")
}

func TestMetrics_ObserveUpstream(t *testing.T) {
	m := New()

	m.ObserveUpstream("offers", "GET", 404, 10*time.Millisecond)
	m.ObserveUpstream("offers", "GET", 0, 10*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`promotions_admin_middleend_calls_total{method="GET",resource="offers",status="404"} 1`,
		`promotions_admin_middleend_calls_total{method="GET",resource="offers",status="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAudit("addoffer", "failed")

	body := scrape(t, m)
	if !strings.Contains(body, `promotions_admin_audit_writes_total{event="addoffer",outcome="failed"} 1`) {
		t.Errorf("expected audit counter in output, got:\n%s", body)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}
