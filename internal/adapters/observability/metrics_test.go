package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"travel_backoffice/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveDocument("quote", nil)
	observability.ObserveDocument("booking", errors.New("boom"))
	observability.ObserveRate("fallback")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"backoffice_http_requests_total",
		`backoffice_documents_rendered_total{kind="booking",status="error"}`,
		`backoffice_rate_lookups_total{source="fallback"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestLabelErr(t *testing.T) {
	if got := observability.LabelErr(nil); got != "none" {
		t.Fatalf("nil err label: %q", got)
	}
	if got := observability.LabelErr(errors.New("x")); got != "*errors.errorString" {
		t.Fatalf("err label: %q", got)
	}
}
