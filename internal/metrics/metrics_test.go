package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecision(t *testing.T) {
	m := NewMetrics()
	m.RecordDecision("redirect", "cross-group")
	m.RecordDecision("redirect", "cross-group")
	m.RecordDecision("proceed", "same-group")

	got := testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("redirect", "cross-group"))
	if got != 2 {
		t.Fatalf("redirect/cross-group count = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("proceed", "same-group"))
	if got != 1 {
		t.Fatalf("proceed/same-group count = %v, want 1", got)
	}
}

func TestHandlerExposesGauges(t *testing.T) {
	m := NewMetrics()
	m.ObserveChannels(func() int { return 3 })
	m.RecordDecision("proceed", "no-policy")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	if !strings.Contains(text, "tabfence_ui_channels 3") {
		t.Fatalf("exposition missing channel gauge:\n%s", text)
	}
	if !strings.Contains(text, "tabfence_decisions_total") {
		t.Fatalf("exposition missing decision counter:\n%s", text)
	}
}
