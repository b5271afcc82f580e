package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// value finds a counter or gauge sample by name and label values.
func value(t *testing.T, reg *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func series(t *testing.T, reg *Registry, name string) int {
	t.Helper()
	mfs, _ := reg.Gather()
	for _, mf := range mfs {
		if mf.GetName() == name {
			return len(mf.GetMetric())
		}
	}
	return 0
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordOpinion(t *testing.T) {
	reg := NewRegistry()

	reg.RecordOpinion("claude", "ok", 1.2)
	reg.RecordOpinion("claude", "timeout", 60)
	reg.RecordOpinion("gpt", "ok", 0.8)

	if got := value(t, reg, "quorum_opinion_requests_total", map[string]string{"backend": "claude", "status": "ok"}); got != 1 {
		t.Errorf("expected 1 ok claude call, got %f", got)
	}
	if got := series(t, reg, "quorum_opinion_requests_total"); got != 3 {
		t.Errorf("expected 3 label sets, got %d", got)
	}
}

func TestRegistry_PipelineCounters(t *testing.T) {
	reg := NewRegistry()

	reg.RecordFallback("secondary")
	reg.RecordFallback("secondary")
	reg.RecordEvaluation("ok", 12)
	reg.RecordStrategy("AVOID", "rules")
	reg.RecordSinkPublish("archive", "error")
	reg.SetWatchlistSize(7)

	if got := value(t, reg, "quorum_fallbacks_total", map[string]string{"stage": "secondary"}); got != 2 {
		t.Errorf("expected 2 fallbacks, got %f", got)
	}
	if got := value(t, reg, "quorum_strategy_decisions_total", map[string]string{"strategy_type": "AVOID", "source": "rules"}); got != 1 {
		t.Errorf("expected 1 decision, got %f", got)
	}
	if got := value(t, reg, "quorum_watchlist_symbols", nil); got != 7 {
		t.Errorf("expected watchlist 7, got %f", got)
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var reg *Registry
	// none of these should panic
	reg.RecordOpinion("x", "ok", 1)
	reg.RecordFallback("composite")
	reg.RecordEvaluation("ok", 1)
	reg.RecordStrategy("AVOID", "rules")
	reg.RecordSinkPublish("kafka", "ok")
	reg.RecordRequest("GET", "/", 200, 0.1)
	reg.SetWatchlistSize(1)
}

func TestStatusToString(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := statusToString(tt.status); got != tt.expected {
			t.Errorf("statusToString(%d) = %s, want %s", tt.status, got, tt.expected)
		}
	}
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	reg.RecordFallback("rules")
	srv := httptest.NewServer(Handler(reg, "/metrics"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `quorum_fallbacks_total{stage="rules"} 1`) {
		t.Error("expected fallback counter in exposition")
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected healthz 200, got %d", resp.StatusCode)
	}

	if got := value(t, reg, "http_requests_total", map[string]string{"method": "GET", "path": "/metrics", "status": "2xx"}); got != 1 {
		t.Errorf("expected one recorded scrape, got %f", got)
	}
}
