package market

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/quorum/internal/core"
)

func series(closes func(i int) float64, n int) []core.PriceBar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.PriceBar, n)
	for i := range bars {
		bars[i] = core.PriceBar{Date: start.AddDate(0, 0, i), Close: closes(i)}
	}
	return bars
}

func TestAnalyze_Regime(t *testing.T) {
	tests := []struct {
		name   string
		closes func(i int) float64
		want   Regime
	}{
		{"bull", func(i int) float64 { return 100 + float64(i) }, RegimeBull},
		{"bear", func(i int) float64 { return 200 - float64(i)*2 }, RegimeBear},
		{"flat", func(i int) float64 { return 100 + float64(i%2) }, RegimeSideways},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Analyze(series(tt.closes, 40), core.MarketUS)
			if c.Regime != tt.want {
				t.Errorf("Regime = %s, want %s", c.Regime, tt.want)
			}
		})
	}
}

func TestAnalyze_ShortSeriesDefaults(t *testing.T) {
	c := Analyze(series(func(i int) float64 { return 100 + float64(i)*10 }, 29), core.MarketCNA)
	if c.Regime != RegimeSideways || c.Volatility != 0.15 {
		t.Errorf("expected defaults, got %+v", c)
	}
	if c.Benchmark != "000300.SH" {
		t.Errorf("expected CSI 300 benchmark, got %s", c.Benchmark)
	}
}

func TestAnalyze_Volatility(t *testing.T) {
	// alternating +1% / -1% moves
	bars := series(func(i int) float64 {
		if i%2 == 0 {
			return 100
		}
		return 101
	}, 31)
	c := Analyze(bars, core.MarketUS)
	if c.Volatility <= 0 || math.IsNaN(c.Volatility) {
		t.Fatalf("expected positive volatility, got %f", c.Volatility)
	}
	if c.Volatility < 0.1 || c.Volatility > 0.3 {
		t.Errorf("volatility %f outside expected range", c.Volatility)
	}
}

func TestBenchmarkFor(t *testing.T) {
	tests := map[core.Market]string{
		core.MarketUS:  "SPY",
		core.MarketHK:  "2800.HK",
		core.MarketCNA: "000300.SH",
		core.MarketEU:  "EXSA.DE",
	}
	for m, want := range tests {
		if got := BenchmarkFor(m); got != want {
			t.Errorf("BenchmarkFor(%s) = %s, want %s", m, got, want)
		}
	}
}

func TestContext_Summary(t *testing.T) {
	s := Context{Market: core.MarketHK, Benchmark: "2800.HK", Regime: RegimeBear, Volatility: 0.25}.Summary()
	if !strings.Contains(s, "bear") || !strings.Contains(s, "25.0%") {
		t.Errorf("unexpected summary %q", s)
	}
}
