package indicator

import (
	"testing"

	"github.com/newthinker/quorum/internal/core"
)

func TestBollinger_Constant(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 10
	}
	b, ok := Bollinger(prices, 20, 2)
	if !ok {
		t.Fatal("expected ok")
	}
	if b.Upper != 10 || b.Middle != 10 || b.Lower != 10 || b.BandwidthPct != 0 {
		t.Errorf("unexpected bands %+v", b)
	}
}

func TestBollinger_Width(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	b, ok := Bollinger(prices, 8, 2)
	if !ok {
		t.Fatal("expected ok")
	}
	// mean 5, population sd 2
	if !almostEqual(b.Upper, 9, 1e-9) || !almostEqual(b.Lower, 1, 1e-9) {
		t.Errorf("bands = %+v, want upper 9 lower 1", b)
	}
	if !almostEqual(b.BandwidthPct, 160, 1e-9) {
		t.Errorf("bandwidth = %f, want 160", b.BandwidthPct)
	}
}

func TestBollinger_NotEnoughData(t *testing.T) {
	if _, ok := Bollinger([]float64{1, 2, 3}, 20, 2); ok {
		t.Error("expected not ok")
	}
}

func TestVWAP(t *testing.T) {
	bars := []core.PriceBar{
		{High: 12, Low: 8, Close: 10, Volume: 100}, // typical 10
		{High: 22, Low: 18, Close: 20, Volume: 300}, // typical 20
	}
	vwap, ok := VWAP(bars, 2)
	if !ok {
		t.Fatal("expected ok")
	}
	if !almostEqual(vwap, 17.5, 1e-9) {
		t.Errorf("vwap = %f, want 17.5", vwap)
	}
}

func TestVWAP_ZeroVolume(t *testing.T) {
	bars := []core.PriceBar{{High: 1, Low: 1, Close: 1}, {High: 1, Low: 1, Close: 1}}
	if _, ok := VWAP(bars, 2); ok {
		t.Error("expected not ok with zero volume")
	}
}
