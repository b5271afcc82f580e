package indicator

import (
	"testing"

	"github.com/newthinker/quorum/internal/core"
)

func TestClassifyBar(t *testing.T) {
	tests := []struct {
		name string
		bar  core.PriceBar
		want Pattern
	}{
		{"probe bottom", core.PriceBar{Open: 10, Close: 10.2, High: 10.3, Low: 9.0}, PatternProbeBottom},
		{"rally and fade", core.PriceBar{Open: 10, Close: 9.9, High: 11.2, Low: 9.8}, PatternRallyFade},
		{"doji", core.PriceBar{Open: 10, Close: 10.02, High: 10.5, Low: 9.5}, PatternIndecision},
		{"strong bullish", core.PriceBar{Open: 10, Close: 11, High: 11.05, Low: 9.95}, PatternStrongBullish},
		{"strong bearish", core.PriceBar{Open: 11, Close: 10, High: 11.05, Low: 9.95}, PatternStrongBearish},
		{"ordinary", core.PriceBar{Open: 10, Close: 10.5, High: 10.8, Low: 9.9}, PatternNeutral},
		{"zero range", core.PriceBar{Open: 10, Close: 10, High: 10, Low: 10}, PatternNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBar(tt.bar); got != tt.want {
				t.Errorf("ClassifyBar() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPattern_SignalAndDelta(t *testing.T) {
	tests := []struct {
		p      Pattern
		signal PatternSignal
		delta  int
	}{
		{PatternStrongBullish, SignalStrongBuy, 15},
		{PatternProbeBottom, SignalBuy, 12},
		{PatternIndecision, SignalWatch, 5},
		{PatternNeutral, SignalNeutral, 0},
		{PatternRallyFade, SignalSell, -10},
		{PatternStrongBearish, SignalStrongSell, -15},
	}
	for _, tt := range tests {
		if tt.p.Signal() != tt.signal {
			t.Errorf("%s.Signal() = %s, want %s", tt.p, tt.p.Signal(), tt.signal)
		}
		if tt.p.HealthDelta() != tt.delta {
			t.Errorf("%s.HealthDelta() = %d, want %d", tt.p, tt.p.HealthDelta(), tt.delta)
		}
	}
}
