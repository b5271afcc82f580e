package indicator

import "github.com/newthinker/quorum/internal/core"

// Bands holds Bollinger band values.
type Bands struct {
	Upper        float64
	Middle       float64
	Lower        float64
	BandwidthPct float64
}

// Bollinger computes period bands at k population standard deviations.
func Bollinger(prices []float64, period int, k float64) (Bands, bool) {
	middle, ok := TrailingMean(prices, period)
	if !ok {
		return Bands{}, false
	}
	sd := PopulationStdDev(prices, period, middle)
	b := Bands{
		Upper:  middle + k*sd,
		Middle: middle,
		Lower:  middle - k*sd,
	}
	if middle != 0 {
		b.BandwidthPct = (b.Upper - b.Lower) / middle * 100
	}
	return b, true
}

// VWAP is the volume-weighted mean of the typical price (H+L+C)/3 over the
// last period bars. ok is false with too few bars or zero volume.
func VWAP(bars []core.PriceBar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period {
		return 0, false
	}
	var pv, vol float64
	for _, b := range bars[len(bars)-period:] {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * float64(b.Volume)
		vol += float64(b.Volume)
	}
	if vol == 0 {
		return 0, false
	}
	return pv / vol, true
}
