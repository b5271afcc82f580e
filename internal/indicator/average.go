package indicator

import (
	"math"

	"github.com/newthinker/quorum/internal/core"
)

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// TrailingMean returns the mean of the last period values.
// ok is false when there are fewer values than the period.
func TrailingMean(values []float64, period int) (mean float64, ok bool) {
	sma := SMA(values, period)
	if len(sma) == 0 {
		return 0, false
	}
	return sma[len(sma)-1], true
}

// PopulationStdDev of the last period values around mean.
func PopulationStdDev(values []float64, period int, mean float64) float64 {
	window := values[len(values)-period:]
	var variance float64
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(period))
}

func closes(bars []core.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func volumes(bars []core.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}
