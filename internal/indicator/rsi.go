package indicator

import "math"

const rsiEpsilon = 1e-10

// RSI computes the Wilder-smoothed relative strength index over period.
// It needs period+1 closes; ok is false otherwise. The result is clamped to [0,100].
func RSI(prices []float64, period int) (rsi float64, ok bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgGain == 0 && avgLoss == 0 {
		return 50, true
	}
	rs := avgGain / (avgLoss + rsiEpsilon)
	rsi = 100.0 - 100.0/(1.0+rs)
	return math.Max(0, math.Min(100, rsi)), true
}
