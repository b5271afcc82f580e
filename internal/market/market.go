// Package market derives the broad market backdrop a symbol trades in.
package market

import (
	"fmt"
	"math"

	"github.com/newthinker/quorum/internal/core"
)

// Regime represents the current market regime.
type Regime string

const (
	RegimeBull     Regime = "bull"
	RegimeBear     Regime = "bear"
	RegimeSideways Regime = "sideways"
)

const (
	defaultVolatility = 0.15
	minBars           = 30
	recentWindow      = 10
	earlierWindow     = 20
	regimeThreshold   = 0.05
	tradingDays       = 252
)

// Context is the market backdrop handed to the committee.
type Context struct {
	Market     core.Market `json:"market"`
	Benchmark  string      `json:"benchmark"`
	Regime     Regime      `json:"regime"`
	Volatility float64     `json:"volatility"`
}

// BenchmarkFor returns a representative index or index ETF for the market.
func BenchmarkFor(m core.Market) string {
	switch m {
	case core.MarketCNA:
		return "000300.SH" // CSI 300
	case core.MarketHK:
		return "2800.HK" // Tracker Fund of Hong Kong
	case core.MarketEU:
		return "EXSA.DE" // STOXX Europe 600 ETF
	default:
		return "SPY"
	}
}

// Analyze classifies the regime and annualized volatility of a benchmark
// series. With fewer than 30 bars it returns the sideways default.
func Analyze(bars []core.PriceBar, m core.Market) Context {
	c := Context{
		Market:     m,
		Benchmark:  BenchmarkFor(m),
		Regime:     RegimeSideways,
		Volatility: defaultVolatility,
	}
	if len(bars) < minBars {
		return c
	}
	c.Regime = regime(bars)
	c.Volatility = volatility(bars)
	return c
}

// regime compares the mean close of the last 10 bars with the 20 before them.
func regime(bars []core.PriceBar) Regime {
	recent := bars[len(bars)-recentWindow:]
	earlier := bars[len(bars)-recentWindow-earlierWindow : len(bars)-recentWindow]

	earlierAvg := avgClose(earlier)
	if earlierAvg <= 0 {
		return RegimeSideways
	}
	change := (avgClose(recent) - earlierAvg) / earlierAvg

	switch {
	case change > regimeThreshold:
		return RegimeBull
	case change < -regimeThreshold:
		return RegimeBear
	default:
		return RegimeSideways
	}
}

// volatility is the population standard deviation of daily returns, annualized.
func volatility(bars []core.PriceBar) float64 {
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 {
			returns = append(returns, (bars[i].Close-bars[i-1].Close)/bars[i-1].Close)
		}
	}
	if len(returns) == 0 {
		return defaultVolatility
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(tradingDays)
}

func avgClose(bars []core.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}

// Summary renders the context for prompts.
func (c Context) Summary() string {
	return fmt.Sprintf("- Market: %s (benchmark %s)\n- Regime: %s\n- Annualized volatility: %.1f%%\n",
		c.Market, c.Benchmark, c.Regime, c.Volatility*100)
}
