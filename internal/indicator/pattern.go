package indicator

import (
	"math"

	"github.com/newthinker/quorum/internal/core"
)

// Pattern classifies the shape of a single candlestick.
type Pattern string

const (
	PatternProbeBottom   Pattern = "probe_bottom"   // 探底回升: long lower shadow
	PatternRallyFade     Pattern = "rally_fade"     // 冲高回落: long upper shadow
	PatternIndecision    Pattern = "indecision"     // 十字星
	PatternStrongBullish Pattern = "strong_bullish" // 大阳线
	PatternStrongBearish Pattern = "strong_bearish" // 大阴线
	PatternNeutral       Pattern = "neutral"
)

// PatternSignal is the label a pattern maps to.
type PatternSignal string

const (
	SignalStrongBuy  PatternSignal = "strong_buy"
	SignalBuy        PatternSignal = "buy"
	SignalWatch      PatternSignal = "watch"
	SignalNeutral    PatternSignal = "neutral"
	SignalSell       PatternSignal = "sell"
	SignalStrongSell PatternSignal = "strong_sell"
)

const (
	shadowDominant = 0.6
	smallBody      = 0.3
	tinyBody       = 0.1
	fullBody       = 0.7
)

var patternTable = map[Pattern]struct {
	signal PatternSignal
	delta  int
}{
	PatternStrongBullish: {SignalStrongBuy, 15},
	PatternProbeBottom:   {SignalBuy, 12},
	PatternIndecision:    {SignalWatch, 5},
	PatternNeutral:       {SignalNeutral, 0},
	PatternRallyFade:     {SignalSell, -10},
	PatternStrongBearish: {SignalStrongSell, -15},
}

// ClassifyBar looks at body and shadow sizes as fractions of the bar's range.
func ClassifyBar(b core.PriceBar) Pattern {
	rng := b.High - b.Low
	if rng <= 0 {
		return PatternNeutral
	}
	top := math.Max(b.Open, b.Close)
	bottom := math.Min(b.Open, b.Close)

	body := (top - bottom) / rng
	upper := (b.High - top) / rng
	lower := (bottom - b.Low) / rng

	switch {
	case lower >= shadowDominant && body <= smallBody:
		return PatternProbeBottom
	case upper >= shadowDominant && body <= smallBody:
		return PatternRallyFade
	case body <= tinyBody:
		return PatternIndecision
	case body >= fullBody && b.Close > b.Open:
		return PatternStrongBullish
	case body >= fullBody && b.Close < b.Open:
		return PatternStrongBearish
	default:
		return PatternNeutral
	}
}

// Signal returns the fixed signal label for the pattern.
func (p Pattern) Signal() PatternSignal {
	if e, ok := patternTable[p]; ok {
		return e.signal
	}
	return SignalNeutral
}

// HealthDelta is the pattern's contribution to the health score.
func (p Pattern) HealthDelta() int {
	return patternTable[p].delta
}
