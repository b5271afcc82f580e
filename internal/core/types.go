package core

import (
	"math"
	"strings"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketUS  Market = "US"
	MarketHK  Market = "HK"
	MarketCNA Market = "CN_A"
	MarketEU  Market = "EU"
)

// DetectMarket infers the market from the symbol suffix.
func DetectMarket(symbol string) Market {
	upper := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(upper, ".SH"), strings.HasSuffix(upper, ".SZ"), strings.HasSuffix(upper, ".BJ"):
		return MarketCNA
	case strings.HasSuffix(upper, ".HK"):
		return MarketHK
	case strings.HasSuffix(upper, ".DE"), strings.HasSuffix(upper, ".PA"), strings.HasSuffix(upper, ".L"):
		return MarketEU
	default:
		return MarketUS
	}
}

// PriceBar is one daily candlestick.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Action is a decision on the five-step ladder, plus COMMENT for opinions
// that carry no directional call.
type Action string

const (
	ActionStrongBuy  Action = "STRONG_BUY"
	ActionBuy        Action = "BUY"
	ActionHold       Action = "HOLD"
	ActionSell       Action = "SELL"
	ActionStrongSell Action = "STRONG_SELL"
	ActionComment    Action = "COMMENT"
)

// ParseAction normalizes free text ("strong buy", "Buy", "STRONG-SELL") into
// an Action. ok is false when the text is not on the ladder.
func ParseAction(s string) (Action, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch Action(norm) {
	case ActionStrongBuy, ActionBuy, ActionHold, ActionSell, ActionStrongSell, ActionComment:
		return Action(norm), true
	}
	return "", false
}

// IsBullish reports whether the action leans long.
func (a Action) IsBullish() bool {
	return a == ActionBuy || a == ActionStrongBuy
}

// IsBearish reports whether the action leans short.
func (a Action) IsBearish() bool {
	return a == ActionSell || a == ActionStrongSell
}

// Simple collapses the ladder to BUY/SELL/HOLD.
func (a Action) Simple() Action {
	switch {
	case a.IsBullish():
		return ActionBuy
	case a.IsBearish():
		return ActionSell
	case a == ActionComment:
		return ActionComment
	default:
		return ActionHold
	}
}

// ActionFromScore maps a 0-100 score onto the ladder.
// Boundaries are fixed: 80, 60, 40, 20.
func ActionFromScore(score int) Action {
	switch {
	case score >= 80:
		return ActionStrongBuy
	case score >= 60:
		return ActionBuy
	case score >= 40:
		return ActionHold
	case score >= 20:
		return ActionSell
	default:
		return ActionStrongSell
	}
}

// ClampScore bounds a score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ClampFloatScore bounds a float score to [0,100] and rounds it. Bounding
// happens before the int conversion so huge values cannot overflow. NaN is
// treated as neutral.
func ClampFloatScore(score float64) int {
	if math.IsNaN(score) {
		return 50
	}
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// ClampFloatStars bounds a float rating to [1,5] and rounds it. NaN yields 3.
func ClampFloatStars(stars float64) int {
	if math.IsNaN(stars) {
		return 3
	}
	return int(math.Round(math.Max(1, math.Min(5, stars))))
}

// ClampStars bounds a conviction rating to [1,5].
func ClampStars(stars int) int {
	if stars < 1 {
		return 1
	}
	if stars > 5 {
		return 5
	}
	return stars
}
