package strategy

import (
	"strings"
)

// StrategyType is one of the four reconciliation archetypes.
type StrategyType string

const (
	SpeculativeRebound StrategyType = "SPECULATIVE_REBOUND"
	ValueAccumulation  StrategyType = "VALUE_ACCUMULATION"
	ResonanceLong      StrategyType = "RESONANCE_LONG"
	Avoid              StrategyType = "AVOID"
)

// ParseStrategyType normalizes s. ok is false for anything outside the four types.
func ParseStrategyType(s string) (StrategyType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch t := StrategyType(norm); t {
	case SpeculativeRebound, ValueAccumulation, ResonanceLong, Avoid:
		return t, true
	}
	return "", false
}

// Decision sources.
const (
	SourceLLM   = "llm"
	SourceRules = "rules"
)

// Decision is the reconciled strategy. Every field is always populated.
type Decision struct {
	StrategyType    StrategyType `json:"strategy_type"`
	Title           string       `json:"title"`
	PositionSuggest string       `json:"position_suggest"`
	ActionGuide     string       `json:"action_guide"`
	RiskWarning     string       `json:"risk_warning"`
	TimeFrame       string       `json:"time_frame"`
	Conviction      int          `json:"conviction"`
	Rationale       string       `json:"rationale"`
	Source          string       `json:"source"`
}

const (
	strongScore = 70
	reboundTech = 60
	weakScore   = 40
)

var canned = map[StrategyType]Decision{
	ResonanceLong: {
		StrategyType:    ResonanceLong,
		Title:           "Technicals and fundamentals agree: build a long position",
		PositionSuggest: "Build up to 50-70% of the target weight in two or three tranches.",
		ActionGuide:     "Buy on pullbacks toward MA20; add once the prior high is cleared on volume.",
		RiskWarning:     "Exit a tranche on a daily close below MA20 or a committee downgrade.",
		TimeFrame:       "Medium term, 3-6 months",
		Conviction:      5,
		Rationale:       "Both the technical picture and the committee's fundamental view are strong.",
	},
	SpeculativeRebound: {
		StrategyType:    SpeculativeRebound,
		Title:           "Momentum without fundamental support: trade the rebound only",
		PositionSuggest: "Keep it small, no more than 10-20% of a normal position.",
		ActionGuide:     "Trade the bounce with a tight stop; do not average down.",
		RiskWarning:     "Fundamentals are weak, so rallies can fail abruptly. Stop out 5-8% below entry.",
		TimeFrame:       "Short term, days to 2 weeks",
		Conviction:      2,
		Rationale:       "Price action is constructive but the committee sees weak fundamentals.",
	},
	ValueAccumulation: {
		StrategyType:    ValueAccumulation,
		Title:           "Good company, weak chart: accumulate patiently",
		PositionSuggest: "Scale in with 20-30% of the target weight and add in steps.",
		ActionGuide:     "Buy in small lots on weakness; wait for price to reclaim MA20 before adding size.",
		RiskWarning:     "The trend is still down and can persist. Reassess if fundamentals deteriorate.",
		TimeFrame:       "Long term, 6-12 months",
		Conviction:      4,
		Rationale:       "Fundamentals are strong while the technical picture is weak.",
	},
	Avoid: {
		StrategyType:    Avoid,
		Title:           "No edge: stay on the sidelines",
		PositionSuggest: "No new position; trim existing exposure on strength.",
		ActionGuide:     "Wait for technicals and fundamentals to align before acting.",
		RiskWarning:     "Mixed or weak signals. Capital is better deployed elsewhere.",
		TimeFrame:       "Re-evaluate in 2-4 weeks",
		Conviction:      3,
		Rationale:       "Technical and fundamental views are mixed or weak.",
	},
}

// Classify is the deterministic reconciliation of a technical and a
// fundamental score.
func Classify(tech, fund int) Decision {
	var t StrategyType
	switch {
	case tech >= strongScore && fund >= strongScore:
		t = ResonanceLong
	case tech >= reboundTech && fund < weakScore:
		t = SpeculativeRebound
	case tech < weakScore && fund >= strongScore:
		t = ValueAccumulation
	default:
		t = Avoid
	}
	d := canned[t]
	d.Source = SourceRules
	return d
}
