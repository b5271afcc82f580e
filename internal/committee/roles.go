package committee

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/config"
)

// Role names.
const (
	RoleGrowth      = "growth"
	RolePolicy      = "policy"
	RoleValue       = "value"
	RoleSynthesizer = "synthesizer"
)

// Settings are the per-role backend parameters.
type Settings struct {
	Tier        string
	Timeout     time.Duration
	Weight      float64
	MaxTokens   int
	Temperature float64
}

func settingsFrom(rc config.RoleConfig) Settings {
	return Settings{
		Tier:        rc.Tier,
		Timeout:     rc.Timeout,
		Weight:      rc.Weight,
		MaxTokens:   rc.MaxTokens,
		Temperature: rc.Temperature,
	}
}

// Role is one committee seat. The set is closed: growth, policy, value and
// synthesizer.
type Role interface {
	Name() string
	Tier() string
	Settings() Settings
	Instruction() string
	Prompt(b Brief, prior Prior) string
}

// Prior carries the opinions already settled when a later stage is prompted.
type Prior struct {
	Growth *Opinion
	Policy *Opinion
	Value  *Opinion
}

const analystFormat = `Reply with one JSON object:
{"decision": "BUY" | "SELL" | "HOLD", "score": 0-100, "summary": "two or three sentences", "key_signals": {"name": "observation"}}
A score above 60 is bullish, below 40 bearish.`

type seat struct{ s Settings }

func (r seat) Tier() string       { return r.s.Tier }
func (r seat) Settings() Settings { return r.s }

type growth struct{ seat }

// NewGrowth returns the growth analyst seat.
func NewGrowth(s Settings) Role { return growth{seat{s}} }

func (growth) Name() string { return RoleGrowth }

func (growth) Instruction() string {
	return "You are the growth analyst on an equity investment committee. " +
		"Judge the company's growth runway: revenue growth, R&D intensity, industry tailwinds and price momentum. " +
		"Figures marked as industry defaults are estimates, weigh them accordingly.\n\n" + analystFormat
}

func (growth) Prompt(b Brief, _ Prior) string {
	return b.render() + "\nGive your growth assessment."
}

type policy struct{ seat }

// NewPolicy returns the policy and macro analyst seat.
func NewPolicy(s Settings) Role { return policy{seat{s}} }

func (policy) Name() string { return RolePolicy }

func (policy) Instruction() string {
	return "You are the policy and macro analyst on an equity investment committee. " +
		"Judge regulation, industrial policy, rates and the market regime as they bear on this stock.\n\n" + analystFormat
}

func (policy) Prompt(b Brief, _ Prior) string {
	return b.render() + "\nGive your policy and macro assessment."
}

type value struct{ seat }

// NewValue returns the value analyst seat. It sees both Stage-1 opinions.
func NewValue(s Settings) Role { return value{seat{s}} }

func (value) Name() string { return RoleValue }

func (value) Instruction() string {
	return "You are the value analyst on an equity investment committee. " +
		"Judge valuation (PE, PB, ROE) against quality and the price already paid for growth. " +
		"You have read the growth and policy analysts; challenge them where the numbers disagree.\n\n" + analystFormat
}

func (value) Prompt(b Brief, prior Prior) string {
	var sb strings.Builder
	sb.WriteString(b.render())
	sb.WriteString("\nCommittee so far:\n")
	writeOpinion(&sb, "Growth analyst", prior.Growth)
	writeOpinion(&sb, "Policy analyst", prior.Policy)
	sb.WriteString("\nGive your valuation assessment.")
	return sb.String()
}

type synthesizer struct{ seat }

// NewSynthesizer returns the committee chair, who reconciles the three analysts.
func NewSynthesizer(s Settings) Role { return synthesizer{seat{s}} }

func (synthesizer) Name() string { return RoleSynthesizer }

func (synthesizer) Instruction() string {
	return "You chair an equity investment committee. Reconcile the growth, policy and value analysts into one verdict. " +
		"Where they disagree, say which argument wins and why. Missing analysts carry no weight.\n\n" +
		`Reply with one JSON object:
{"verdict": "STRONG_BUY" | "BUY" | "HOLD" | "SELL" | "STRONG_SELL", "conviction_stars": 1-5, "score": 0-100, "summary": "the committee's reasoning", "key_signals": {"name": "observation"}}`
}

func (synthesizer) Prompt(b Brief, prior Prior) string {
	var sb strings.Builder
	sb.WriteString(b.render())
	sb.WriteString("\nAnalyst opinions:\n")
	writeOpinion(&sb, "Growth analyst", prior.Growth)
	writeOpinion(&sb, "Policy analyst", prior.Policy)
	writeOpinion(&sb, "Value analyst", prior.Value)
	sb.WriteString("\nDeliver the committee verdict.")
	return sb.String()
}

func writeOpinion(sb *strings.Builder, label string, o *Opinion) {
	if o == nil || !o.Available {
		sb.WriteString(fmt.Sprintf("- %s: unavailable, no opinion\n", label))
		return
	}
	if o.Scored {
		sb.WriteString(fmt.Sprintf("- %s: %s, score %d\n", label, o.Decision, o.Score))
	} else {
		sb.WriteString(fmt.Sprintf("- %s: %s, unscored\n", label, o.Decision))
	}
	if o.Summary != "" {
		sb.WriteString(fmt.Sprintf("  %s\n", o.Summary))
	}
	for _, k := range sortedKeys(o.KeySignals) {
		sb.WriteString(fmt.Sprintf("  * %s: %s\n", k, o.KeySignals[k]))
	}
}
