package committee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/llm"
)

const maxSummary = 600

var (
	scorePattern    = regexp.MustCompile(`(?i)(?:score|评分|得分)\s*[:=：]?\s*\**\s*(\d{1,3}(?:\.\d+)?)`)
	labeledDecision = regexp.MustCompile(`(?i)(?:decision|verdict|recommendation|建议|结论)\s*[:=：]\s*\**\s*(strong[ _-]?buy|strong[ _-]?sell|buy|sell|hold)`)
	bareDecision    = regexp.MustCompile(`(?i)\b(strong[ _-]?buy|strong[ _-]?sell|buy|sell|hold)\b`)
	cnDecision      = regexp.MustCompile(`(强烈买入|强烈卖出|买入|卖出|持有|观望)`)
)

var cnActions = map[string]core.Action{
	"强烈买入": core.ActionStrongBuy,
	"强烈卖出": core.ActionStrongSell,
	"买入":   core.ActionBuy,
	"卖出":   core.ActionSell,
	"持有":   core.ActionHold,
	"观望":   core.ActionHold,
}

// parseOpinion reads an analyst reply. Structured JSON is preferred; free
// text is scanned for a score and a decision keyword. Text with neither
// becomes an unscored COMMENT.
func parseOpinion(role, text string) Opinion {
	op := Opinion{Role: role, Available: true, Score: 50, Decision: core.ActionComment}

	var decision core.Action
	var score float64
	var hasDecision, hasScore bool

	if m, err := llm.ExtractJSON(text); err == nil {
		decision, hasDecision = core.ParseAction(llm.StringField(m, "decision"))
		score, hasScore = llm.NumberField(m, "score")
		op.Summary = firstNonEmpty(llm.StringField(m, "summary"), llm.StringField(m, "reasoning"))
		op.KeySignals = signals(m["key_signals"])
	} else {
		decision, hasDecision = scanDecision(text)
		score, hasScore = scanScore(text)
		op.Summary = truncate(strings.TrimSpace(text), maxSummary)
	}

	if decision == core.ActionComment {
		hasDecision = false
	}
	if hasScore {
		op.Score = core.ClampFloatScore(score)
		op.Scored = true
	}
	switch {
	case hasDecision:
		op.Decision = decision.Simple()
	case hasScore:
		op.Decision = core.ActionFromScore(op.Score).Simple()
	}
	return op
}

type synthesis struct {
	verdict  core.Action
	score    int
	scored   bool
	stars    int
	hasStars bool
	summary  string
	signals  map[string]string
}

// parseSynthesis reads the chair's JSON. ok is false when the reply has no
// JSON object or carries neither a ladder verdict nor a score.
func parseSynthesis(text string) (synthesis, bool) {
	m, err := llm.ExtractJSON(text)
	if err != nil {
		return synthesis{}, false
	}

	var s synthesis
	if v, ok := llm.NumberField(m, "score"); ok {
		s.score = core.ClampFloatScore(v)
		s.scored = true
	}
	verdict, ok := core.ParseAction(llm.StringField(m, "verdict"))
	switch {
	case ok && verdict != core.ActionComment:
		s.verdict = verdict
	case s.scored:
		s.verdict = core.ActionFromScore(s.score)
	default:
		return synthesis{}, false
	}
	if v, ok := llm.NumberField(m, "conviction_stars"); ok {
		s.stars = core.ClampFloatStars(v)
		s.hasStars = true
	}
	s.summary = firstNonEmpty(llm.StringField(m, "summary"), llm.StringField(m, "rationale"))
	s.signals = signals(m["key_signals"])
	return s, true
}

func scanScore(text string) (float64, bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func scanDecision(text string) (core.Action, bool) {
	if m := labeledDecision.FindStringSubmatch(text); m != nil {
		return core.ParseAction(m[1])
	}
	if m := cnDecision.FindString(text); m != "" {
		return cnActions[m], true
	}
	if m := bareDecision.FindString(text); m != "" {
		return core.ParseAction(m)
	}
	return "", false
}

// signals flattens key_signals given as an object or a list.
func signals(v any) map[string]string {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		out := make(map[string]string, len(t))
		for k, val := range t {
			out[k] = fmt.Sprint(val)
		}
		return out
	case []any:
		if len(t) == 0 {
			return nil
		}
		out := make(map[string]string, len(t))
		for i, val := range t {
			out[strconv.Itoa(i+1)] = fmt.Sprint(val)
		}
		return out
	default:
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
