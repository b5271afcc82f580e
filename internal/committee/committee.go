// Package committee runs the four-seat deliberation: growth and policy in
// parallel, then value, then the synthesizer who issues the verdict.
package committee

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/quorum/internal/config"
	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/fundamental"
	"github.com/newthinker/quorum/internal/logger"
	"github.com/newthinker/quorum/internal/market"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/newthinker/quorum/internal/opinion"
	"github.com/newthinker/quorum/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Verdict sources.
const (
	SourceSynthesizer = "synthesizer"
	SourceComposite   = "composite"
)

// Slots in Verdict.Opinions.
const (
	SlotGrowth = iota
	SlotPolicy
	SlotValue
	SlotSynthesizer
)

// Brief is what the committee is asked to judge.
type Brief struct {
	Symbol       string
	Name         string
	Market       market.Context
	Fundamentals fundamental.Fundamentals
	Technical    string
}

func (b Brief) render() string {
	var sb strings.Builder
	if b.Name != "" {
		sb.WriteString(fmt.Sprintf("Stock: %s (%s)\n", b.Symbol, b.Name))
	} else {
		sb.WriteString(fmt.Sprintf("Stock: %s\n", b.Symbol))
	}
	sb.WriteString("\nMarket context:\n")
	sb.WriteString(b.Market.Summary())
	sb.WriteString("\nFundamentals:\n")
	sb.WriteString(b.Fundamentals.Summary())
	if b.Technical != "" {
		sb.WriteString("\nTechnical snapshot:\n")
		sb.WriteString(b.Technical)
	}
	return sb.String()
}

// Opinion is one seat's view.
type Opinion struct {
	Role       string            `json:"role"`
	Decision   core.Action       `json:"decision"`
	Score      int               `json:"score"`
	Summary    string            `json:"summary"`
	KeySignals map[string]string `json:"key_signals,omitempty"`
	Available  bool              `json:"available"`
	Scored     bool              `json:"scored"`
	Backend    string            `json:"backend,omitempty"`
}

// Placeholder is the neutral opinion recorded for a seat whose backend failed.
func Placeholder(role string) Opinion {
	return Opinion{Role: role, Decision: core.ActionHold, Score: 50}
}

// Verdict is the committee's output. Opinions are in growth, policy, value,
// synthesizer order. CompositeScore is the synthesizer's score when it gave
// one; WeightedScore is always the weighted mean of the three analysts.
type Verdict struct {
	Symbol          string      `json:"symbol"`
	Opinions        [4]Opinion  `json:"opinions"`
	CompositeScore  int         `json:"composite_score"`
	WeightedScore   int         `json:"weighted_score"`
	Verdict         core.Action `json:"verdict"`
	ConvictionStars int         `json:"conviction_stars"`
	Rationale       string      `json:"rationale"`
	Source          string      `json:"source"`
}

// Committee convenes the four seats over an opinion runner.
type Committee struct {
	growth      Role
	policy      Role
	value       Role
	synthesizer Role

	asker   opinion.Asker
	metrics *metrics.Registry
	tracer  trace.Tracer
	logger  *zap.Logger
}

// New builds a committee from configuration. reg, tracer and log may be nil.
func New(cfg config.CommitteeConfig, asker opinion.Asker, reg *metrics.Registry, tracer trace.Tracer, log *zap.Logger) *Committee {
	return &Committee{
		growth:      NewGrowth(settingsFrom(cfg.Growth)),
		policy:      NewPolicy(settingsFrom(cfg.Policy)),
		value:       NewValue(settingsFrom(cfg.Value)),
		synthesizer: NewSynthesizer(settingsFrom(cfg.Synthesizer)),
		asker:       asker,
		metrics:     reg,
		tracer:      tracing.OrNoop(tracer),
		logger:      logger.Component(log, "committee"),
	}
}

// Convene runs the deliberation. It always returns a complete Verdict; failed
// seats are replaced by placeholders and a failed synthesizer by the
// weighted composite.
func (c *Committee) Convene(ctx context.Context, b Brief) Verdict {
	ctx, span := c.tracer.Start(ctx, "committee.convene", trace.WithAttributes(
		attribute.String("symbol", b.Symbol),
	))
	defer span.End()

	start := time.Now()

	// Stage 1: growth and policy are independent. Each goroutine owns its slot.
	var g, p Opinion
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g = c.consult(ctx, c.growth, b, Prior{})
	}()
	go func() {
		defer wg.Done()
		p = c.consult(ctx, c.policy, b, Prior{})
	}()
	wg.Wait()

	// Stage 2
	v := c.consult(ctx, c.value, b, Prior{Growth: &g, Policy: &p})

	// Stage 3
	verdict := c.synthesize(ctx, b, g, p, v)

	span.SetAttributes(
		attribute.String("verdict", string(verdict.Verdict)),
		attribute.String("source", verdict.Source),
		attribute.Int("composite", verdict.CompositeScore),
	)
	c.logger.Info("committee verdict",
		zap.String("symbol", b.Symbol),
		zap.String("verdict", string(verdict.Verdict)),
		zap.Int("composite", verdict.CompositeScore),
		zap.Int("stars", verdict.ConvictionStars),
		zap.String("source", verdict.Source),
		zap.Duration("elapsed", time.Since(start)))
	return verdict
}

// consult asks one seat and parses its reply. Backend failure yields the
// placeholder.
func (c *Committee) consult(ctx context.Context, r Role, b Brief, prior Prior) (op Opinion) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("seat panicked", zap.String("role", r.Name()), zap.Any("panic", rec))
			op = Placeholder(r.Name())
		}
	}()

	reply := c.asker.Ask(ctx, c.request(r, b, prior))
	if !reply.Available() {
		c.logger.Warn("seat unavailable", zap.String("role", r.Name()), zap.Error(reply.Err))
		return Placeholder(r.Name())
	}

	op = parseOpinion(r.Name(), reply.Text)
	op.Backend = reply.Backend
	c.logger.Debug("seat opinion",
		zap.String("role", r.Name()),
		zap.String("decision", string(op.Decision)),
		zap.Int("score", op.Score),
		zap.Bool("scored", op.Scored))
	return op
}

func (c *Committee) request(r Role, b Brief, prior Prior) opinion.Request {
	s := r.Settings()
	return opinion.Request{
		Role:        r.Name(),
		Tier:        r.Tier(),
		Instruction: r.Instruction(),
		Content:     r.Prompt(b, prior),
		Timeout:     s.Timeout,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
		JSONMode:    true,
	}
}

func (c *Committee) synthesize(ctx context.Context, b Brief, g, p, v Opinion) Verdict {
	weighted := []Weighted{
		{Opinion: g, Weight: c.growth.Settings().Weight},
		{Opinion: p, Weight: c.policy.Settings().Weight},
		{Opinion: v, Weight: c.value.Settings().Weight},
	}
	composite := Composite(weighted)

	out := Verdict{Symbol: b.Symbol, WeightedScore: composite}
	out.Opinions[SlotGrowth] = g
	out.Opinions[SlotPolicy] = p
	out.Opinions[SlotValue] = v

	reply := c.asker.Ask(ctx, c.request(c.synthesizer, b, Prior{Growth: &g, Policy: &p, Value: &v}))
	if reply.Available() {
		if res, ok := parseSynthesis(reply.Text); ok {
			score := composite
			if res.scored {
				score = res.score
			}
			stars := res.stars
			if !res.hasStars {
				stars = StarsFromScore(score)
			}
			out.CompositeScore = score
			out.Verdict = res.verdict
			out.ConvictionStars = core.ClampStars(stars)
			out.Rationale = res.summary
			if out.Rationale == "" {
				out.Rationale = compositeRationale(weighted, score)
			}
			out.Source = SourceSynthesizer
			out.Opinions[SlotSynthesizer] = Opinion{
				Role:       RoleSynthesizer,
				Decision:   res.verdict.Simple(),
				Score:      score,
				Summary:    res.summary,
				KeySignals: res.signals,
				Available:  true,
				Scored:     res.scored,
				Backend:    reply.Backend,
			}
			return out
		}
		c.logger.Warn("synthesizer reply unparsable, using composite", zap.String("symbol", b.Symbol))
		synth := parseOpinion(RoleSynthesizer, reply.Text)
		synth.Backend = reply.Backend
		out.Opinions[SlotSynthesizer] = synth
	} else {
		c.logger.Warn("synthesizer unavailable, using composite",
			zap.String("symbol", b.Symbol), zap.Error(reply.Err))
		out.Opinions[SlotSynthesizer] = Placeholder(RoleSynthesizer)
	}

	c.metrics.RecordFallback("composite")
	out.CompositeScore = composite
	out.Verdict = core.ActionFromScore(composite)
	out.ConvictionStars = StarsFromScore(composite)
	out.Rationale = compositeRationale(weighted, composite)
	out.Source = SourceComposite
	return out
}

func compositeRationale(ops []Weighted, composite int) string {
	var parts []string
	for _, w := range ops {
		if w.Opinion.Available && w.Opinion.Scored {
			parts = append(parts, fmt.Sprintf("%s %d (%s)", w.Opinion.Role, w.Opinion.Score, w.Opinion.Decision))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("No committee opinion could be scored; neutral composite %d.", composite)
	}
	return fmt.Sprintf("Weighted committee composite %d from %s.", composite, strings.Join(parts, ", "))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
