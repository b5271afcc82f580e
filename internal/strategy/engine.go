// Package strategy reconciles the technical and fundamental views into one
// of four archetypes.
package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/quorum/internal/config"
	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/llm"
	"github.com/newthinker/quorum/internal/logger"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/newthinker/quorum/internal/opinion"
	"github.com/newthinker/quorum/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// View is one side of the reconciliation.
type View struct {
	Action core.Action
	Score  int
}

const instruction = `You are a portfolio strategist. Reconcile a technical view and a fundamental view of one stock into exactly one strategy:
- RESONANCE_LONG: both views strong, build a position
- SPECULATIVE_REBOUND: technicals strong, fundamentals weak, small short-term trade
- VALUE_ACCUMULATION: fundamentals strong, technicals weak, accumulate patiently
- AVOID: mixed or weak views, stay out

Reply with one JSON object, every field required:
{"strategy_type": "...", "title": "...", "position_suggest": "...", "action_guide": "...", "risk_warning": "...", "time_frame": "...", "conviction": 1-5, "rationale": "..."}`

// Engine decides a strategy. Without an asker it uses the rules only.
type Engine struct {
	asker     opinion.Asker
	tier      string
	timeout   time.Duration
	maxTokens int

	metrics *metrics.Registry
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewEngine creates a strategy engine. asker is ignored unless cfg.UseLLM.
func NewEngine(cfg config.StrategyConfig, asker opinion.Asker, reg *metrics.Registry, tracer trace.Tracer, log *zap.Logger) *Engine {
	e := &Engine{
		tier:      cfg.Tier,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
		metrics:   reg,
		tracer:    tracing.OrNoop(tracer),
		logger:    logger.Component(log, "strategy"),
	}
	if cfg.UseLLM {
		e.asker = asker
	}
	return e
}

// Decide never fails: any problem on the backend path yields Classify.
func (e *Engine) Decide(ctx context.Context, tech, fund View) (d Decision) {
	ctx, span := e.tracer.Start(ctx, "strategy.decide", trace.WithAttributes(
		attribute.Int("tech_score", tech.Score),
		attribute.Int("fund_score", fund.Score),
	))
	defer func() {
		span.SetAttributes(
			attribute.String("strategy_type", string(d.StrategyType)),
			attribute.String("source", d.Source),
		)
		span.End()
		e.metrics.RecordStrategy(string(d.StrategyType), d.Source)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("strategy backend panicked", zap.Any("panic", rec))
			d = e.fallback(tech, fund)
		}
	}()

	if e.asker == nil {
		return Classify(tech.Score, fund.Score)
	}

	reply := e.asker.Ask(ctx, opinion.Request{
		Role:        "strategy",
		Tier:        e.tier,
		Instruction: instruction,
		Content:     prompt(tech, fund),
		Timeout:     e.timeout,
		MaxTokens:   e.maxTokens,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if !reply.Available() {
		e.logger.Warn("strategy backend unavailable", zap.Error(reply.Err))
		return e.fallback(tech, fund)
	}

	parsed, err := parseDecision(reply.Text)
	if err != nil {
		e.logger.Warn("strategy reply rejected", zap.Error(err), zap.String("backend", reply.Backend))
		return e.fallback(tech, fund)
	}
	return parsed
}

func (e *Engine) fallback(tech, fund View) Decision {
	e.metrics.RecordFallback("rules")
	return Classify(tech.Score, fund.Score)
}

func prompt(tech, fund View) string {
	return fmt.Sprintf("Technical view: %s, health score %d/100\nFundamental view (investment committee): %s, composite score %d/100\n\nChoose the strategy.",
		tech.Action, tech.Score, fund.Action, fund.Score)
}

var requiredFields = []string{
	"title", "position_suggest", "action_guide", "risk_warning", "time_frame", "rationale",
}

// parseDecision enforces the JSON contract: every field present and non-empty,
// a known strategy type, and a numeric conviction.
func parseDecision(text string) (Decision, error) {
	m, err := llm.ExtractJSON(text)
	if err != nil {
		return Decision{}, err
	}

	t, ok := ParseStrategyType(llm.StringField(m, "strategy_type"))
	if !ok {
		return Decision{}, core.WrapError(core.ErrParse,
			fmt.Errorf("unknown strategy_type %q", llm.StringField(m, "strategy_type")))
	}
	for _, f := range requiredFields {
		if llm.StringField(m, f) == "" {
			return Decision{}, core.WrapError(core.ErrParse, fmt.Errorf("missing field %s", f))
		}
	}
	conviction, ok := llm.NumberField(m, "conviction")
	if !ok {
		return Decision{}, core.WrapError(core.ErrParse, fmt.Errorf("missing field conviction"))
	}

	return Decision{
		StrategyType:    t,
		Title:           llm.StringField(m, "title"),
		PositionSuggest: llm.StringField(m, "position_suggest"),
		ActionGuide:     llm.StringField(m, "action_guide"),
		RiskWarning:     llm.StringField(m, "risk_warning"),
		TimeFrame:       llm.StringField(m, "time_frame"),
		Conviction:      core.ClampFloatStars(conviction),
		Rationale:       llm.StringField(m, "rationale"),
		Source:          SourceLLM,
	}, nil
}
