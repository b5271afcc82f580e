// Package opinion asks an opinion backend tier for text, with a per-call
// timeout and a single retry on the tier's secondary backend.
package opinion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/llm"
	"github.com/newthinker/quorum/internal/logger"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/newthinker/quorum/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTimeout applies when a Request carries none.
const DefaultTimeout = 60 * time.Second

var errEmpty = errors.New("empty response")

// Request is one opinion call.
type Request struct {
	Role        string
	Tier        string
	Instruction string // system prompt
	Content     string // user prompt
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Reply is the outcome of Ask. Err is set, wrapping
// core.ErrBackendUnavailable, when no backend produced text.
type Reply struct {
	Text    string
	Backend string
	Err     error
}

// Available reports whether the reply carries usable text.
func (r Reply) Available() bool {
	return r.Err == nil && strings.TrimSpace(r.Text) != ""
}

// Asker is what the committee and strategy engine depend on.
type Asker interface {
	Ask(ctx context.Context, req Request) Reply
}

// Runner implements Asker over a tier table. It holds no per-call state and
// is safe for concurrent use.
type Runner struct {
	tiers   llm.Tiers
	metrics *metrics.Registry
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewRunner creates a runner. reg, tracer and log may be nil.
func NewRunner(tiers llm.Tiers, reg *metrics.Registry, tracer trace.Tracer, log *zap.Logger) *Runner {
	return &Runner{
		tiers:   tiers,
		metrics: reg,
		tracer:  tracing.OrNoop(tracer),
		logger:  logger.Component(log, "opinion"),
	}
}

// Ask tries the tier's primary backend, then its secondary once. It never
// returns an error value directly and never panics.
func (r *Runner) Ask(ctx context.Context, req Request) Reply {
	ctx, span := r.tracer.Start(ctx, "opinion.ask", trace.WithAttributes(
		attribute.String("role", req.Role),
		attribute.String("tier", req.Tier),
	))
	defer span.End()

	reply := r.ask(ctx, req)
	if reply.Err != nil {
		span.RecordError(reply.Err)
		span.SetStatus(codes.Error, "unavailable")
	} else {
		span.SetAttributes(attribute.String("backend", reply.Backend))
	}
	return reply
}

func (r *Runner) ask(ctx context.Context, req Request) Reply {
	tier, ok := r.tiers[req.Tier]
	if !ok || tier.Primary == nil {
		return Reply{Err: core.WrapError(core.ErrBackendUnavailable,
			fmt.Errorf("tier %q not configured", req.Tier))}
	}

	text, primaryErr := r.call(ctx, tier.Primary, req)
	if primaryErr == nil {
		return Reply{Text: text, Backend: tier.Primary.Name()}
	}
	r.logger.Warn("primary backend failed",
		zap.String("role", req.Role),
		zap.String("backend", tier.Primary.Name()),
		zap.Error(primaryErr))

	if tier.Secondary == nil {
		return Reply{Err: core.WrapError(core.ErrBackendUnavailable, primaryErr)}
	}

	r.metrics.RecordFallback("secondary")
	text, secondaryErr := r.call(ctx, tier.Secondary, req)
	if secondaryErr == nil {
		r.logger.Info("secondary backend answered",
			zap.String("role", req.Role),
			zap.String("backend", tier.Secondary.Name()))
		return Reply{Text: text, Backend: tier.Secondary.Name()}
	}
	r.logger.Warn("secondary backend failed",
		zap.String("role", req.Role),
		zap.String("backend", tier.Secondary.Name()),
		zap.Error(secondaryErr))

	return Reply{Err: core.WrapError(core.ErrBackendUnavailable, errors.Join(primaryErr, secondaryErr))}
}

type result struct {
	resp *llm.ChatResponse
	err  error
}

// call runs one backend request under its own deadline. The deadline holds
// even for a backend that ignores its context.
func (r *Runner) call(ctx context.Context, p llm.Provider, req Request) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := llm.UserPrompt(req.Instruction, req.Content)
	chatReq.MaxTokens = req.MaxTokens
	chatReq.Temperature = req.Temperature
	chatReq.JSONMode = req.JSONMode

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("backend panic: %v", rec)}
			}
		}()
		resp, err := p.Chat(callCtx, chatReq)
		done <- result{resp: resp, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = result{err: callCtx.Err()}
	}
	elapsed := time.Since(start)

	status := "ok"
	var text string
	switch {
	case res.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		status = "timeout"
		res.err = fmt.Errorf("%s timed out after %s: %w", p.Name(), timeout, res.err)
	case res.err != nil:
		status = "error"
	case res.resp == nil || strings.TrimSpace(res.resp.Content) == "":
		status = "empty"
		res.err = fmt.Errorf("%s: %w", p.Name(), errEmpty)
	default:
		text = res.resp.Content
	}

	r.metrics.RecordOpinion(p.Name(), status, elapsed.Seconds())
	r.logger.Debug("backend call",
		zap.String("role", req.Role),
		zap.String("backend", p.Name()),
		zap.String("status", status),
		zap.Duration("elapsed", elapsed))

	return text, res.err
}
