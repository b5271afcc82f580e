package report

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/logger"
	"github.com/newthinker/quorum/internal/metrics"
	"go.uber.org/zap"
)

// Sink consumes finished evaluations.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e Evaluation) error
}

// Publisher fans an evaluation out to every sink. A failing sink is logged and
// counted but never stops the others.
type Publisher struct {
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewPublisher wraps sinks. Each publish gets its own timeout when timeout > 0.
func NewPublisher(sinks []Sink, timeout time.Duration, reg *metrics.Registry, log *zap.Logger) *Publisher {
	return &Publisher{
		sinks:   sinks,
		timeout: timeout,
		metrics: reg,
		logger:  logger.Component(log, "report"),
	}
}

// Publish returns the number of sinks that accepted e.
func (p *Publisher) Publish(ctx context.Context, e Evaluation) int {
	delivered := 0
	for _, s := range p.sinks {
		if err := p.publishOne(ctx, s, e); err != nil {
			p.metrics.RecordSinkPublish(s.Name(), "error")
			p.logger.Warn("sink publish failed",
				zap.String("sink", s.Name()),
				zap.String("symbol", e.Symbol),
				zap.Error(core.WrapError(core.ErrSinkFailed, err)))
			continue
		}
		p.metrics.RecordSinkPublish(s.Name(), "ok")
		delivered++
	}
	return delivered
}

func (p *Publisher) publishOne(ctx context.Context, s Sink, e Evaluation) (err error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Publish(ctx, e)
}

// Sinks returns the configured sinks in publish order.
func (p *Publisher) Sinks() []Sink {
	return append([]Sink(nil), p.sinks...)
}
