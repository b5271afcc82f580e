package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/quorum/internal/committee"
	"github.com/newthinker/quorum/internal/config"
	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/fundamental"
	"github.com/newthinker/quorum/internal/indicator"
	"github.com/newthinker/quorum/internal/logger"
	"github.com/newthinker/quorum/internal/market"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/newthinker/quorum/internal/report"
	"github.com/newthinker/quorum/internal/strategy"
	"github.com/newthinker/quorum/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HistorySource supplies daily bars. *collector.Registry satisfies it.
type HistorySource interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error)
}

// Convener runs the committee. *committee.Committee satisfies it.
type Convener interface {
	Convene(ctx context.Context, b committee.Brief) committee.Verdict
}

// Decider reconciles technical and fundamental views. *strategy.Engine satisfies it.
type Decider interface {
	Decide(ctx context.Context, tech, fund strategy.View) strategy.Decision
}

// Deps are the collaborators of a Service. Only History, Committee and
// Strategy are required.
type Deps struct {
	History      HistorySource
	Fundamentals fundamental.Provider
	Defaults     *fundamental.Defaults
	Committee    Convener
	Strategy     Decider
	Publisher    *report.Publisher
	Metrics      *metrics.Registry
	Tracer       trace.Tracer
	Logger       *zap.Logger
}

// Service evaluates symbols end to end and keeps the watchlist.
type Service struct {
	deps     Deps
	lookback int
	now      func() time.Time

	tracer trace.Tracer
	logger *zap.Logger

	mu             sync.RWMutex
	watchlistItems []config.WatchlistItem
	watchlistSet   map[string]struct{}
}

// New creates a Service seeded with the configured watchlist.
func New(cfg *config.Config, deps Deps) *Service {
	lookback := config.Defaults().Analysis.LookbackDays
	var watchlist []config.WatchlistItem
	if cfg != nil {
		if cfg.Analysis.LookbackDays > 0 {
			lookback = cfg.Analysis.LookbackDays
		}
		watchlist = cfg.Watchlist
	}
	if deps.Fundamentals == nil {
		deps.Fundamentals = fundamental.NewStaticProvider(watchlist)
	}

	s := &Service{
		deps:         deps,
		lookback:     lookback,
		now:          time.Now,
		tracer:       tracing.OrNoop(deps.Tracer),
		logger:       logger.Component(deps.Logger, "app"),
		watchlistSet: make(map[string]struct{}),
	}
	s.SetWatchlist(watchlist)
	return s
}

// Evaluate produces a complete evaluation for symbol. The only error it
// returns is core.ErrDataUnavailable, when no price history can be fetched.
func (s *Service) Evaluate(ctx context.Context, symbol string) (report.Evaluation, error) {
	started := time.Now()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	ctx, span := s.tracer.Start(ctx, "app.evaluate", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	snap, benchmark, err := s.technical(ctx, symbol)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.deps.Metrics.RecordEvaluation("no_data", time.Since(started).Seconds())
		return report.Evaluation{}, err
	}

	mkt := core.DetectMarket(symbol)
	brief := committee.Brief{
		Symbol:       symbol,
		Name:         s.nameOf(symbol),
		Market:       market.Analyze(benchmark, mkt),
		Fundamentals: s.fundamentals(ctx, symbol),
		Technical:    snap.Summary(),
	}

	verdict := s.deps.Committee.Convene(ctx, brief)
	decision := s.deps.Strategy.Decide(ctx,
		strategy.View{Action: snap.ActionSignal, Score: snap.HealthScore},
		strategy.View{Action: verdict.Verdict, Score: verdict.CompositeScore})

	eval := report.New(symbol, brief.Name, s.now(), snap, verdict, decision)
	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(ctx, eval)
	}

	span.SetAttributes(
		attribute.String("verdict", string(verdict.Verdict)),
		attribute.String("strategy", string(decision.StrategyType)),
	)
	s.deps.Metrics.RecordEvaluation("ok", time.Since(started).Seconds())
	s.logger.Info("evaluation complete",
		zap.String("symbol", symbol),
		zap.String("id", eval.ID.String()),
		zap.Int("health", snap.HealthScore),
		zap.String("verdict", string(verdict.Verdict)),
		zap.String("verdict_source", verdict.Source),
		zap.String("strategy", string(decision.StrategyType)),
		zap.String("strategy_source", decision.Source),
		zap.Duration("elapsed", time.Since(started)))

	return eval, nil
}

// Indicators computes only the technical snapshot.
func (s *Service) Indicators(ctx context.Context, symbol string) (*indicator.Snapshot, error) {
	snap, _, err := s.technical(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	return snap, err
}

// technical fetches the symbol and its benchmark and runs the indicator engine.
// A missing benchmark only costs alpha and the market regime.
func (s *Service) technical(ctx context.Context, symbol string) (*indicator.Snapshot, []core.PriceBar, error) {
	if symbol == "" {
		return nil, nil, core.WrapError(core.ErrDataUnavailable, errors.New("empty symbol"))
	}

	end := s.now()
	start := end.AddDate(0, 0, -s.lookback)

	bars, err := s.deps.History.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		if errors.Is(err, core.ErrDataUnavailable) {
			return nil, nil, err
		}
		return nil, nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	benchSymbol := market.BenchmarkFor(core.DetectMarket(symbol))
	var benchmark []core.PriceBar
	if benchSymbol != symbol {
		benchmark, err = s.deps.History.FetchHistory(ctx, benchSymbol, start, end)
		if err != nil {
			s.logger.Warn("benchmark unavailable",
				zap.String("symbol", symbol),
				zap.String("benchmark", benchSymbol),
				zap.Error(err))
			benchmark = nil
		}
	} else {
		benchmark = bars
	}

	snap, err := indicator.Analyze(bars, benchmark)
	if err != nil {
		return nil, nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("%s: %w", symbol, err))
	}
	return snap, benchmark, nil
}

func (s *Service) fundamentals(ctx context.Context, symbol string) fundamental.Fundamentals {
	f, err := s.deps.Fundamentals.Fetch(ctx, symbol)
	if err != nil {
		s.logger.Warn("fundamentals unavailable", zap.String("symbol", symbol), zap.Error(err))
		f = fundamental.Fundamentals{}
	}
	return s.deps.Defaults.Backfill(f)
}

func (s *Service) nameOf(symbol string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.watchlistItems {
		if strings.EqualFold(item.Symbol, symbol) && item.Name != "" {
			return item.Name
		}
	}
	return symbol
}

// RunOnce evaluates the watchlist sequentially. Symbols without data are
// logged and skipped.
func (s *Service) RunOnce(ctx context.Context) []report.Evaluation {
	items := s.GetWatchlistItems()
	if len(items) == 0 {
		s.logger.Debug("no symbols in watchlist")
		return nil
	}

	s.logger.Info("starting evaluation cycle", zap.Int("symbols", len(items)))

	evals := make([]report.Evaluation, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			s.logger.Info("evaluation cycle cancelled", zap.Int("done", len(evals)))
			break
		}
		eval, err := s.Evaluate(ctx, item.Symbol)
		if err != nil {
			s.logger.Warn("skipping symbol", zap.String("symbol", item.Symbol), zap.Error(err))
			continue
		}
		evals = append(evals, eval)
	}
	return evals
}
