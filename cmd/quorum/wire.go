package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/newthinker/quorum/internal/app"
	"github.com/newthinker/quorum/internal/collector"
	"github.com/newthinker/quorum/internal/collector/eastmoney"
	"github.com/newthinker/quorum/internal/collector/yahoo"
	"github.com/newthinker/quorum/internal/committee"
	"github.com/newthinker/quorum/internal/config"
	"github.com/newthinker/quorum/internal/fundamental"
	"github.com/newthinker/quorum/internal/llm/factory"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/newthinker/quorum/internal/opinion"
	"github.com/newthinker/quorum/internal/report"
	"github.com/newthinker/quorum/internal/report/archive"
	"github.com/newthinker/quorum/internal/strategy"
	"github.com/newthinker/quorum/internal/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const sinkTimeout = 30 * time.Second

type tracerProvider interface {
	Tracer() trace.Tracer
	Shutdown(ctx context.Context) error
}

// newTracerProvider is swapped in tests.
var newTracerProvider = func(cfg config.TracingConfig) (tracerProvider, error) {
	return tracing.New(cfg, os.Stderr)
}

// stack holds everything built from the config for one process.
type stack struct {
	cfg     *config.Config
	svc     *app.Service
	archive *report.ArchiveSink
	metrics *metrics.Registry
	closers []func(context.Context) error
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func buildRuntime(cfg *config.Config, log *zap.Logger) (_ *stack, err error) {
	rt := &stack{cfg: cfg}
	defer func() {
		if err != nil {
			if cerr := rt.close(context.Background()); cerr != nil {
				log.Warn("releasing partial runtime", zap.Error(cerr))
			}
		}
	}()

	if cfg.Metrics.Enabled {
		rt.metrics = metrics.NewRegistry()
	}

	tp, err := newTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}
	rt.closers = append(rt.closers, tp.Shutdown)
	tracer := tp.Tracer()

	collectors := collector.NewRegistry(log)
	for _, c := range []collector.Collector{
		eastmoney.New(cfg.Collectors["eastmoney"].Timeout),
		yahoo.New(cfg.Collectors["yahoo"].Timeout),
	} {
		cc, ok := cfg.Collectors[c.Name()]
		if ok && !cc.Enabled {
			continue
		}
		collectors.Register(collector.WithMarkets(c, cc.Markets))
	}
	if len(collectors.GetAll()) == 0 {
		return nil, errors.New("no collectors enabled")
	}

	tiers, err := factory.NewTiers(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("building llm tiers: %w", err)
	}
	if len(tiers) == 0 {
		log.Warn("no llm tiers configured, committee and strategy will use deterministic fallbacks")
	}
	runner := opinion.NewRunner(tiers, rt.metrics, tracer, log)

	defaults, err := fundamental.LoadDefaults(cfg.Fundamentals.IndustryDefaults)
	if err != nil {
		return nil, err
	}

	var sinks []report.Sink
	store, err := archive.Open(cfg.Output.Archive)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if store != nil {
		rt.archive = report.NewArchiveSink(store)
		sinks = append(sinks, rt.archive)
	}
	if cfg.Output.Kafka.Enabled {
		ks, err := report.NewKafkaSink(cfg.Output.Kafka)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return ks.Close() })
		sinks = append(sinks, ks)
	}
	if wh := cfg.Output.Webhook; wh.Enabled {
		sinks = append(sinks, report.NewWebhookSink(wh.URL, wh.Headers))
	}
	if tg := cfg.Output.Telegram; tg.Enabled {
		sinks = append(sinks, report.NewTelegramSink(tg.BotToken, tg.ChatID))
	}

	rt.svc = app.New(cfg, app.Deps{
		History:   collectors,
		Defaults:  defaults,
		Committee: committee.New(cfg.Committee, runner, rt.metrics, tracer, log),
		Strategy:  strategy.NewEngine(cfg.Strategy, runner, rt.metrics, tracer, log),
		Publisher: report.NewPublisher(sinks, sinkTimeout, rt.metrics, log),
		Metrics:   rt.metrics,
		Tracer:    tracer,
		Logger:    log,
	})
	return rt, nil
}

// close releases producers and flushes spans, last opened first.
func (rt *stack) close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// setup is the common prologue of every command that evaluates symbols.
func setup() (*stack, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(log)
	if err != nil {
		return nil, log, err
	}
	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return nil, log, err
	}
	return rt, log, nil
}
