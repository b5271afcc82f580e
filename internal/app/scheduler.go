package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/quorum/internal/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the watchlist cycle on a six-field cron expression.
// A tick that fires while the previous cycle is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	logger *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	running bool
}

// NewScheduler parses spec (with seconds) and binds it to svc.
func NewScheduler(spec string, svc *Service, log *zap.Logger) (*Scheduler, error) {
	log = logger.Component(log, "scheduler")
	cl := cronLogger{log.Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		svc:    svc,
		logger: log,
		ctx:    context.Background(),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("register watchlist schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing ticks. Cycles run under ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.ctx = ctx
	s.running = true
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("watchlist_count", len(s.svc.GetWatchlist())))
	return nil
}

// Stop halts new ticks and waits for a running cycle to finish or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	evals := s.svc.RunOnce(ctx)
	s.logger.Info("scheduled cycle finished", zap.Int("evaluations", len(evals)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
