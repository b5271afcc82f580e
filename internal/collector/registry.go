package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/logger"
	"go.uber.org/zap"
)

// Registry holds collectors in registration order.
type Registry struct {
	mu         sync.RWMutex
	collectors []Collector
	logger     *zap.Logger
}

// NewRegistry creates a new collector registry
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{logger: logger.Component(log, "collector")}
}

// Register appends a collector. A collector with the same name is replaced in place.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.collectors {
		if existing.Name() == c.Name() {
			r.collectors[i] = c
			return
		}
	}
	r.collectors = append(r.collectors, c)
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.collectors {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// GetAll returns all registered collectors in order.
func (r *Registry) GetAll() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Collector(nil), r.collectors...)
}

// FetchHistory asks each collector serving the symbol's market in turn and
// returns the first non-empty series. If none succeeds the error wraps
// core.ErrDataUnavailable.
func (r *Registry) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	market := core.DetectMarket(symbol)

	var errs []error
	for _, c := range r.GetAll() {
		if !Supports(c, market) {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		bars, err := c.FetchHistory(ctx, symbol, start, end)
		if err == nil && len(bars) == 0 {
			err = fmt.Errorf("empty series")
		}
		if err != nil {
			r.logger.Warn("collector failed",
				zap.String("collector", c.Name()),
				zap.String("symbol", symbol),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), core.WrapError(core.ErrCollectorFailed, err)))
			continue
		}
		return bars, nil
	}

	if len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no collector for market %s", market))
	}
	return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("%s: %w", symbol, errors.Join(errs...)))
}
