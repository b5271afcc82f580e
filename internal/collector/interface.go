package collector

import (
	"context"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/core"
)

// Collector fetches daily price history for the markets it supports.
type Collector interface {
	Name() string
	SupportedMarkets() []core.Market
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error)
}

// Supports reports whether c serves market m.
func Supports(c Collector, m core.Market) bool {
	for _, s := range c.SupportedMarkets() {
		if s == m {
			return true
		}
	}
	return false
}

// WithMarkets narrows c to the given markets. An empty list leaves c unchanged.
func WithMarkets(c Collector, markets []string) Collector {
	if len(markets) == 0 {
		return c
	}
	allowed := make([]core.Market, 0, len(markets))
	for _, m := range markets {
		market := core.Market(strings.ToUpper(strings.TrimSpace(m)))
		if Supports(c, market) {
			allowed = append(allowed, market)
		}
	}
	return &restricted{Collector: c, markets: allowed}
}

type restricted struct {
	Collector
	markets []core.Market
}

func (r *restricted) SupportedMarkets() []core.Market { return r.markets }
