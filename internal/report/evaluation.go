package report

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/quorum/internal/committee"
	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/indicator"
	"github.com/newthinker/quorum/internal/strategy"
)

// Evaluation is the full record produced for one symbol.
type Evaluation struct {
	ID          uuid.UUID           `json:"id"`
	Symbol      string              `json:"symbol"`
	Name        string              `json:"name"`
	Market      core.Market         `json:"market"`
	GeneratedAt time.Time           `json:"generated_at"`
	Technical   *indicator.Snapshot `json:"technical"`
	Committee   committee.Verdict   `json:"committee"`
	Strategy    strategy.Decision   `json:"strategy"`
}

// New stamps a fresh evaluation with a random ID.
func New(symbol, name string, generatedAt time.Time, technical *indicator.Snapshot, verdict committee.Verdict, decision strategy.Decision) Evaluation {
	return Evaluation{
		ID:          uuid.New(),
		Symbol:      symbol,
		Name:        name,
		Market:      core.DetectMarket(symbol),
		GeneratedAt: generatedAt.UTC(),
		Technical:   technical,
		Committee:   verdict,
		Strategy:    decision,
	}
}

// ArchivePath is evaluations/<symbol>/<yyyy-mm-dd>/<id>.json.
func (e Evaluation) ArchivePath() string {
	return path.Join(SymbolPrefix(e.Symbol), e.GeneratedAt.Format("2006-01-02"), e.ID.String()+".json")
}

// SymbolPrefix is the archive directory holding every evaluation of symbol.
func SymbolPrefix(symbol string) string {
	return path.Join("evaluations", strings.ToUpper(strings.ReplaceAll(symbol, "/", "_")))
}

// Headline is a one-line summary for logs and the CLI.
func (e Evaluation) Headline() string {
	return fmt.Sprintf("%s %s | committee %s (%d, %d★, %s) | strategy %s (%d★, %s)",
		e.Symbol, e.Name,
		e.Committee.Verdict, e.Committee.CompositeScore, e.Committee.ConvictionStars, e.Committee.Source,
		e.Strategy.StrategyType, e.Strategy.Conviction, e.Strategy.Source)
}
