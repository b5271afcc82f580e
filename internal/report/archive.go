package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/newthinker/quorum/internal/report/archive"
)

// ArchiveSink writes each evaluation as indented JSON to a Storage.
type ArchiveSink struct {
	store archive.Storage
}

func NewArchiveSink(store archive.Storage) *ArchiveSink {
	return &ArchiveSink{store: store}
}

func (a *ArchiveSink) Name() string { return "archive" }

func (a *ArchiveSink) Publish(ctx context.Context, e Evaluation) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding evaluation: %w", err)
	}
	return a.store.Write(ctx, e.ArchivePath(), data)
}

// History loads the most recent archived evaluations for symbol, newest first.
// limit <= 0 returns all of them.
func (a *ArchiveSink) History(ctx context.Context, symbol string, limit int) ([]Evaluation, error) {
	paths, err := a.store.List(ctx, SymbolPrefix(symbol))
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}

	evals := make([]Evaluation, 0, len(paths))
	for _, p := range paths {
		data, err := a.store.Read(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		var e Evaluation
		if err := json.Unmarshal(data, &e); err != nil {
			continue // foreign file under the prefix
		}
		evals = append(evals, e)
	}

	sort.SliceStable(evals, func(i, j int) bool {
		return evals[i].GeneratedAt.After(evals[j].GeneratedAt)
	})
	if limit > 0 && len(evals) > limit {
		evals = evals[:limit]
	}
	return evals, nil
}
