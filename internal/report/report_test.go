package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/quorum/internal/committee"
	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/indicator"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/newthinker/quorum/internal/report/archive"
	"github.com/newthinker/quorum/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvaluation(at time.Time) Evaluation {
	verdict := committee.Verdict{
		Symbol:          "600519.SH",
		CompositeScore:  72,
		Verdict:         core.ActionBuy,
		ConvictionStars: 4,
		Rationale:       "growth and value agree",
		Source:          "synthesizer",
	}
	verdict.Opinions[0] = committee.Placeholder("growth")
	decision := strategy.Decision{
		StrategyType: strategy.ResonanceLong,
		Title:        "Resonance long",
		Conviction:   4,
		Source:       strategy.SourceRules,
	}
	snap := &indicator.Snapshot{CurrentPrice: 1700, HealthScore: 68, ActionSignal: core.ActionBuy}
	return New("600519.SH", "Kweichow Moutai", at, snap, verdict, decision)
}

func sinkCount(t *testing.T, reg *metrics.Registry, sink, status string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "quorum_sink_publish_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["sink"] == sink && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestNew(t *testing.T) {
	at := time.Date(2024, 3, 8, 7, 30, 0, 0, time.FixedZone("CST", 8*3600))
	e := sampleEvaluation(at)

	assert.NotEqual(t, e.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, core.MarketCNA, e.Market)
	assert.Equal(t, time.UTC, e.GeneratedAt.Location())
	assert.Equal(t, "evaluations/600519.SH/2024-03-07/"+e.ID.String()+".json", e.ArchivePath())
	assert.Contains(t, e.Headline(), "BUY (72, 4★, synthesizer)")
	assert.Contains(t, e.Headline(), "RESONANCE_LONG")
}

func TestArchiveSink_PublishAndHistory(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	sink := NewArchiveSink(store)
	ctx := context.Background()

	older := sampleEvaluation(time.Date(2024, 3, 7, 8, 0, 0, 0, time.UTC))
	newer := sampleEvaluation(time.Date(2024, 3, 8, 8, 0, 0, 0, time.UTC))
	require.NoError(t, sink.Publish(ctx, older))
	require.NoError(t, sink.Publish(ctx, newer))

	raw, err := store.Read(ctx, newer.ArchivePath())
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "600519.SH", decoded["symbol"])
	assert.Contains(t, decoded, "technical")
	assert.Contains(t, decoded, "committee")
	assert.Contains(t, decoded, "strategy")

	history, err := sink.History(ctx, "600519.SH", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer.ID, history[0].ID)
	assert.Equal(t, older.ID, history[1].ID)
	assert.Equal(t, strategy.ResonanceLong, history[0].Strategy.StrategyType)

	limited, err := sink.History(ctx, "600519.SH", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := sink.History(ctx, "AAPL", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

type fakeSink struct {
	name      string
	err       error
	panics    bool
	published []Evaluation
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Publish(ctx context.Context, e Evaluation) error {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, e)
	return nil
}

func TestPublisher_IsolatesFailures(t *testing.T) {
	reg := metrics.NewRegistry()
	bad := &fakeSink{name: "bad", err: errors.New("disk full")}
	crashy := &fakeSink{name: "crashy", panics: true}
	good := &fakeSink{name: "good"}

	p := NewPublisher([]Sink{bad, crashy, good}, time.Second, reg, nil)
	delivered := p.Publish(context.Background(), sampleEvaluation(time.Now()))

	assert.Equal(t, 1, delivered)
	assert.Len(t, good.published, 1)
	assert.Equal(t, float64(1), sinkCount(t, reg, "bad", "error"))
	assert.Equal(t, float64(1), sinkCount(t, reg, "crashy", "error"))
	assert.Equal(t, float64(1), sinkCount(t, reg, "good", "ok"))
	assert.Len(t, p.Sinks(), 3)
}

func TestPublisher_NoSinks(t *testing.T) {
	p := NewPublisher(nil, 0, nil, nil)
	assert.Equal(t, 0, p.Publish(context.Background(), sampleEvaluation(time.Now())))
}
