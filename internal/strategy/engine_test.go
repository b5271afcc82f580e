package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/newthinker/quorum/internal/config"
	"github.com/newthinker/quorum/internal/core"
	"github.com/newthinker/quorum/internal/opinion"
)

type mockAsker struct {
	reply opinion.Reply
	panic bool
	last  opinion.Request
	calls int
}

func (m *mockAsker) Ask(_ context.Context, req opinion.Request) opinion.Reply {
	m.calls++
	m.last = req
	if m.panic {
		panic("boom")
	}
	return m.reply
}

const validReply = `{"strategy_type":"value_accumulation","title":"Accumulate","position_suggest":"20%","action_guide":"buy dips","risk_warning":"trend down","time_frame":"6-12 months","conviction":7,"rationale":"cheap quality"}`

func llmConfig() config.StrategyConfig {
	return config.StrategyConfig{UseLLM: true, Tier: "reasoning"}
}

var (
	strongTech = View{Action: core.ActionBuy, Score: 75}
	strongFund = View{Action: core.ActionBuy, Score: 80}
	weakTech   = View{Action: core.ActionSell, Score: 30}
)

func TestDecide_LLM(t *testing.T) {
	a := &mockAsker{reply: opinion.Reply{Text: "```json\n" + validReply + "\n```", Backend: "claude"}}
	e := NewEngine(llmConfig(), a, nil, nil, nil)

	d := e.Decide(context.Background(), weakTech, strongFund)

	if d.Source != SourceLLM || d.StrategyType != ValueAccumulation {
		t.Fatalf("expected llm VALUE_ACCUMULATION, got %+v", d)
	}
	if d.Conviction != 5 {
		t.Errorf("expected conviction clamped to 5, got %d", d.Conviction)
	}
	if a.last.Tier != "reasoning" || !a.last.JSONMode {
		t.Errorf("unexpected request %+v", a.last)
	}
}

func TestDecide_LLMOversizedConviction(t *testing.T) {
	reply := strings.Replace(validReply, `"conviction":7`, `"conviction":1e19`, 1)
	e := NewEngine(llmConfig(), &mockAsker{reply: opinion.Reply{Text: reply}}, nil, nil, nil)

	d := e.Decide(context.Background(), weakTech, strongFund)
	if d.Source != SourceLLM {
		t.Fatalf("expected llm decision, got %+v", d)
	}
	if d.Conviction != 5 {
		t.Errorf("expected conviction clamped to 5, got %d", d.Conviction)
	}
}

func TestDecide_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		reply opinion.Reply
	}{
		{"unavailable", opinion.Reply{Err: core.WrapError(core.ErrBackendUnavailable, errors.New("down"))}},
		{"not json", opinion.Reply{Text: "Go long, obviously."}},
		{"unknown type", opinion.Reply{Text: `{"strategy_type":"MOON","title":"t","position_suggest":"p","action_guide":"a","risk_warning":"r","time_frame":"f","conviction":3,"rationale":"x"}`}},
		{"missing field", opinion.Reply{Text: `{"strategy_type":"AVOID","title":"t","position_suggest":"p","action_guide":"a","time_frame":"f","conviction":3,"rationale":"x"}`}},
		{"empty field", opinion.Reply{Text: `{"strategy_type":"AVOID","title":"","position_suggest":"p","action_guide":"a","risk_warning":"r","time_frame":"f","conviction":3,"rationale":"x"}`}},
		{"missing conviction", opinion.Reply{Text: `{"strategy_type":"AVOID","title":"t","position_suggest":"p","action_guide":"a","risk_warning":"r","time_frame":"f","rationale":"x"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(llmConfig(), &mockAsker{reply: tt.reply}, nil, nil, nil)
			d := e.Decide(context.Background(), strongTech, strongFund)
			if d.Source != SourceRules || d.StrategyType != ResonanceLong {
				t.Errorf("expected rules RESONANCE_LONG, got %s/%s", d.Source, d.StrategyType)
			}
		})
	}
}

func TestDecide_RecoversPanic(t *testing.T) {
	e := NewEngine(llmConfig(), &mockAsker{panic: true}, nil, nil, nil)
	d := e.Decide(context.Background(), strongTech, View{Score: 20})
	if d.Source != SourceRules || d.StrategyType != SpeculativeRebound {
		t.Errorf("expected rules SPECULATIVE_REBOUND after panic, got %+v", d)
	}
}

func TestDecide_RulesOnly(t *testing.T) {
	a := &mockAsker{reply: opinion.Reply{Text: validReply}}
	e := NewEngine(config.StrategyConfig{UseLLM: false}, a, nil, nil, nil)

	d := e.Decide(context.Background(), strongTech, strongFund)
	if a.calls != 0 {
		t.Error("asker should not be used when use_llm is off")
	}
	if d.Source != SourceRules || d.StrategyType != ResonanceLong {
		t.Errorf("unexpected decision %+v", d)
	}
}

func TestDecide_NilAsker(t *testing.T) {
	e := NewEngine(llmConfig(), nil, nil, nil, nil)
	if d := e.Decide(context.Background(), weakTech, weakTech); d.StrategyType != Avoid {
		t.Errorf("expected AVOID, got %s", d.StrategyType)
	}
}
