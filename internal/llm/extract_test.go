package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/quorum/internal/core"
)

func TestDecodeJSON_InvalidStrictBodyLeavesNoResidue(t *testing.T) {
	var got map[string]any
	// The whole reply starts like an object but is not valid JSON; the
	// recovered object must be the only thing decoded.
	err := DecodeJSON(`{"stale": 1, "score": } {"score": 7}`, &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got["score"] != 7.0 {
		t.Errorf("expected only the recovered object, got %v", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		key     string
		want    any
		wantErr bool
	}{
		{name: "plain", input: `{"score": 72}`, key: "score", want: 72.0},
		{name: "json fence", input: "```json\n{\"decision\": \"BUY\"}\n```", key: "decision", want: "BUY"},
		{name: "bare fence", input: "```\n{\"decision\": \"SELL\"}\n```", key: "decision", want: "SELL"},
		{name: "prose around", input: "Here is my view:\n{\"score\": 40} hope it helps", key: "score", want: 40.0},
		{name: "nested", input: `result: {"a": {"b": 1}, "score": 9}`, key: "score", want: 9.0},
		{name: "brace in string", input: `note {"summary": "use } and { freely", "score": 3} end`, key: "summary", want: "use } and { freely"},
		{name: "escaped quote", input: `{"summary": "he said \"}\"", "score": 1}`, key: "summary", want: `he said "}"`},
		{name: "skips invalid candidate", input: `{not json} then {"score": 5}`, key: "score", want: 5.0},
		{name: "earlier code fence", input: "Working:\n```python\nx = prices[-5:]\n```\nFinal answer: {\"decision\": \"BUY\", \"score\": 70}", key: "score", want: 70.0},
		{name: "fence after prose", input: "Here you go:\n```json\n{\"decision\": \"HOLD\"}\n```", key: "decision", want: "HOLD"},
		{name: "fence without object", input: "```\nno json\n```", wantErr: true},
		{name: "no object", input: "I cannot answer that.", wantErr: true},
		{name: "unbalanced", input: `{"score": 5`, wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				if !errors.Is(err, core.ErrParse) {
					t.Errorf("expected ErrParse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got[tt.key], tt.want)
			}
		})
	}
}

func TestDecodeJSON_Struct(t *testing.T) {
	var out struct {
		Verdict string `json:"verdict"`
		Stars   int    `json:"conviction_stars"`
	}
	err := DecodeJSON("```json\n{\"verdict\":\"HOLD\",\"conviction_stars\":3}\n```", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Verdict != "HOLD" || out.Stars != 3 {
		t.Errorf("unexpected decode %+v", out)
	}
}

func TestFields(t *testing.T) {
	m := map[string]any{"s": "  x ", "n": 12.5, "ns": "42", "bad": "abc", "inf": "+Inf", "nan": "NaN"}

	if got := StringField(m, "s"); got != "x" {
		t.Errorf("StringField = %q", got)
	}
	if got := StringField(m, "n"); got != "12.5" {
		t.Errorf("StringField number = %q", got)
	}
	if got := StringField(m, "missing"); got != "" {
		t.Errorf("StringField missing = %q", got)
	}
	if v, ok := NumberField(m, "ns"); !ok || v != 42 {
		t.Errorf("NumberField string = %v %v", v, ok)
	}
	if _, ok := NumberField(m, "bad"); ok {
		t.Error("expected non-numeric string to fail")
	}
	for _, key := range []string{"inf", "nan"} {
		if _, ok := NumberField(m, key); ok {
			t.Errorf("expected non-finite %s to fail", key)
		}
	}
}

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }
func (s stubProvider) Chat(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Content: "ok"}, nil
}

func TestWithName(t *testing.T) {
	p := WithName(stubProvider{name: "openai"}, "gpt")
	if p.Name() != "gpt" {
		t.Errorf("expected gpt, got %s", p.Name())
	}
	if WithName(stubProvider{name: "openai"}, "").Name() != "openai" {
		t.Error("empty name should keep provider name")
	}
	if WithName(nil, "x") != nil {
		t.Error("nil provider should stay nil")
	}
}
