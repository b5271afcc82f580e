package factory

import (
	"testing"

	"github.com/newthinker/quorum/internal/config"
)

func TestNew_Claude(t *testing.T) {
	p, err := New(config.ProviderConfig{Type: "claude", APIKey: "test-key", Model: "claude-3-sonnet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "claude" {
		t.Errorf("expected claude provider, got %s", p.Name())
	}
}

func TestNew_OpenAI(t *testing.T) {
	p, err := New(config.ProviderConfig{Type: "openai", APIKey: "test-key", Model: "gpt-4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("expected openai provider, got %s", p.Name())
	}
}

func TestNew_Ollama(t *testing.T) {
	p, err := New(config.ProviderConfig{Type: "ollama", Endpoint: "http://localhost:11434", Model: "llama3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected ollama provider, got %s", p.Name())
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New(config.ProviderConfig{Type: "unknown"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_ClaudeMissingKey(t *testing.T) {
	if _, err := New(config.ProviderConfig{Type: "claude"}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewTiers(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: map[string]config.ProviderConfig{
			"gpt":   {Type: "openai", APIKey: "k"},
			"local": {Type: "ollama"},
		},
		Tiers: map[string]config.TierConfig{
			"fast":      {Primary: "gpt", Secondary: "local"},
			"reasoning": {Primary: "local"},
		},
	}

	tiers, err := NewTiers(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fast := tiers["fast"]
	if fast.Primary.Name() != "gpt" || fast.Secondary.Name() != "local" {
		t.Errorf("unexpected fast tier: %s / %s", fast.Primary.Name(), fast.Secondary.Name())
	}
	if tiers["reasoning"].Secondary != nil {
		t.Error("expected reasoning tier without secondary")
	}
}

func TestNewTiers_UnknownProvider(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: map[string]config.ProviderConfig{"local": {Type: "ollama"}},
		Tiers:     map[string]config.TierConfig{"fast": {Primary: "ghost"}},
	}
	if _, err := NewTiers(cfg); err == nil {
		t.Error("expected error for unknown tier provider")
	}
}

func TestNewTiers_BadProvider(t *testing.T) {
	cfg := config.LLMConfig{
		Providers: map[string]config.ProviderConfig{"c": {Type: "claude"}},
	}
	if _, err := NewTiers(cfg); err == nil {
		t.Error("expected error for provider without key")
	}
}
