package factory

import (
	"fmt"
	"sort"

	"github.com/newthinker/quorum/internal/config"
	"github.com/newthinker/quorum/internal/llm"
	"github.com/newthinker/quorum/internal/llm/claude"
	"github.com/newthinker/quorum/internal/llm/ollama"
	"github.com/newthinker/quorum/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg config.ProviderConfig) (llm.Provider, error) {
	switch cfg.Type {
	case "claude":
		return claude.New(cfg.APIKey, cfg.Model, cfg.Endpoint)
	case "openai":
		return openai.New(cfg.APIKey, cfg.Model, cfg.Endpoint)
	case "ollama":
		return ollama.New(cfg.Endpoint, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Type)
	}
}

// NewTiers builds every configured provider once and groups them into tiers.
// Providers report their configuration key as their name.
func NewTiers(cfg config.LLMConfig) (llm.Tiers, error) {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	providers := make(map[string]llm.Provider, len(names))
	for _, name := range names {
		p, err := New(cfg.Providers[name])
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		providers[name] = llm.WithName(p, name)
	}

	tiers := make(llm.Tiers, len(cfg.Tiers))
	for name, t := range cfg.Tiers {
		primary, ok := providers[t.Primary]
		if !ok {
			return nil, fmt.Errorf("tier %s: unknown primary provider %q", name, t.Primary)
		}
		tier := llm.Tier{Name: name, Primary: primary}
		if t.Secondary != "" {
			secondary, ok := providers[t.Secondary]
			if !ok {
				return nil, fmt.Errorf("tier %s: unknown secondary provider %q", name, t.Secondary)
			}
			tier.Secondary = secondary
		}
		tiers[name] = tier
	}
	return tiers, nil
}
