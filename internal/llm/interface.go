package llm

import "context"

// Provider is an opinion backend: anything that turns a prompt into text.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, content string) ChatRequest {
	return ChatRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: "user", Content: content}},
	}
}

// Tier is a named primary/secondary backend pair. Secondary may be nil.
type Tier struct {
	Name      string
	Primary   Provider
	Secondary Provider
}

// Tiers maps tier names ("reasoning", "fast") to backend pairs.
type Tiers map[string]Tier

// named overrides a provider's reported name with its configured key.
type named struct {
	Provider
	name string
}

func (n named) Name() string { return n.name }

// WithName reports p under name. An empty name returns p unchanged.
func WithName(p Provider, name string) Provider {
	if p == nil || name == "" {
		return p
	}
	return named{Provider: p, name: name}
}
