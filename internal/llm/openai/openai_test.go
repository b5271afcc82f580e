package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/quorum/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", p.model)
	}
}

func TestChat_AgainstCompatibleServer(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"score\": 70}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 11, "completion_tokens": 5, "total_tokens": 16}
		}`))
	}))
	defer srv.Close()

	p, err := New("test-key", "deepseek-chat", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := llm.UserPrompt("You are a growth analyst.", "Assess 600519.SH")
	req.JSONMode = true
	resp, err := p.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != `{"score": 70}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.InputTokens != 11 || resp.Usage.OutputTokens != 5 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
	if got["model"] != "deepseek-chat" {
		t.Errorf("expected model deepseek-chat, got %v", got["model"])
	}
	if _, ok := got["response_format"]; !ok {
		t.Error("expected response_format in JSON mode")
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("expected system and user messages, got %d", len(msgs))
	}
}

func TestChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	p, _ := New("test-key", "", srv.URL)
	if _, err := p.Chat(context.Background(), llm.UserPrompt("", "hi")); err == nil {
		t.Error("expected error on 500")
	}
}
