package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWebhookSink_Publish(t *testing.T) {
	var payload map[string]json.RawMessage
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, map[string]string{"Authorization": "Bearer x"})
	e := sampleEvaluation(time.Now())

	if err := sink.Publish(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer x" {
		t.Errorf("expected custom header, got %q", auth)
	}

	var got Evaluation
	if err := json.Unmarshal(payload["evaluation"], &got); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if got.ID != e.ID {
		t.Errorf("expected id %s, got %s", e.ID, got.ID)
	}
}

func TestWebhookSink_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, nil)
	if err := sink.Publish(context.Background(), sampleEvaluation(time.Now())); err == nil {
		t.Error("expected error for 502")
	}
}

func TestTelegramSink_Publish(t *testing.T) {
	var path string
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sink := NewTelegramSink("TOKEN", "42")
	sink.apiURL = server.URL

	if err := sink.Publish(context.Background(), sampleEvaluation(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Errorf("unexpected path %s", path)
	}
	if payload["chat_id"] != "42" {
		t.Errorf("unexpected chat id %v", payload["chat_id"])
	}
	text, _ := payload["text"].(string)
	if !strings.Contains(text, "Kweichow Moutai (600519.SH)") || !strings.Contains(text, "RESONANCE_LONG") {
		t.Errorf("unexpected digest %q", text)
	}
}

func TestTelegramSink_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	sink := NewTelegramSink("bad", "42")
	sink.apiURL = server.URL

	err := sink.Publish(context.Background(), sampleEvaluation(time.Now()))
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestFormatDigest(t *testing.T) {
	e := sampleEvaluation(time.Date(2024, 3, 8, 8, 0, 0, 0, time.UTC))
	text := formatDigest(e)

	for _, want := range []string{"📈", "BUY ★★★★☆", "Composite: 72/100", "health 68/100", "2024-03-08 08:00"} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q:\n%s", want, text)
		}
	}
}
