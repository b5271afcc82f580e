package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/core"
)

const telegramAPI = "https://api.telegram.org"

// TelegramSink sends a short Markdown digest of each evaluation to a chat.
type TelegramSink struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

func NewTelegramSink(botToken, chatID string) *TelegramSink {
	return &TelegramSink{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   telegramAPI,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *TelegramSink) Name() string { return "telegram" }

func (t *TelegramSink) Publish(ctx context.Context, e Evaluation) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       formatDigest(e),
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result["description"])
	}
	return nil
}

func formatDigest(e Evaluation) string {
	var sb strings.Builder

	emoji := "⏸️"
	switch {
	case e.Committee.Verdict.IsBullish():
		emoji = "📈"
	case e.Committee.Verdict.IsBearish():
		emoji = "📉"
	}

	name := e.Symbol
	if e.Name != "" && e.Name != e.Symbol {
		name = fmt.Sprintf("%s (%s)", e.Name, e.Symbol)
	}

	fmt.Fprintf(&sb, "%s *%s* - %s %s\n", emoji, name, e.Committee.Verdict, stars(e.Committee.ConvictionStars))
	fmt.Fprintf(&sb, "📊 Composite: %d/100", e.Committee.CompositeScore)
	if e.Technical != nil {
		fmt.Fprintf(&sb, ", health %d/100 (%s)", e.Technical.HealthScore, e.Technical.ActionSignal)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "🎯 Strategy: %s - %s\n", e.Strategy.StrategyType, e.Strategy.Title)
	if e.Strategy.PositionSuggest != "" {
		fmt.Fprintf(&sb, "💰 Position: %s\n", e.Strategy.PositionSuggest)
	}
	if e.Strategy.RiskWarning != "" {
		fmt.Fprintf(&sb, "⚠️ Risk: %s\n", e.Strategy.RiskWarning)
	}
	fmt.Fprintf(&sb, "⏰ %s", e.GeneratedAt.Format("2006-01-02 15:04"))
	return sb.String()
}

func stars(n int) string {
	n = core.ClampStars(n)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
