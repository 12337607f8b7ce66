package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalog-sync/internal/config"
)

type telegramRequest struct {
	ChatId string `json:"chat_id"`
	Text   string `json:"text"`
}

const (
	iconError   = "❌"
	iconWarning = "⚠️"
	iconSuccess = "✅"
)

type telegramSink struct {
	creds      config.TelegramBotConfig
	baseUrl    string
	httpClient *http.Client
}

func newTelegramSink(cfg config.TelegramBotConfig) *telegramSink {
	if cfg.ChatId == "" || cfg.Token == "" {
		return nil
	}
	return &telegramSink{
		creds:      cfg,
		baseUrl:    "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func formatMessage(icon, level, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		v = "-"
	}
	return fmt.Sprintf("%s %s: %s", icon, level, v)
}

func (t *telegramSink) send(ctx context.Context, value string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseUrl, t.creds.Token)

	bodyBytes, err := json.Marshal(telegramRequest{
		ChatId: t.creds.ChatId,
		Text:   value,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send failed: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}
