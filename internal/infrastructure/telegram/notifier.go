package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"VideoDigest/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Reporter sends run summaries to a Telegram chat via bot API.
type Reporter struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.RunReporter = (*Reporter)(nil)

// NewReporter registers bot token and chat identifier.
func NewReporter(botToken, chatID string) *Reporter {
	return &Reporter{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether both token and chat are configured.
func (r *Reporter) Enabled() bool {
	return r != nil && r.botToken != "" && r.chatID != ""
}

// PublishReport posts a plain-text message to the chat.
func (r *Reporter) PublishReport(ctx context.Context, text string) error {
	if !r.Enabled() || r.client == nil {
		return fmt.Errorf("telegram reporter misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(r.apiBase, "/"), r.botToken)
	form := url.Values{}
	form.Set("chat_id", r.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
