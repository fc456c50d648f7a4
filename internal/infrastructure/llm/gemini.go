package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"VideoDigest/internal/failure"
	"VideoDigest/internal/ports"
)

// Finish and block reasons that mean the provider refused the input.
var blockedReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

// GeminiOptions configures the Gemini REST client.
type GeminiOptions struct {
	Endpoint       string
	Model          string
	APIKey         string
	Temperature    float64
	SafetySettings map[string]string
	Timeout        time.Duration
}

// GeminiClient implements ports.Generator with models/{model}:generateContent.
type GeminiClient struct {
	opts       GeminiOptions
	httpClient *http.Client
}

var _ ports.Generator = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(opts GeminiOptions, client *http.Client) *GeminiClient {
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	return &GeminiClient{opts: opts, httpClient: client}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent       `json:"contents"`
	GenerationConfig map[string]any        `json:"generationConfig,omitempty"`
	SafetySettings   []geminiSafetySetting `json:"safetySettings,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends one prompt with the transcript substituted in.
func (c *GeminiClient) Generate(ctx context.Context, prompt, transcript string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("gemini client is nil")
	}
	if c.opts.APIKey == "" || c.opts.Endpoint == "" || c.opts.Model == "" {
		return "", failure.Wrap(failure.ErrPermanent, "gemini", "client misconfigured", nil)
	}

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: ComposePrompt(prompt, transcript)}}}},
		GenerationConfig: map[string]any{"temperature": c.opts.Temperature},
		SafetySettings:   c.safetySettings(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.opts.Endpoint, url.PathEscape(c.opts.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.opts.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", failure.Wrap(failure.ErrTransient, "gemini", "send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", classifyStatus("gemini", resp)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", failure.Wrap(failure.ErrMalformedResponse, "gemini", "decode response", err)
	}
	return extractGeminiText(out)
}

func extractGeminiText(out geminiResponse) (string, error) {
	if reason := out.PromptFeedback.BlockReason; reason != "" {
		return "", failure.Wrap(failure.ErrContentBlocked, "gemini", "prompt blocked: "+reason, nil)
	}
	if len(out.Candidates) == 0 {
		return "", failure.Wrap(failure.ErrMalformedResponse, "gemini", "no candidates", nil)
	}

	candidate := out.Candidates[0]
	if blockedReasons[candidate.FinishReason] {
		return "", failure.Wrap(failure.ErrContentBlocked, "gemini", "finish reason "+candidate.FinishReason, nil)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", failure.Wrap(failure.ErrMalformedResponse, "gemini", "empty candidate text", nil)
	}
	return text, nil
}

func (c *GeminiClient) safetySettings() []geminiSafetySetting {
	if len(c.opts.SafetySettings) == 0 {
		return nil
	}
	categories := make([]string, 0, len(c.opts.SafetySettings))
	for category := range c.opts.SafetySettings {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	settings := make([]geminiSafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, geminiSafetySetting{
			Category:  category,
			Threshold: c.opts.SafetySettings[category],
		})
	}
	return settings
}
