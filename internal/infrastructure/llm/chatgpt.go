package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"VideoDigest/internal/failure"
	"VideoDigest/internal/ports"
)

// ChatGPTOptions configures an OpenAI-compatible chat completions endpoint.
type ChatGPTOptions struct {
	Endpoint     string
	Model        string
	APIKey       string
	Temperature  float64
	SystemPrompt string
	Timeout      time.Duration
}

// ChatGPTClient implements ports.Generator backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	opts       ChatGPTOptions
	httpClient *http.Client
}

var _ ports.Generator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(opts ChatGPTOptions, client *http.Client) *ChatGPTClient {
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ChatGPTClient{opts: opts, httpClient: client}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate posts the composed prompt as a user message.
func (c *ChatGPTClient) Generate(ctx context.Context, prompt, transcript string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.opts.APIKey == "" || c.opts.Endpoint == "" || c.opts.Model == "" {
		return "", failure.Wrap(failure.ErrPermanent, "chatgpt", "client misconfigured", nil)
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.opts.Model,
		"temperature": c.opts.Temperature,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.opts.SystemPrompt)},
			{"role": "user", "content": ComposePrompt(prompt, transcript)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", failure.Wrap(failure.ErrTransient, "chatgpt", "send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", classifyStatus("chatgpt", resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", failure.Wrap(failure.ErrMalformedResponse, "chatgpt", "decode response", err)
	}
	if len(out.Choices) == 0 {
		return "", failure.Wrap(failure.ErrMalformedResponse, "chatgpt", "no choices", nil)
	}

	choice := out.Choices[0]
	if choice.FinishReason == "content_filter" || strings.TrimSpace(choice.Message.Refusal) != "" {
		return "", failure.Wrap(failure.ErrContentBlocked, "chatgpt", "refused: "+choice.Message.Refusal, nil)
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", failure.Wrap(failure.ErrMalformedResponse, "chatgpt", "empty completion", nil)
	}
	return text, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant that summarizes video transcripts."
	}
	return prompt
}
