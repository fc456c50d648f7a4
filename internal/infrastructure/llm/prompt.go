package llm

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"VideoDigest/internal/failure"
)

// TranscriptPlaceholder marks where the transcript goes inside a prompt.
const TranscriptPlaceholder = "{transcript}"

// ComposePrompt substitutes the transcript into prompt, appending it after a
// blank line when the placeholder is missing.
func ComposePrompt(prompt, transcript string) string {
	if strings.Contains(prompt, TranscriptPlaceholder) {
		return strings.ReplaceAll(prompt, TranscriptPlaceholder, transcript)
	}
	prompt = strings.TrimRight(prompt, "\n")
	if prompt == "" {
		return transcript
	}
	return prompt + "\n\n" + transcript
}

// classifyStatus maps a non-2xx provider response to a failure marker.
func classifyStatus(op string, resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(payload)))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode >= http.StatusInternalServerError:
		return failure.Wrap(failure.ErrTransient, op, msg, nil)
	default:
		return failure.Wrap(failure.ErrPermanent, op, msg, nil)
	}
}
