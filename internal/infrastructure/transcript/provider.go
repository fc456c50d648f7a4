package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"VideoDigest/internal/failure"
	"VideoDigest/internal/ports"
	"VideoDigest/pkg/retry"
)

// Watch pages embed the player response; captionTracks is a JSON array
// inside it.
const captionTracksKey = `"captionTracks":`

// Options configures caption retrieval.
type Options struct {
	WatchURL   string
	Languages  []string
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
	// Sleep overrides the wait between attempts.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Provider fetches captions from the public watch page.
type Provider struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

var _ ports.TranscriptProvider = (*Provider)(nil)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

// NewProvider wires an HTTP client; nil gets one with opts.Timeout.
func NewProvider(opts Options, client *http.Client, logger *slog.Logger) *Provider {
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"en", "en-US", "en-GB"}
	}
	return &Provider{opts: opts, client: client, logger: logger}
}

// Transcript returns the joined caption text. Missing captions come back
// marked failure.ErrUnavailable. Captions that are listed but do not parse
// yet are retried, since they often are not ready right after upload.
func (p *Provider) Transcript(ctx context.Context, videoID string) (string, error) {
	track, err := p.selectTrack(ctx, videoID)
	if err != nil {
		return "", err
	}

	var text string
	err = retry.Do(ctx, retry.Config{
		MaxAttempts: p.opts.Attempts,
		Delay:       p.opts.RetryDelay,
		IsRetryable: failure.IsRetryable,
		Sleep:       p.opts.Sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			p.logger.Warn("transcript not ready",
				"item_id", videoID,
				"attempt", attempt,
				"max_attempts", p.opts.Attempts,
				"retry_in", delay,
				"error", err)
		},
	}, func(ctx context.Context) error {
		out, err := p.fetchTrack(ctx, track)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	switch {
	case err == nil:
		p.logger.Info("fetched transcript", "item_id", videoID, "language", track.LanguageCode, "generated", track.generated())
		return text, nil
	case failure.IsInterrupted(err):
		return "", failure.Wrap(failure.ErrTransient, "transcript", "interrupted", err)
	case errors.Is(err, failure.ErrMalformedResponse):
		return "", failure.Wrap(failure.ErrUnavailable, "transcript", "captions never became readable", err)
	default:
		return "", err
	}
}

func (p *Provider) selectTrack(ctx context.Context, videoID string) (captionTrack, error) {
	page, err := p.get(ctx, p.opts.WatchURL+"?"+url.Values{"v": {videoID}}.Encode())
	if err != nil {
		return captionTrack{}, err
	}

	idx := bytes.Index(page, []byte(captionTracksKey))
	if idx < 0 {
		return captionTrack{}, failure.Wrap(failure.ErrUnavailable, "transcript", "no caption tracks", nil)
	}
	var tracks []captionTrack
	dec := json.NewDecoder(bytes.NewReader(page[idx+len(captionTracksKey):]))
	if err := dec.Decode(&tracks); err != nil {
		return captionTrack{}, failure.Wrap(failure.ErrUnavailable, "transcript", "unreadable caption track list", err)
	}

	track, ok := pickTrack(tracks, p.opts.Languages)
	if !ok {
		return captionTrack{}, failure.Wrap(failure.ErrUnavailable, "transcript",
			"no caption track for languages "+strings.Join(p.opts.Languages, ","), nil)
	}
	return track, nil
}

// pickTrack walks languages in preference order and prefers manually
// created tracks over generated ones for the same language.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, generated := range []bool{false, true} {
		for _, lang := range languages {
			for _, track := range tracks {
				if track.BaseURL != "" && track.generated() == generated && strings.EqualFold(track.LanguageCode, lang) {
					return track, true
				}
			}
		}
	}
	return captionTrack{}, false
}

func (p *Provider) fetchTrack(ctx context.Context, track captionTrack) (string, error) {
	body, err := p.get(ctx, track.BaseURL)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", failure.Wrap(failure.ErrMalformedResponse, "transcript", "empty caption body", nil)
	}
	return ParseTimedText(string(body))
}

// ParseTimedText joins the <text> bodies of a timed-text document with single
// spaces.
func ParseTimedText(doc string) (string, error) {
	if !strings.Contains(doc, "<text") {
		return "", failure.Wrap(failure.ErrMalformedResponse, "transcript", "caption body has no text elements", nil)
	}
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", failure.Wrap(failure.ErrMalformedResponse, "transcript", "parse captions", err)
	}

	var parts []string
	parsed.Find("text").Each(func(_ int, s *goquery.Selection) {
		// Caption bodies are entity-escaped twice.
		line := strings.Join(strings.Fields(html.UnescapeString(s.Text())), " ")
		if line != "" {
			parts = append(parts, line)
		}
	})
	if len(parts) == 0 {
		return "", failure.Wrap(failure.ErrMalformedResponse, "transcript", "caption body is blank", nil)
	}
	return strings.Join(parts, " "), nil
}

func (p *Provider) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.ErrTransient, "transcript", "request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, failure.Wrap(failure.ErrUnavailable, "transcript", "video page not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return nil, failure.Wrap(failure.ErrTransient, "transcript", "upstream returned "+resp.Status, nil)
	case resp.StatusCode != http.StatusOK:
		return nil, failure.Wrap(failure.ErrPermanent, "transcript", "upstream returned "+resp.Status, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Wrap(failure.ErrTransient, "transcript", "read body", err)
	}
	return body, nil
}
