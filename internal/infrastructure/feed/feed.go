// Package feed lists channel uploads from the public YouTube Atom feed. It
// needs no API key but exposes no durations.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/failure"
)

// ScannerName identifies the feed strategy in the scanner registry.
const ScannerName = "rss"

const guidPrefix = "yt:video:"

// Source reads https://www.youtube.com/feeds/videos.xml?channel_id=<id>.
type Source struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu    sync.Mutex
	names map[string]string
}

// NewSource wires an HTTP client; nil gets a 20s default.
func NewSource(baseURL string, client *http.Client, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
		names:   map[string]string{},
	}
}

// Name identifies the strategy inside the registry.
func (s *Source) Name() string {
	return ScannerName
}

// ListRecentItems returns at most limit feed entries in feed order.
func (s *Source) ListRecentItems(ctx context.Context, channelID string, limit int) ([]domain.Item, error) {
	parsed, err := s.fetch(ctx, channelID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		id := videoID(entry)
		if id == "" {
			continue
		}
		var published time.Time
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		}
		items = append(items, domain.Item{
			ID:          id,
			Title:       strings.TrimSpace(entry.Title),
			PublishedAt: published,
			SourceID:    channelID,
		})
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

// ItemDuration is unknown for feed entries.
func (s *Source) ItemDuration(context.Context, string) (time.Duration, error) {
	return 0, nil
}

// SourceDisplayName returns the feed title, fetching the feed once if needed.
func (s *Source) SourceDisplayName(ctx context.Context, channelID string) (string, error) {
	s.mu.Lock()
	name, ok := s.names[channelID]
	s.mu.Unlock()
	if ok {
		return name, nil
	}
	if _, err := s.fetch(ctx, channelID); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[channelID], nil
}

func (s *Source) fetch(ctx context.Context, channelID string) (*gofeed.Feed, error) {
	endpoint := s.baseURL + "?" + url.Values{"channel_id": {channelID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.ErrTransient, "feed", "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		marker := failure.ErrPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			marker = failure.ErrTransient
		}
		return nil, failure.Wrap(marker, "feed", fmt.Sprintf("channel %s returned %s", channelID, resp.Status), nil)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, failure.Wrap(failure.ErrMalformedResponse, "feed", "parse", err)
	}

	s.mu.Lock()
	s.names[channelID] = strings.TrimSpace(parsed.Title)
	s.mu.Unlock()
	s.logger.Debug("fetched channel feed", "channel_id", channelID, "entries", len(parsed.Items))
	return parsed, nil
}

// videoID prefers the yt:videoId extension and falls back to the entry id.
func videoID(entry *gofeed.Item) string {
	if yt, ok := entry.Extensions["yt"]; ok {
		if values := yt["videoId"]; len(values) > 0 {
			if id := strings.TrimSpace(values[0].Value); id != "" {
				return id
			}
		}
	}
	if strings.HasPrefix(entry.GUID, guidPrefix) {
		return strings.TrimPrefix(entry.GUID, guidPrefix)
	}
	return ""
}
