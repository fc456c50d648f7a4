package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/failure"
)

const (
	// ScannerName identifies the Data API strategy in the scanner registry.
	ScannerName = "api"

	// playlistItems.list rejects maxResults above 50.
	maxPageSize = 50
)

// Options configures the Data API client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client lists channel uploads through the YouTube Data API v3.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger

	mu       sync.Mutex
	channels map[string]channelInfo
}

type channelInfo struct {
	title   string
	uploads string
}

// NewClient wires an HTTP client; a nil client gets one with opts.Timeout.
func NewClient(opts Options, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		client:   client,
		logger:   logger,
		channels: map[string]channelInfo{},
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return ScannerName
}

// ListRecentItems returns the newest uploads of a channel, at most limit.
func (c *Client) ListRecentItems(ctx context.Context, channelID string, limit int) ([]domain.Item, error) {
	info, err := c.channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if info.uploads == "" {
		return nil, failure.Wrap(failure.ErrPermanent, "youtube", "channel has no uploads playlist", nil)
	}

	limit = max(1, min(limit, maxPageSize))
	query := url.Values{}
	query.Set("part", "snippet,contentDetails")
	query.Set("playlistId", info.uploads)
	query.Set("maxResults", strconv.Itoa(limit))

	var resp playlistItemsResponse
	if err := c.get(ctx, "playlistItems", query, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(resp.Items))
	for _, entry := range resp.Items {
		id := entry.ContentDetails.VideoID
		if id == "" {
			id = entry.Snippet.ResourceID.VideoID
		}
		if id == "" {
			continue
		}
		items = append(items, domain.Item{
			ID:          id,
			Title:       strings.TrimSpace(entry.Snippet.Title),
			PublishedAt: parsePublished(entry.Snippet.PublishedAt),
			SourceID:    channelID,
		})
	}
	c.logger.Debug("listed uploads", "channel_id", channelID, "count", len(items))
	return items, nil
}

// ItemDuration looks up videos.list contentDetails.duration. An unknown or
// unparsable duration is reported as zero.
func (c *Client) ItemDuration(ctx context.Context, videoID string) (time.Duration, error) {
	query := url.Values{}
	query.Set("part", "contentDetails")
	query.Set("id", videoID)

	var resp videosResponse
	if err := c.get(ctx, "videos", query, &resp); err != nil {
		return 0, err
	}
	if len(resp.Items) == 0 {
		return 0, nil
	}
	d, err := ParseISODuration(resp.Items[0].ContentDetails.Duration)
	if err != nil {
		c.logger.Debug("unparsable duration", "item_id", videoID, "error", err)
		return 0, nil
	}
	return d, nil
}

// SourceDisplayName returns the channel title.
func (c *Client) SourceDisplayName(ctx context.Context, channelID string) (string, error) {
	info, err := c.channel(ctx, channelID)
	if err != nil {
		return "", err
	}
	return info.title, nil
}

func (c *Client) channel(ctx context.Context, channelID string) (channelInfo, error) {
	c.mu.Lock()
	info, ok := c.channels[channelID]
	c.mu.Unlock()
	if ok {
		return info, nil
	}

	query := url.Values{}
	query.Set("part", "snippet,contentDetails")
	query.Set("id", channelID)

	var resp channelsResponse
	if err := c.get(ctx, "channels", query, &resp); err != nil {
		return channelInfo{}, err
	}
	if len(resp.Items) == 0 {
		return channelInfo{}, failure.Wrap(failure.ErrPermanent, "youtube", "channel "+channelID+" not found", nil)
	}

	info = channelInfo{
		title:   strings.TrimSpace(resp.Items[0].Snippet.Title),
		uploads: resp.Items[0].ContentDetails.RelatedPlaylists.Uploads,
	}
	c.mu.Lock()
	c.channels[channelID] = info
	c.mu.Unlock()
	return info, nil
}

func (c *Client) get(ctx context.Context, resource string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return failure.Wrap(failure.ErrTransient, "youtube", resource+" request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return classifyStatus(resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return failure.Wrap(failure.ErrMalformedResponse, "youtube", "decode "+resource, err)
	}
	return nil
}

// classifyStatus tags quota exhaustion, throttling and server faults as
// transient; other client errors will not fix themselves.
func classifyStatus(resource string, status int, body string) error {
	msg := fmt.Sprintf("%s returned %d: %s", resource, status, body)
	switch {
	case status == http.StatusForbidden, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return failure.Wrap(failure.ErrTransient, "youtube", msg, nil)
	default:
		return failure.Wrap(failure.ErrPermanent, "youtube", msg, nil)
	}
}

func parsePublished(value string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

type channelsResponse struct {
	Items []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}
