package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VideoDigest/internal/failure"
)

func newTestServer(t *testing.T, channelCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		channelCalls.Add(1)
		assert.Equal(t, "secret", r.Header.Get("X-Goog-Api-Key"))
		assert.Empty(t, r.URL.Query().Get("key"))
		if r.URL.Query().Get("id") != "UCgood" {
			_, _ = w.Write([]byte(`{"items":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"snippet":{"title":" Good Channel "},"contentDetails":{"relatedPlaylists":{"uploads":"UUgood"}}}]}`))
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UUgood", r.URL.Query().Get("playlistId"))
		assert.Equal(t, "6", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"items":[
			{"snippet":{"title":"First","publishedAt":"2026-03-04T11:58:00Z","resourceId":{"videoId":"v1"}},"contentDetails":{"videoId":"v1"}},
			{"snippet":{"title":"Broken date","publishedAt":"yesterday","resourceId":{"videoId":"v2"}},"contentDetails":{}},
			{"snippet":{"title":"No id"},"contentDetails":{}}
		]}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "v1":
			_, _ = w.Write([]byte(`{"items":[{"contentDetails":{"duration":"PT1H2M3S"}}]}`))
		case "quota":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"errors":[{"reason":"quotaExceeded"}]}}`))
		default:
			_, _ = w.Write([]byte(`{"items":[]}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientListsUploads(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	client := NewClient(Options{BaseURL: srv.URL, APIKey: "secret"}, srv.Client(), nil)

	items, err := client.ListRecentItems(context.Background(), "UCgood", 6)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "v1", items[0].ID)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "UCgood", items[0].SourceID)
	assert.Equal(t, time.Date(2026, time.March, 4, 11, 58, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, "v2", items[1].ID)
	assert.False(t, items[1].Dated())

	name, err := client.SourceDisplayName(context.Background(), "UCgood")
	require.NoError(t, err)
	assert.Equal(t, "Good Channel", name)
	assert.Equal(t, int32(1), calls.Load(), "channel lookup is cached")
}

func TestClientUnknownChannel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	client := NewClient(Options{BaseURL: srv.URL, APIKey: "secret"}, srv.Client(), nil)

	_, err := client.ListRecentItems(context.Background(), "UCmissing", 1)
	require.Error(t, err)
	assert.True(t, failure.IsPermanent(err))
}

func TestClientTransportErrorDoesNotLeakKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Options{BaseURL: srv.URL, APIKey: "SECRET-KEY-123"}, srv.Client(), nil)

	_, err := client.ListRecentItems(context.Background(), "UCx", 1)

	require.Error(t, err)
	assert.True(t, failure.IsTransient(err))
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestClientDuration(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	client := NewClient(Options{BaseURL: srv.URL, APIKey: "secret"}, srv.Client(), nil)

	d, err := client.ItemDuration(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, d)

	d, err = client.ItemDuration(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = client.ItemDuration(context.Background(), "quota")
	require.Error(t, err)
	assert.True(t, failure.IsTransient(err))
	assert.Contains(t, err.Error(), "quotaExceeded")
}

func TestParseISODuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{in: "PT45S", want: 45 * time.Second, ok: true},
		{in: "PT12M", want: 12 * time.Minute, ok: true},
		{in: "PT1H2M3S", want: time.Hour + 2*time.Minute + 3*time.Second, ok: true},
		{in: "P1DT5M", want: 24*time.Hour + 5*time.Minute, ok: true},
		{in: "P0D", want: 0, ok: true},
		{in: "PT", ok: false},
		{in: "12:00", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range tests {
		got, err := ParseISODuration(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
