package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/scanner"
)

type stubScanner struct {
	name      string
	items     []domain.Item
	duration  time.Duration
	title     string
	nameErr   error
	nameCalls int
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) ListRecentItems(context.Context, string, int) ([]domain.Item, error) {
	return append([]domain.Item(nil), s.items...), nil
}

func (s *stubScanner) ItemDuration(context.Context, string) (time.Duration, error) {
	return s.duration, nil
}

func (s *stubScanner) SourceDisplayName(context.Context, string) (string, error) {
	s.nameCalls++
	return s.title, s.nameErr
}

func newRegistry(scanners ...scanner.Scanner) *scanner.Registry {
	reg := scanner.NewRegistry()
	for _, s := range scanners {
		reg.Register(s)
	}
	return reg
}

func TestStrategySourceDispatchesPerChannel(t *testing.T) {
	t.Parallel()

	api := &stubScanner{name: "api", items: []domain.Item{{ID: "a1"}}, duration: 10 * time.Minute, title: "API Channel"}
	rss := &stubScanner{name: "rss", items: []domain.Item{{ID: "r1"}}, title: "Feed Channel"}
	src := NewStrategySource(newRegistry(api, rss), map[string]string{"UCfeed": "rss"}, "api", nil)

	apiItems, err := src.ListRecentItems(context.Background(), "UCapi", 3)
	require.NoError(t, err)
	require.Len(t, apiItems, 1)
	assert.Equal(t, "UCapi", apiItems[0].SourceID)

	rssItems, err := src.ListRecentItems(context.Background(), "UCfeed", 3)
	require.NoError(t, err)
	assert.Equal(t, "r1", rssItems[0].ID)

	d, err := src.ItemDuration(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)

	d, err = src.ItemDuration(context.Background(), "r1")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = src.ItemDuration(context.Background(), "never-listed")
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestStrategySourceCachesDisplayNames(t *testing.T) {
	t.Parallel()

	api := &stubScanner{name: "api", title: "API Channel"}
	src := NewStrategySource(newRegistry(api), nil, "api", nil)

	for range 3 {
		name, err := src.SourceDisplayName(context.Background(), "UCapi")
		require.NoError(t, err)
		assert.Equal(t, "API Channel", name)
	}
	assert.Equal(t, 1, api.nameCalls)
}

func TestStrategySourceErrors(t *testing.T) {
	t.Parallel()

	api := &stubScanner{name: "api", nameErr: errors.New("quotaExceeded")}
	src := NewStrategySource(newRegistry(api), map[string]string{"UCx": "podcast"}, "api", nil)

	_, err := src.ListRecentItems(context.Background(), "UCx", 1)
	assert.ErrorContains(t, err, "scanner podcast is not registered")

	_, err = src.SourceDisplayName(context.Background(), "UCy")
	assert.ErrorContains(t, err, "quotaExceeded")
}
