package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/ports"
	"VideoDigest/internal/scanner"
)

// StrategySource implements ports.ItemSource by dispatching each channel to
// its configured scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	// strategies maps channel id to scanner name.
	strategies map[string]string
	fallback   string
	logger     *slog.Logger

	mu        sync.Mutex
	names     map[string]string
	itemOwner map[string]string
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with per-channel strategies.
// Channels missing from strategies use fallback.
func NewStrategySource(reg *scanner.Registry, strategies map[string]string, fallback string, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:   reg,
		strategies: strategies,
		fallback:   fallback,
		logger:     log,
		names:      map[string]string{},
		itemOwner:  map[string]string{},
	}
}

// ListRecentItems lists through the channel's strategy and remembers which
// channel each item came from so duration lookups reach the same strategy.
func (s *StrategySource) ListRecentItems(ctx context.Context, channelID string, limit int) ([]domain.Item, error) {
	strategy, err := s.strategyFor(channelID)
	if err != nil {
		return nil, err
	}

	s.debug("list channel", "channel_id", channelID, "scanner", strategy.Name(), "limit", limit)
	items, err := strategy.ListRecentItems(ctx, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan channel %s: %w", channelID, err)
	}

	s.mu.Lock()
	for i := range items {
		if items[i].SourceID == "" {
			items[i].SourceID = channelID
		}
		s.itemOwner[items[i].ID] = channelID
	}
	s.mu.Unlock()

	s.debug("channel produced items", "channel_id", channelID, "count", len(items))
	return items, nil
}

// ItemDuration asks the strategy that listed the item. Items never listed
// through this source have an unknown duration.
func (s *StrategySource) ItemDuration(ctx context.Context, itemID string) (time.Duration, error) {
	s.mu.Lock()
	channelID, ok := s.itemOwner[itemID]
	s.mu.Unlock()
	if !ok {
		return 0, nil
	}

	strategy, err := s.strategyFor(channelID)
	if err != nil {
		return 0, err
	}
	return strategy.ItemDuration(ctx, itemID)
}

// SourceDisplayName returns the cached channel title, resolving it once.
func (s *StrategySource) SourceDisplayName(ctx context.Context, channelID string) (string, error) {
	s.mu.Lock()
	name, ok := s.names[channelID]
	s.mu.Unlock()
	if ok {
		return name, nil
	}

	strategy, err := s.strategyFor(channelID)
	if err != nil {
		return "", err
	}
	name, err = strategy.SourceDisplayName(ctx, channelID)
	if err != nil {
		return "", err
	}
	if name != "" {
		s.mu.Lock()
		s.names[channelID] = name
		s.mu.Unlock()
	}
	return name, nil
}

func (s *StrategySource) strategyFor(channelID string) (scanner.Scanner, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	name := s.strategies[channelID]
	if name == "" {
		name = s.fallback
	}
	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}
	return strategy, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
