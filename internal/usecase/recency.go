package usecase

import (
	"slices"
	"time"

	"VideoDigest/internal/domain"
)

// FilterRecent keeps items published at or after now-window, newest first.
// Items without a usable timestamp are dropped rather than treated as recent.
func FilterRecent(items []domain.Item, window time.Duration, now time.Time) []domain.Item {
	cutoff := now.Add(-window)
	recent := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if !item.Dated() {
			continue
		}
		if item.PublishedAt.Before(cutoff) {
			continue
		}
		recent = append(recent, item)
	}

	slices.SortStableFunc(recent, func(a, b domain.Item) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return recent
}
