package app

import (
	"context"
	"fmt"
	"log/slog"

	"VideoDigest/internal/config"
	"VideoDigest/internal/infrastructure/runlock"
)

// ListProcessed returns the stored ids, sorted.
func ListProcessed(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]string, error) {
	store, closer, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}
	return store.Load(ctx).IDs(), nil
}

// ForgetProcessed removes ids from the processed set under the run lock so
// the next run reconsiders them. It returns the ids that were present.
func ForgetProcessed(ctx context.Context, cfg config.Config, logger *slog.Logger, ids []string) ([]string, error) {
	lock := runlock.New(cfg.Storage.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() { _ = lock.Unlock() }()

	store, closer, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	set := store.Load(ctx)
	var removed []string
	for _, id := range ids {
		if set.Remove(id) {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := store.Save(ctx, set); err != nil {
		return nil, fmt.Errorf("save processed ids: %w", err)
	}
	return removed, nil
}
