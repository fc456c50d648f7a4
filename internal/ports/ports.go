package ports

import (
	"context"
	"time"

	"VideoDigest/internal/domain"
)

// ItemSource lists recently published items for a channel.
type ItemSource interface {
	ListRecentItems(ctx context.Context, sourceID string, limit int) ([]domain.Item, error)
	// ItemDuration returns zero with a nil error when the duration is unknown.
	ItemDuration(ctx context.Context, itemID string) (time.Duration, error)
	SourceDisplayName(ctx context.Context, sourceID string) (string, error)
}

// TranscriptProvider returns usable transcript text. An error marked
// failure.ErrUnavailable means the item has no transcript at all.
type TranscriptProvider interface {
	Transcript(ctx context.Context, itemID string) (string, error)
}

// Generator turns a prompt template plus transcript into one text artifact.
// Errors carry a failure marker (blocked, malformed, transient, permanent).
type Generator interface {
	Generate(ctx context.Context, prompt, sourceText string) (string, error)
}

// ArtifactStore persists the generated sections for one item and returns the
// location written.
type ArtifactStore interface {
	WriteArtifact(ctx context.Context, details domain.ItemDetails) (string, error)
}

// Notifier delivers the formatted summary of one item to recipients.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, details domain.ItemDetails) error
}

// ProcessedStore loads and saves the processed-id set. Load never fails: a
// missing or unreadable store yields an empty set.
type ProcessedStore interface {
	Load(ctx context.Context) domain.ProcessedSet
	Save(ctx context.Context, set domain.ProcessedSet) error
}

// RunReporter publishes end-of-run summaries to an operator channel.
type RunReporter interface {
	PublishReport(ctx context.Context, text string) error
}

// RunLock guards the processed-set load-modify-save cycle across processes.
type RunLock interface {
	TryLock() (bool, error)
	Unlock() error
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
