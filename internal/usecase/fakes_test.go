package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/failure"
)

func noSleep(context.Context, time.Duration) error { return nil }

type fakeSource struct {
	items     map[string][]domain.Item
	listErr   map[string]error
	durations map[string]time.Duration
	names     map[string]string
	limits    []int
}

func (f *fakeSource) ListRecentItems(_ context.Context, sourceID string, limit int) ([]domain.Item, error) {
	f.limits = append(f.limits, limit)
	if err := f.listErr[sourceID]; err != nil {
		return nil, err
	}
	return append([]domain.Item(nil), f.items[sourceID]...), nil
}

func (f *fakeSource) ItemDuration(_ context.Context, itemID string) (time.Duration, error) {
	return f.durations[itemID], nil
}

func (f *fakeSource) SourceDisplayName(_ context.Context, sourceID string) (string, error) {
	if name, ok := f.names[sourceID]; ok {
		return name, nil
	}
	return "", errors.New("channel not found")
}

type fakeTranscripts struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeTranscripts) Transcript(_ context.Context, itemID string) (string, error) {
	f.calls = append(f.calls, itemID)
	if err := f.errs[itemID]; err != nil {
		return "", err
	}
	if text, ok := f.texts[itemID]; ok {
		return text, nil
	}
	return "", failure.Wrap(failure.ErrUnavailable, "transcript", "no captions", nil)
}

// fakeGenerator answers by prompt. errs queues failures returned once each
// before any success; fail makes every call for the prompt fail.
type fakeGenerator struct {
	mu    sync.Mutex
	errs  map[string][]error
	fail  map[string]error
	calls map[string]int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt, sourceText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[prompt]++
	if err := f.fail[prompt]; err != nil {
		return "", err
	}
	if queue := f.errs[prompt]; len(queue) > 0 {
		f.errs[prompt] = queue[1:]
		return "", queue[0]
	}
	return "## " + prompt + "\n" + sourceText, nil
}

func (f *fakeGenerator) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeArtifacts struct {
	err     error
	written []domain.ItemDetails
}

func (f *fakeArtifacts) WriteArtifact(_ context.Context, details domain.ItemDetails) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, details)
	return "output/" + details.Item.ID + ".txt", nil
}

type sentMessage struct {
	recipients []string
	itemID     string
}

type fakeNotifier struct {
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) Notify(_ context.Context, recipients []string, details domain.ItemDetails) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{recipients: recipients, itemID: details.Item.ID})
	return nil
}

type fakeStore struct {
	set     domain.ProcessedSet
	saveErr []error
	saves   int
}

func (f *fakeStore) Load(context.Context) domain.ProcessedSet {
	return f.set.Clone()
}

func (f *fakeStore) Save(_ context.Context, set domain.ProcessedSet) error {
	f.saves++
	if len(f.saveErr) > 0 {
		err := f.saveErr[0]
		f.saveErr = f.saveErr[1:]
		if err != nil {
			return err
		}
	}
	f.set = set.Clone()
	return nil
}

type countingEnricher struct {
	inner ItemEnricher
	calls []string
}

func (c *countingEnricher) Enrich(ctx context.Context, item domain.Item, name string) domain.Result {
	c.calls = append(c.calls, item.ID)
	return c.inner.Enrich(ctx, item, name)
}

type panicEnricher struct{ onID string }

func (p panicEnricher) Enrich(_ context.Context, item domain.Item, _ string) domain.Result {
	if item.ID == p.onID {
		panic("boom")
	}
	return domain.Completed(domain.Artifacts{}, "", false)
}
