package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/ports"
	"VideoDigest/pkg/retry"
)

// ItemEnricher runs the per-item pipeline.
type ItemEnricher interface {
	Enrich(ctx context.Context, item domain.Item, channelName string) domain.Result
}

// Pacing spaces out API-heavy operations to stay under upstream rate limits.
type Pacing struct {
	AfterLookup     time.Duration
	BetweenItems    time.Duration
	BetweenChannels time.Duration
}

// OrchestratorDeps wires the run-level collaborators.
type OrchestratorDeps struct {
	Source     ports.ItemSource
	Enricher   ItemEnricher
	Store      ports.ProcessedStore
	Window     time.Duration
	MaxResults int
	// Overfetch is added to MaxResults so the recency filter can trim
	// without starving the channel.
	Overfetch int
	Pacing    Pacing
	Sleep     func(ctx context.Context, d time.Duration) error
	Now       func() time.Time
	Logger    *slog.Logger
}

// Orchestrator walks channels and items, and is the only component that
// mutates the processed set.
type Orchestrator struct {
	source     ports.ItemSource
	enricher   ItemEnricher
	store      ports.ProcessedStore
	window     time.Duration
	maxResults int
	overfetch  int
	pacing     Pacing
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
	logger     *slog.Logger
}

// NewOrchestrator constructs the run orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		source:     deps.Source,
		enricher:   deps.Enricher,
		store:      deps.Store,
		window:     deps.Window,
		maxResults: deps.MaxResults,
		overfetch:  deps.Overfetch,
		pacing:     deps.Pacing,
		sleep:      deps.Sleep,
		now:        deps.Now,
		logger:     deps.Logger,
	}
	if o.sleep == nil {
		o.sleep = retry.Sleep
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.maxResults < 1 {
		o.maxResults = 1
	}
	if o.overfetch < 0 {
		o.overfetch = 0
	}
	return o
}

// runState is the mutable bookkeeping of one pass.
type runState struct {
	set       domain.ProcessedSet
	attempted map[string]bool
	report    domain.RunReport
	saveErr   error
}

// Run performs one pass over channels. The returned error is non-nil only
// when ctx ends before the pass completes; the report is valid either way.
func (o *Orchestrator) Run(ctx context.Context, channels []string) (domain.RunReport, error) {
	start := o.now()
	state := &runState{
		set:       o.store.Load(ctx),
		attempted: map[string]bool{},
	}
	o.logger.Info("loaded processed video ids", "count", state.set.Len())

	var runErr error
	for i, channelID := range channels {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if i > 0 {
			if err := o.pause(ctx, o.pacing.BetweenChannels); err != nil {
				runErr = err
				break
			}
		}
		if err := o.processChannel(ctx, channelID, state); err != nil {
			runErr = err
			break
		}
	}

	o.flushPending(ctx, state)
	state.report.Elapsed = o.now().Sub(start)
	o.logger.Info("run finished",
		"new_items", state.report.NewCount,
		"elapsed", state.report.Elapsed.Round(10*time.Millisecond),
		"persistence_warnings", len(state.report.PersistenceErrors))
	return state.report, runErr
}

// processChannel handles one channel. Source errors and panics are contained
// here so the remaining channels still run; only context errors propagate.
func (o *Orchestrator) processChannel(ctx context.Context, channelID string, state *runState) (err error) {
	log := o.logger.With("channel_id", channelID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("channel processing panicked", "panic", fmt.Sprint(r))
			err = nil
		}
	}()

	name := o.displayName(ctx, channelID, log)
	log = log.With("channel", name)
	log.Info("checking channel")
	if err := o.pause(ctx, o.pacing.AfterLookup); err != nil {
		return err
	}

	items, err := o.source.ListRecentItems(ctx, channelID, o.maxResults+o.overfetch)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("could not get latest videos", "error", err)
		return nil
	}
	for _, item := range items {
		if !item.Dated() {
			log.Warn("skipping video with unparsable publish time", "item_id", item.ID)
		}
	}

	recent := FilterRecent(items, o.window, o.now())
	log.Debug("candidate videos", "listed", len(items), "recent", len(recent))

	for _, item := range recent {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item.SourceID == "" {
			item.SourceID = channelID
		}
		if state.set.Has(item.ID) || state.attempted[item.ID] {
			log.Debug("video already handled", "item_id", item.ID)
			continue
		}
		state.attempted[item.ID] = true

		log.Info("processing new video", "item_id", item.ID, "title", item.Title)
		result := o.enrich(ctx, item, name, log)
		state.report.Outcomes = append(state.report.Outcomes, domain.ItemOutcome{
			Item:        item,
			ChannelName: name,
			Result:      result,
		})

		if result.MarksProcessed() {
			state.set.Add(item.ID)
			state.report.NewCount++
			o.persist(ctx, state, log)
		} else {
			log.Warn("video left unprocessed for retry", "item_id", item.ID, "reason", result.Reason)
		}
		log.Info("video finished", "item_id", item.ID, "outcome", result.Kind.String(), "notified", result.Notified)

		if err := o.pause(ctx, o.pacing.BetweenItems); err != nil {
			return err
		}
	}
	return nil
}

// enrich isolates a panicking item so it cannot take the run down. The item
// stays unmarked; the recency window bounds how long it keeps coming back.
func (o *Orchestrator) enrich(ctx context.Context, item domain.Item, name string, log *slog.Logger) (result domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("video processing panicked", "item_id", item.ID, "panic", fmt.Sprint(r))
			result = domain.TransientFailure(fmt.Errorf("panic: %v", r))
		}
	}()
	return o.enricher.Enrich(ctx, item, name)
}

func (o *Orchestrator) displayName(ctx context.Context, channelID string, log *slog.Logger) string {
	name, err := o.source.SourceDisplayName(ctx, channelID)
	if err != nil || name == "" {
		if err != nil {
			log.Warn("could not fetch channel name", "error", err)
		}
		return channelID
	}
	return name
}

// persist saves the whole set right after a mutation. Failures are logged and
// remembered; a later successful save supersedes them because every save
// writes the full set.
func (o *Orchestrator) persist(ctx context.Context, state *runState, log *slog.Logger) {
	if err := o.store.Save(ctx, state.set); err != nil {
		log.Error("failed to save processed video ids", "error", err)
		state.saveErr = err
		return
	}
	state.saveErr = nil
}

func (o *Orchestrator) flushPending(ctx context.Context, state *runState) {
	if state.saveErr == nil {
		return
	}
	o.logger.Warn("retrying processed video ids save", "previous_error", state.saveErr)
	// The run context may already be cancelled; the retry must still happen.
	if err := o.store.Save(context.WithoutCancel(ctx), state.set); err != nil {
		o.logger.Error("processed video ids could not be saved; next run may repeat work", "error", err)
		state.report.PersistenceErrors = append(state.report.PersistenceErrors, err)
		return
	}
	state.saveErr = nil
}

func (o *Orchestrator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return o.sleep(ctx, d)
}
