package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"VideoDigest/internal/domain"
	"VideoDigest/internal/failure"
	"VideoDigest/internal/ports"
	"VideoDigest/pkg/retry"
)

// Prompts holds one prompt template per generated section.
type Prompts struct {
	Executive string
	Detailed  string
	Quotes    string
}

// For returns the template for kind.
func (p Prompts) For(kind domain.ArtifactKind) string {
	switch kind {
	case domain.ArtifactExecutive:
		return p.Executive
	case domain.ArtifactDetailed:
		return p.Detailed
	case domain.ArtifactQuotes:
		return p.Quotes
	default:
		return ""
	}
}

// GenerationPolicy bounds the in-run retries of each generation call.
type GenerationPolicy struct {
	Attempts   int
	RetryDelay time.Duration
	// Pause separates consecutive generation calls for the same item.
	Pause time.Duration
}

// EnricherDeps wires the collaborators of the per-item pipeline.
type EnricherDeps struct {
	Source      ports.ItemSource
	Transcripts ports.TranscriptProvider
	Generator   ports.Generator
	Artifacts   ports.ArtifactStore
	Notifier    ports.Notifier
	Recipients  domain.RecipientBook
	Prompts     Prompts
	Generation  GenerationPolicy
	// MinDuration enables the short-item skip when positive.
	MinDuration time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
	Now         func() time.Time
	Logger      *slog.Logger
}

// Enricher drives one item through transcript retrieval, generation, local
// persistence and notification, producing exactly one domain.Result.
type Enricher struct {
	source      ports.ItemSource
	transcripts ports.TranscriptProvider
	generator   ports.Generator
	artifacts   ports.ArtifactStore
	notifier    ports.Notifier
	recipients  domain.RecipientBook
	prompts     Prompts
	generation  GenerationPolicy
	minDuration time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	logger      *slog.Logger
}

// NewEnricher constructs the per-item pipeline.
func NewEnricher(deps EnricherDeps) *Enricher {
	e := &Enricher{
		source:      deps.Source,
		transcripts: deps.Transcripts,
		generator:   deps.Generator,
		artifacts:   deps.Artifacts,
		notifier:    deps.Notifier,
		recipients:  deps.Recipients,
		prompts:     deps.Prompts,
		generation:  deps.Generation,
		minDuration: deps.MinDuration,
		sleep:       deps.Sleep,
		now:         deps.Now,
		logger:      deps.Logger,
	}
	if e.sleep == nil {
		e.sleep = retry.Sleep
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.generation.Attempts < 1 {
		e.generation.Attempts = 1
	}
	return e
}

// Enrich runs the pipeline for item. channelName is used for display only.
func (e *Enricher) Enrich(ctx context.Context, item domain.Item, channelName string) domain.Result {
	log := e.logger.With("item_id", item.ID, "channel_id", item.SourceID)

	duration := e.lookupDuration(ctx, item, log)
	if e.minDuration > 0 && duration > 0 && duration < e.minDuration {
		log.Info("skipping short video", "duration", duration, "minimum", e.minDuration)
		return domain.SkippedShortDuration()
	}

	transcript, err := e.transcripts.Transcript(ctx, item.ID)
	switch {
	case failure.IsInterrupted(err):
		log.Warn("transcript retrieval interrupted, will retry next run", "error", err)
		return domain.TransientFailure(fmt.Errorf("transcript: %w", err))
	case errors.Is(err, failure.ErrUnavailable):
		log.Warn("no transcript available", "error", err)
		return domain.SkippedNoTranscript()
	case err != nil && failure.IsPermanent(err):
		log.Error("transcript retrieval failed permanently", "error", err)
		return domain.PermanentFailure(fmt.Errorf("transcript: %w", err))
	case err != nil:
		log.Warn("transcript retrieval failed, will retry next run", "error", err)
		return domain.TransientFailure(fmt.Errorf("transcript: %w", err))
	case strings.TrimSpace(transcript) == "":
		log.Warn("transcript is empty")
		return domain.SkippedNoTranscript()
	}

	artifacts, err := e.generateAll(ctx, transcript, log)
	if err != nil {
		if classifyGeneration(err) == domain.OutcomePermanentFailure {
			log.Error("generation failed permanently", "error", err)
			return domain.PermanentFailure(err)
		}
		log.Warn("generation failed, will retry next run", "error", err)
		return domain.TransientFailure(err)
	}

	details := domain.ItemDetails{
		Item:        item,
		ChannelName: channelName,
		Duration:    duration,
		ProcessedAt: e.now().UTC(),
		Artifacts:   artifacts,
	}

	path, err := e.artifacts.WriteArtifact(ctx, details)
	if err != nil {
		if failure.IsTransient(err) {
			log.Error("failed to save summary, will retry next run", "error", err)
			return domain.TransientFailure(fmt.Errorf("save artifact: %w", err))
		}
		log.Error("failed to save summary", "error", err)
		return domain.PermanentFailure(fmt.Errorf("save artifact: %w", err))
	}
	log.Info("saved summary", "path", path)

	recipients := e.recipients.Resolve(item.SourceID)
	if len(recipients) == 0 {
		log.Warn("no recipients configured for channel, skipping email")
		return domain.Completed(artifacts, path, false)
	}

	if err := e.notifier.Notify(ctx, recipients, details); err != nil {
		log.Error("failed to send notification, will retry next run", "error", err, "recipients", len(recipients))
		return domain.TransientFailure(fmt.Errorf("notify: %w", err))
	}
	log.Info("sent notification", "recipients", len(recipients))
	return domain.Completed(artifacts, path, true)
}

func (e *Enricher) lookupDuration(ctx context.Context, item domain.Item, log *slog.Logger) time.Duration {
	if e.source == nil {
		return 0
	}
	duration, err := e.source.ItemDuration(ctx, item.ID)
	if err != nil {
		log.Warn("could not get video duration", "error", err)
		return 0
	}
	return duration
}

// generateAll produces all three sections or none.
func (e *Enricher) generateAll(ctx context.Context, transcript string, log *slog.Logger) (domain.Artifacts, error) {
	var artifacts domain.Artifacts
	for i, kind := range domain.ArtifactKinds {
		if i > 0 && e.generation.Pause > 0 {
			if err := e.sleep(ctx, e.generation.Pause); err != nil {
				return domain.Artifacts{}, failure.Wrap(failure.ErrTransient, "generate", "interrupted", err)
			}
		}
		text, err := e.generate(ctx, kind, transcript, log)
		if err != nil {
			return domain.Artifacts{}, fmt.Errorf("generate %s: %w", kind, err)
		}
		artifacts = artifacts.With(kind, text)
	}
	return artifacts, nil
}

func (e *Enricher) generate(ctx context.Context, kind domain.ArtifactKind, transcript string, log *slog.Logger) (string, error) {
	prompt := e.prompts.For(kind)
	var text string
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: e.generation.Attempts,
		Delay:       e.generation.RetryDelay,
		IsRetryable: failure.IsRetryable,
		Sleep:       e.sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("generation attempt failed",
				"artifact", string(kind),
				"attempt", attempt,
				"max_attempts", e.generation.Attempts,
				"retry_in", delay,
				"error", err)
		},
	}, func(ctx context.Context) error {
		out, err := e.generator.Generate(ctx, prompt, transcript)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return failure.Wrap(failure.ErrMalformedResponse, "generate", "empty output", nil)
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// classifyGeneration maps an exhausted generation error to the item outcome.
// Blocked, permanent and still-malformed responses stop future attempts;
// everything else, including untagged errors and a run cut short by its
// context, is left for a later run.
func classifyGeneration(err error) domain.OutcomeKind {
	switch {
	case failure.IsInterrupted(err):
		return domain.OutcomeTransientFailure
	case failure.IsPermanent(err), errors.Is(err, failure.ErrMalformedResponse):
		return domain.OutcomePermanentFailure
	default:
		return domain.OutcomeTransientFailure
	}
}
