package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"VideoDigest/internal/config"
	"VideoDigest/internal/domain"
	"VideoDigest/internal/infrastructure/email"
	"VideoDigest/internal/infrastructure/feed"
	"VideoDigest/internal/infrastructure/llm"
	"VideoDigest/internal/infrastructure/runlock"
	"VideoDigest/internal/infrastructure/scheduler"
	"VideoDigest/internal/infrastructure/source"
	"VideoDigest/internal/infrastructure/storage"
	"VideoDigest/internal/infrastructure/telegram"
	"VideoDigest/internal/infrastructure/transcript"
	"VideoDigest/internal/infrastructure/youtube"
	"VideoDigest/internal/ports"
	"VideoDigest/internal/scanner"
	"VideoDigest/internal/usecase"
	"VideoDigest/pkg/logger"
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("another run is in progress")

// runner is the part of the orchestrator the application drives.
type runner interface {
	Run(ctx context.Context, channels []string) (domain.RunReport, error)
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	runner   runner
	lock     ports.RunLock
	reporter ports.RunReporter
	closers  []io.Closer
}

// New builds every adapter once from cfg. cfg must already be validated.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.New(slog.DiscardHandler)
	}

	store, closer, err := OpenStore(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}
	a := &Application{
		cfg:    cfg,
		logger: baseLogger.With("component", "app"),
		lock:   runlock.New(cfg.Storage.LockFile),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	itemSource := newItemSource(cfg, baseLogger)
	enricher := usecase.NewEnricher(usecase.EnricherDeps{
		Source: itemSource,
		Transcripts: transcript.NewProvider(transcript.Options{
			WatchURL:   cfg.YouTube.WatchURL,
			Languages:  cfg.Transcript.Languages,
			Attempts:   cfg.Transcript.Attempts,
			RetryDelay: cfg.Transcript.RetryDelay,
			Timeout:    cfg.Transcript.Timeout,
		}, nil, baseLogger.With("component", "transcript")),
		Generator: newGenerator(cfg),
		Artifacts: storage.NewArtifactStore(cfg.Storage.OutputDir),
		Notifier: email.NewNotifier(email.Options{
			Server:   cfg.Email.SMTPServer,
			Port:     cfg.Email.SMTPPort,
			User:     cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPassword,
			Sender:   cfg.Email.Sender,
			Timeout:  cfg.Email.Timeout,
		}, baseLogger.With("component", "email")),
		Recipients: cfg.RecipientBook(),
		Prompts: usecase.Prompts{
			Executive: cfg.Generator.Prompts.Executive,
			Detailed:  cfg.Generator.Prompts.Detailed,
			Quotes:    cfg.Generator.Prompts.Quotes,
		},
		Generation: usecase.GenerationPolicy{
			Attempts:   cfg.Generator.Attempts,
			RetryDelay: cfg.Generator.RetryDelay,
			Pause:      cfg.Run.Pacing.BetweenGenerations,
		},
		MinDuration: cfg.Run.MinDuration,
		Logger:      baseLogger.With("component", "enricher"),
	})

	a.runner = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Source:     itemSource,
		Enricher:   enricher,
		Store:      store,
		Window:     cfg.Run.RecencyWindow,
		MaxResults: cfg.Run.MaxResultsPerChannel,
		Overfetch:  cfg.Run.Overfetch,
		Pacing: usecase.Pacing{
			AfterLookup:     cfg.Run.Pacing.AfterLookup,
			BetweenItems:    cfg.Run.Pacing.BetweenItems,
			BetweenChannels: cfg.Run.Pacing.BetweenChannels,
		},
		Logger: baseLogger.With("component", "orchestrator"),
	})

	if reporter := telegram.NewReporter(cfg.Telegram.BotToken, cfg.Telegram.ChatID); reporter.Enabled() {
		a.reporter = reporter
	}
	return a, nil
}

func newItemSource(cfg config.Config, baseLogger *slog.Logger) *source.StrategySource {
	httpClient := &http.Client{Timeout: cfg.YouTube.Timeout}

	registry := scanner.NewRegistry()
	registry.Register(youtube.NewClient(youtube.Options{
		BaseURL: cfg.YouTube.APIBaseURL,
		APIKey:  cfg.YouTube.APIKey,
	}, httpClient, baseLogger.With("component", "scanner.api")))
	registry.Register(feed.NewSource(cfg.YouTube.FeedBaseURL, httpClient, baseLogger.With("component", "scanner.rss")))

	strategies := make(map[string]string, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		strategies[ch.ID] = cfg.ScannerFor(ch)
	}
	return source.NewStrategySource(registry, strategies, cfg.YouTube.Scanner, baseLogger.With("component", "source"))
}

func newGenerator(cfg config.Config) ports.Generator {
	if cfg.Generator.Provider == config.ProviderOpenAI {
		return llm.NewChatGPTClient(llm.ChatGPTOptions{
			Endpoint:    cfg.Generator.Endpoint,
			Model:       cfg.Generator.Model,
			APIKey:      cfg.Generator.APIKey,
			Temperature: cfg.Generator.Temperature,
			Timeout:     cfg.Generator.Timeout,
		}, nil)
	}
	return llm.NewGeminiClient(llm.GeminiOptions{
		Endpoint:       cfg.Generator.Endpoint,
		Model:          cfg.Generator.Model,
		APIKey:         cfg.Generator.APIKey,
		Temperature:    cfg.Generator.Temperature,
		SafetySettings: cfg.Generator.ValidSafetySettings(),
		Timeout:        cfg.Generator.Timeout,
	}, nil)
}

// RunOnce performs one pass under the run lock and publishes the operator
// report. The report is valid even when err is a context error.
func (a *Application) RunOnce(ctx context.Context) (domain.RunReport, error) {
	locked, err := a.lock.TryLock()
	if err != nil {
		return domain.RunReport{}, err
	}
	if !locked {
		return domain.RunReport{}, ErrRunInProgress
	}
	defer func() {
		if err := a.lock.Unlock(); err != nil {
			a.logger.Warn("failed to release run lock", "error", err)
		}
	}()

	runID := uuid.NewString()
	a.logger.Info("starting run", "run_id", runID, "channels", len(a.cfg.Channels))

	report, err := a.runner.Run(ctx, a.cfg.ChannelIDs())
	report.RunID = runID
	for _, perr := range report.PersistenceErrors {
		a.logger.Warn("processed state not saved", "run_id", runID, "error", perr)
	}
	a.publish(ctx, report)
	return report, err
}

// Watch runs immediately and then on the configured schedule until ctx ends.
// Each pass reports through onReport.
func (a *Application) Watch(ctx context.Context, onReport func(domain.RunReport)) error {
	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		logger.New("cron"),
	)
	if err := driver.Validate(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, func(ctx context.Context, trigger time.Time) {
		a.logger.Info("scheduled run triggered", "at", trigger.Format(time.RFC3339))
		report, err := a.RunOnce(ctx)
		switch {
		case errors.Is(err, ErrRunInProgress):
			a.logger.Warn("skipping scheduled run", "reason", err)
			return
		case err != nil:
			a.logger.Error("scheduled run ended early", "error", err)
		}
		if onReport != nil {
			onReport(report)
		}
	})

	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("watch mode started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()
	a.logger.Info("stopping scheduler, waiting for the running pass")
	return sched.Stop(context.Background())
}

func (a *Application) publish(ctx context.Context, report domain.RunReport) {
	if a.reporter == nil || (report.NewCount == 0 && !report.HasWarnings()) {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := a.reporter.PublishReport(sendCtx, FormatReport(report)); err != nil {
		a.logger.Warn("failed to publish run report", "error", err)
	}
}

// Close releases held resources.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore builds the configured processed-set backend. The closer is nil
// for backends that hold no resources.
func OpenStore(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (ports.ProcessedStore, io.Closer, error) {
	if baseLogger == nil {
		baseLogger = slog.New(slog.DiscardHandler)
	}
	log := baseLogger.With("component", "storage")

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		repo, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open processed store: %w", err)
		}
		return repo, repo, nil
	default:
		return storage.NewJSONStore(cfg.Storage.ProcessedFile, log), nil, nil
	}
}
