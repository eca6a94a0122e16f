package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kirillkom/document-organizer/internal/config"
	"github.com/kirillkom/document-organizer/internal/core/ports"
	"github.com/kirillkom/document-organizer/internal/core/usecase"
	"github.com/kirillkom/document-organizer/internal/infrastructure/extractor/document"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm"
	"github.com/kirillkom/document-organizer/internal/infrastructure/notify/nats"
	"github.com/kirillkom/document-organizer/internal/infrastructure/report/jsonfile"
	"github.com/kirillkom/document-organizer/internal/infrastructure/resilience"
	"github.com/kirillkom/document-organizer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-organizer/internal/observability/metrics"
)

const serviceName = "document-organizer"

type App struct {
	Config config.Config

	BatchUC ports.BatchProcessor
	Metrics *metrics.BatchMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}

	router, err := localfs.New(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output tree: %w", err)
	}

	classifier, err := llm.NewClassifier(llmSettings(cfg), resilience.NewExecutor(classifierResilience(cfg, logger)))
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	extractor := document.NewExtractor(document.Options{Logger: logger})
	reports := jsonfile.New(cfg.OutputDir)
	batchMetrics := metrics.NewBatchMetrics(serviceName, cfg.MetricsTextfile)

	options := usecase.BatchOptions{
		Observer: batchMetrics,
		Logger:   logger,
	}
	closeFn := func() {}
	if cfg.NATSURL != "" {
		publisher, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(notifierResilience(logger)),
			Logger:             logger,
		})
		if err != nil {
			logger.WarnContext(ctx, "nats_unavailable", "url", cfg.NATSURL, "error", err)
		} else {
			options.Notifier = publisher
			closeFn = publisher.Close
		}
	}

	decider := usecase.NewDecisionEngine(cfg.ConfidenceThreshold, time.Now)
	batchUC := usecase.NewBatchUseCase(cfg.Settings(), extractor, classifier, decider, router, reports, options)

	return &App{
		Config:  cfg,
		BatchUC: batchUC,
		Metrics: batchMetrics,
		closeFn: closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func llmSettings(cfg config.Config) llm.Settings {
	return llm.Settings{
		Provider:      cfg.AIProvider,
		Model:         cfg.ModelName,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiBaseURL: cfg.GeminiBaseURL,
		OllamaURL:     cfg.OllamaURL,
		Timeout:       cfg.ClassifierTimeout,
		TextLimit:     cfg.ClassifierTextLimit,
		ImageMaxWidth: cfg.ImageMaxWidth,
	}
}

func classifierResilience(cfg config.Config, logger *slog.Logger) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.ClassifierMaxAttempts
	rc.RetryInitialBackoff = cfg.ClassifierInitialBackoff
	rc.RetryMaxBackoff = cfg.ClassifierMaxBackoff
	rc.RateLimitPerSecond = cfg.ClassifierRateLimitRPS
	rc.Logger = logger
	return rc
}

func notifierResilience(logger *slog.Logger) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryInitialBackoff = 200 * time.Millisecond
	rc.RetryMaxBackoff = 2 * time.Second
	rc.Logger = logger
	return rc
}
