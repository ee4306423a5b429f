package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/biasharahub/docintel/internal/analysis/classify"
	"github.com/biasharahub/docintel/internal/analysis/entity"
	"github.com/biasharahub/docintel/internal/analysis/extract"
	"github.com/biasharahub/docintel/internal/analysis/risk"
	"github.com/biasharahub/docintel/internal/config"
	"github.com/biasharahub/docintel/internal/core/ports"
	"github.com/biasharahub/docintel/internal/core/usecase"
	"github.com/biasharahub/docintel/internal/infrastructure/docsource/httpsource"
	"github.com/biasharahub/docintel/internal/infrastructure/docsource/localfs"
	"github.com/biasharahub/docintel/internal/infrastructure/llm/ollama"
	"github.com/biasharahub/docintel/internal/infrastructure/queue/nats"
	"github.com/biasharahub/docintel/internal/infrastructure/report/excel"
	"github.com/biasharahub/docintel/internal/infrastructure/repository/postgres"
	"github.com/biasharahub/docintel/internal/infrastructure/resilience"
	"github.com/biasharahub/docintel/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    ports.BatchQueue
	Repo     ports.AnalysisRepository
	Reporter ports.InsightReporter
	BatchUC  ports.BatchRunner

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	executor := resilience.NewExecutor(resilience.DefaultConfig()).WithLogger(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewAnalysisRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSBatchSubject, cfg.NATSAnalyzedSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	registry, err := entity.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		logger.Warn("entity registry unavailable, all organizations treated as unknown",
			"path", cfg.RegistryPath, "error", err)
		registry = entity.NewRegistry(nil)
	}

	source, err := newDocumentSource(cfg, executor)
	if err != nil {
		return nil, err
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, ollama.Options{
		MaxTokens:          cfg.NarrativeMaxTokens,
		ResilienceExecutor: executor,
	})
	recognizer := ollama.NewRecognizer(ollamaClient)

	var augmenter *usecase.NarrativeAugmenter
	if cfg.NarrativeEnabled {
		timeout := time.Duration(cfg.NarrativeTimeoutSeconds) * time.Second
		augmenter = usecase.NewNarrativeAugmenter(ollamaClient, timeout, logger)
	}

	analyzeUC := usecase.NewAnalyzeDocumentUseCase(
		extract.NewExtractor(),
		classify.New(),
		entity.NewNormalizer(registry),
		risk.NewScorer(registry),
		recognizer,
		logger,
	)
	batchUC := usecase.NewRunBatchUseCase(
		source, analyzeUC, augmenter, repo, queue,
		cfg.BatchWorkerCount, cfg.DocSourcePageSize, logger,
	)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		Repo:     repo,
		Reporter: excel.NewWriter(),
		BatchUC:  batchUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newDocumentSource(cfg config.Config, executor *resilience.Executor) (ports.DocumentSource, error) {
	switch cfg.DocSourceMode {
	case "local":
		source, err := localfs.New(cfg.LocalDocsPath)
		if err != nil {
			return nil, fmt.Errorf("init local document source: %w", err)
		}
		return source, nil
	case "http":
		return httpsource.New(cfg.DocSourceURL, cfg.DocSourceToken, httpsource.Options{
			RequestsPerSecond:  cfg.DocSourceRPS,
			ResilienceExecutor: executor,
		}), nil
	default:
		return nil, fmt.Errorf("unknown document source mode %q", cfg.DocSourceMode)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
