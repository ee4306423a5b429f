package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/biasharahub/docintel/internal/core/domain"
	"github.com/biasharahub/docintel/internal/core/ports"
)

// RunBatchUseCase drives one full run: authenticate the document source,
// page through its listings, fan per-document analysis out over a bounded
// worker pool, and fold the results into portfolio insights.
//
// Failure policy follows the degrade-and-continue philosophy: a document
// whose text cannot be fetched is skipped and accounted for; only source
// authentication failure aborts the run.
type RunBatchUseCase struct {
	source    ports.DocumentSource
	analyzer  ports.DocumentAnalyzer
	augmenter *NarrativeAugmenter
	repo      ports.AnalysisRepository
	queue     ports.BatchQueue
	workers   int
	pageSize  int
	logger    *slog.Logger
}

func NewRunBatchUseCase(
	source ports.DocumentSource,
	analyzer ports.DocumentAnalyzer,
	augmenter *NarrativeAugmenter,
	repo ports.AnalysisRepository,
	queue ports.BatchQueue,
	workers, pageSize int,
	logger *slog.Logger,
) *RunBatchUseCase {
	if workers <= 0 {
		workers = 4
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &RunBatchUseCase{
		source:    source,
		analyzer:  analyzer,
		augmenter: augmenter,
		repo:      repo,
		queue:     queue,
		workers:   workers,
		pageSize:  pageSize,
		logger:    logger,
	}
}

func (uc *RunBatchUseCase) Run(ctx context.Context, runID string) (*domain.BatchResult, error) {
	startedAt := time.Now().UTC()

	if err := uc.source.Authenticate(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrAuthFailed, "authenticate document source", err)
	}

	refs, err := uc.listAll(ctx)
	if err != nil {
		return nil, err
	}

	priors := uc.loadPriors(ctx)
	analyses := uc.analyzeAll(ctx, runID, refs, priors)

	result := &domain.BatchResult{
		RunID:      runID,
		Listed:     len(refs),
		Processed:  len(analyses),
		Skipped:    len(refs) - len(analyses),
		Analyses:   analyses,
		Insights:   AggregateInsights(analyses),
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}

	if uc.repo != nil {
		if err := uc.repo.SaveInsights(ctx, runID, result.Insights); err != nil {
			uc.logger.Error("save portfolio insights",
				"run_id", runID,
				"error", err,
			)
		}
	}

	uc.logger.Info("batch run finished",
		"run_id", runID,
		"listed", result.Listed,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"anomalies", len(result.Insights.Anomalies),
	)
	return result, nil
}

func (uc *RunBatchUseCase) listAll(ctx context.Context) ([]domain.DocumentRef, error) {
	var refs []domain.DocumentRef
	for page := 1; ; page++ {
		pageRefs, hasMore, err := uc.source.ListDocuments(ctx, page, uc.pageSize)
		if err != nil {
			if len(refs) == 0 {
				return nil, fmt.Errorf("list documents page %d: %w", page, err)
			}
			// Later pages failing should not discard the documents already
			// listed; the run proceeds with what it has.
			uc.logger.Warn("document listing stopped early",
				"page", page,
				"listed_so_far", len(refs),
				"error", err,
			)
			return refs, nil
		}
		refs = append(refs, pageRefs...)
		if !hasMore {
			return refs, nil
		}
	}
}

func (uc *RunBatchUseCase) loadPriors(ctx context.Context) []domain.PriorDocument {
	if uc.repo == nil {
		return nil
	}
	priors, err := uc.repo.ListPriorDocuments(ctx)
	if err != nil {
		uc.logger.Warn("load prior fingerprints, duplicate detection degraded",
			"error", err,
		)
		return nil
	}
	return priors
}

// analyzeAll fans documents out over the worker pool. Cancellation is
// honored at the per-document boundary: in-flight documents finish, queued
// ones are abandoned, and everything analyzed so far stays valid.
func (uc *RunBatchUseCase) analyzeAll(ctx context.Context, runID string, refs []domain.DocumentRef, priors []domain.PriorDocument) []domain.DocumentAnalysis {
	jobs := make(chan domain.DocumentRef)
	results := make(chan domain.DocumentAnalysis, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < uc.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				if analysis, ok := uc.analyzeOne(ctx, runID, ref, priors); ok {
					results <- *analysis
				}
			}
		}()
	}

feed:
	for _, ref := range refs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- ref:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	analyses := make([]domain.DocumentAnalysis, 0, len(refs))
	for analysis := range results {
		analyses = append(analyses, analysis)
	}
	return analyses
}

func (uc *RunBatchUseCase) analyzeOne(ctx context.Context, runID string, ref domain.DocumentRef, priors []domain.PriorDocument) (*domain.DocumentAnalysis, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	text, err := uc.source.FetchText(ctx, ref.ID)
	if err != nil {
		uc.logger.Warn("fetch document text failed, skipping document",
			"document_id", ref.ID,
			"error", err,
		)
		return nil, false
	}

	analysis, err := uc.analyzer.Analyze(ctx, ref.ID, text, priors)
	if err != nil {
		uc.logger.Warn("analyze document failed, skipping document",
			"document_id", ref.ID,
			"error", err,
		)
		return nil, false
	}

	uc.augmenter.Augment(ctx, analysis, text)

	if uc.repo != nil {
		if err := uc.repo.SaveAnalysis(ctx, runID, analysis); err != nil {
			uc.logger.Error("persist analysis",
				"document_id", ref.ID,
				"error", err,
			)
		}
	}
	if uc.queue != nil {
		if err := uc.queue.PublishDocumentAnalyzed(ctx, ref.ID); err != nil {
			uc.logger.Warn("publish document analyzed event",
				"document_id", ref.ID,
				"error", err,
			)
		}
	}
	return analysis, true
}
