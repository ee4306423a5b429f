package ports

import (
	"context"
	"io"

	"github.com/biasharahub/docintel/internal/core/domain"
)

// DocumentSource pages through a remote document repository and fetches raw
// text. Authenticate must be called once per run; its failure aborts the run
// before any document is processed.
type DocumentSource interface {
	Authenticate(ctx context.Context) error
	ListDocuments(ctx context.Context, page, pageSize int) (refs []domain.DocumentRef, hasMore bool, err error)
	FetchText(ctx context.Context, documentID string) (string, error)
}

// EntityRecognizer is the external NLP capability that labels entity spans.
// Callers branch on Available rather than catching broad failures.
type EntityRecognizer interface {
	Available(ctx context.Context) bool
	RecognizeEntities(ctx context.Context, text string) ([]domain.EntitySpan, error)
}

// NarrativeGenerator is the best-effort generative-text capability behind
// narrative augmentation.
type NarrativeGenerator interface {
	Available(ctx context.Context) bool
	ListModels(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// AnalysisRepository persists analysis results and batch insights.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, runID string, analysis *domain.DocumentAnalysis) error
	GetAnalysisByID(ctx context.Context, documentID string) (*domain.DocumentAnalysis, error)
	ListAnalysesByRun(ctx context.Context, runID string) ([]domain.DocumentAnalysis, error)
	ListPriorDocuments(ctx context.Context) ([]domain.PriorDocument, error)
	SaveInsights(ctx context.Context, runID string, insights domain.PortfolioInsights) error
	GetInsightsByRun(ctx context.Context, runID string) (*domain.PortfolioInsights, error)
}

// BatchQueue carries batch-run requests and per-document completion events.
type BatchQueue interface {
	PublishBatchRequested(ctx context.Context, runID string) error
	SubscribeBatchRequested(ctx context.Context, handler func(context.Context, string) error) error
	PublishDocumentAnalyzed(ctx context.Context, documentID string) error
}

// InsightReporter renders portfolio insights for export.
type InsightReporter interface {
	Write(insights domain.PortfolioInsights, w io.Writer) error
}
