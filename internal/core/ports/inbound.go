package ports

import (
	"context"

	"github.com/biasharahub/docintel/internal/core/domain"
)

// DocumentAnalyzer is the inbound contract for single-document analysis.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, documentID, text string, priors []domain.PriorDocument) (*domain.DocumentAnalysis, error)
}

// BatchRunner is the inbound contract for a full batch run against the
// document source.
type BatchRunner interface {
	Run(ctx context.Context, runID string) (*domain.BatchResult, error)
}

// AnalysisReader is the inbound read model for stored results.
type AnalysisReader interface {
	GetAnalysisByID(ctx context.Context, documentID string) (*domain.DocumentAnalysis, error)
	GetInsightsByRun(ctx context.Context, runID string) (*domain.PortfolioInsights, error)
}
