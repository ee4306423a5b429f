package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/biasharahub/docintel/internal/analysis/classify"
	"github.com/biasharahub/docintel/internal/analysis/entity"
	"github.com/biasharahub/docintel/internal/analysis/extract"
	"github.com/biasharahub/docintel/internal/analysis/fingerprint"
	"github.com/biasharahub/docintel/internal/analysis/risk"
	"github.com/biasharahub/docintel/internal/analysis/tag"
	"github.com/biasharahub/docintel/internal/core/domain"
	"github.com/biasharahub/docintel/internal/core/ports"
)

// AnalyzeDocumentUseCase sequences extraction, classification, entity
// resolution, fact assembly, duplicate checking, risk scoring, and tagging
// for one document. Entity resolution failures degrade to an empty bundle;
// no stage failure aborts the document.
type AnalyzeDocumentUseCase struct {
	extractor  *extract.Extractor
	classifier *classify.Classifier
	normalizer *entity.Normalizer
	riskScorer *risk.Scorer
	recognizer ports.EntityRecognizer
	logger     *slog.Logger
}

func NewAnalyzeDocumentUseCase(
	extractor *extract.Extractor,
	classifier *classify.Classifier,
	normalizer *entity.Normalizer,
	riskScorer *risk.Scorer,
	recognizer ports.EntityRecognizer,
	logger *slog.Logger,
) *AnalyzeDocumentUseCase {
	return &AnalyzeDocumentUseCase{
		extractor:  extractor,
		classifier: classifier,
		normalizer: normalizer,
		riskScorer: riskScorer,
		recognizer: recognizer,
		logger:     logger,
	}
}

func (uc *AnalyzeDocumentUseCase) Analyze(ctx context.Context, documentID, text string, priors []domain.PriorDocument) (*domain.DocumentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	extraction := uc.extractor.Extract(text)
	classification := uc.classifier.Classify(text)
	entities := uc.resolveEntities(ctx, documentID, text)
	facts := uc.assembleFacts(text, extraction, entities)

	fp := fingerprint.Build(text)
	match := fingerprint.DetectDuplicate(fp, priors)

	analysis := &domain.DocumentAnalysis{
		DocumentID:               documentID,
		DocumentType:             classification.Type,
		ClassificationConfidence: classification.Confidence,
		Facts:                    facts,
		Entities:                 entities,
		RiskScore:                uc.riskScorer.Score(classification.Type, facts, entities.Companies),
		DuplicateScore:           match.Score,
		DuplicateOf:              match.DocumentID,
		Fingerprint:              fp,
		AnalyzedAt:               time.Now().UTC(),
	}
	analysis.Tags = tag.Generate(analysis.DocumentType, analysis.Entities, analysis.Facts)
	return analysis, nil
}

// resolveEntities consumes the NLP capability when it is up; an unavailable
// or failing recognizer yields an empty bundle, never an aborted document.
func (uc *AnalyzeDocumentUseCase) resolveEntities(ctx context.Context, documentID, text string) domain.EntityBundle {
	if uc.recognizer == nil || !uc.recognizer.Available(ctx) {
		uc.logger.Debug("entity recognition unavailable, skipping",
			"document_id", documentID,
		)
		return domain.EntityBundle{}
	}

	spans, err := uc.recognizer.RecognizeEntities(ctx, text)
	if err != nil {
		uc.logger.Warn("entity recognition failed, continuing without entities",
			"document_id", documentID,
			"error", err,
		)
		return domain.EntityBundle{}
	}
	return uc.normalizer.Bundle(spans, text)
}

// assembleFacts joins every extracted amount with the first invoice number,
// first date, and first tax figures found anywhere in the document. The
// global first-match join is deliberately coarse and kept for compatibility.
func (uc *AnalyzeDocumentUseCase) assembleFacts(text string, extraction extract.Extraction, entities domain.EntityBundle) []domain.FinancialFact {
	var firstInvoice string
	if len(extraction.InvoiceNumbers) > 0 {
		firstInvoice = extraction.InvoiceNumbers[0]
	}
	var firstDate *time.Time
	if len(extraction.Dates) > 0 {
		firstDate = &extraction.Dates[0]
	}
	fact := domain.FinancialFact{
		Currency:      domain.DefaultCurrency,
		InvoiceNumber: firstInvoice,
		Date:          firstDate,
	}
	if len(extraction.TaxAmounts) > 0 {
		fact.TaxAmount = &extraction.TaxAmounts[0]
	}
	if len(extraction.TaxRates) > 0 {
		fact.TaxRate = &extraction.TaxRates[0]
	}
	if len(entities.Companies) > 0 {
		fact.VendorName = entities.Companies[0]
	}
	if len(entities.ProjectCodes) > 0 {
		fact.ProjectCode = entities.ProjectCodes[0]
	}

	facts := make([]domain.FinancialFact, 0, len(extraction.Amounts))
	for _, candidate := range extraction.Amounts {
		amount := candidate.Value
		item := fact
		item.Amount = &amount
		item.Confidence = extract.ScoreAmount(text, candidate)
		facts = append(facts, item)
	}
	return facts
}
