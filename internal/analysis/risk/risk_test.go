package risk

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/biasharahub/docintel/internal/analysis/entity"
	"github.com/biasharahub/docintel/internal/core/domain"
)

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func completeFact(amount string) domain.FinancialFact {
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	return domain.FinancialFact{
		Amount:        amountPtr(amount),
		Currency:      domain.DefaultCurrency,
		Date:          &date,
		InvoiceNumber: "INV-001",
	}
}

func TestScoreHighValueContract(t *testing.T) {
	scorer := NewScorer(entity.NewRegistry([]string{"ACME CORP"}))

	facts := []domain.FinancialFact{completeFact("2000000")}
	score := scorer.Score(domain.TypeContract, facts, []string{"ACME CORP"})

	// 0.3 for the total above one million plus 0.2 for the contract type.
	if score != 0.5 {
		t.Errorf("score = %v, want 0.5", score)
	}
}

func TestScoreMidValueBand(t *testing.T) {
	scorer := NewScorer(entity.NewRegistry([]string{"ACME CORP"}))

	facts := []domain.FinancialFact{completeFact("150000")}
	score := scorer.Score(domain.TypeInvoice, facts, []string{"ACME CORP"})

	if math.Abs(score-0.2) > 1e-9 {
		t.Errorf("score = %v, want 0.2", score)
	}
}

func TestScoreUnknownOrganizations(t *testing.T) {
	scorer := NewScorer(entity.NewRegistry([]string{"ACME CORP"}))

	facts := []domain.FinancialFact{completeFact("500")}
	score := scorer.Score(domain.TypeInvoice, facts, []string{"ACME CORP", "SHADY LTD", "GHOST CO"})

	if math.Abs(score-0.2) > 1e-9 {
		t.Errorf("score = %v, want 0.2 for two unknown organizations", score)
	}
}

func TestScoreMissingFields(t *testing.T) {
	scorer := NewScorer(entity.NewRegistry(nil))

	// No amount, no date, no invoice number: three missing fields on one fact.
	facts := []domain.FinancialFact{{Currency: domain.DefaultCurrency}}
	score := scorer.Score(domain.TypeInvoice, facts, nil)

	if math.Abs(score-0.15) > 1e-9 {
		t.Errorf("score = %v, want 0.15", score)
	}
}

func TestScoreClampsAtOne(t *testing.T) {
	scorer := NewScorer(entity.NewRegistry(nil))

	var facts []domain.FinancialFact
	facts = append(facts, completeFact("5000000"))
	for i := 0; i < 10; i++ {
		facts = append(facts, domain.FinancialFact{})
	}
	unknowns := []string{"A", "B", "C", "D", "E", "F"}

	if score := scorer.Score(domain.TypeTenderDocument, facts, unknowns); score != 1.0 {
		t.Errorf("score = %v, want 1.0", score)
	}
}

func TestScoreNoSignals(t *testing.T) {
	scorer := NewScorer(entity.NewRegistry(nil))

	if score := scorer.Score(domain.TypeReceipt, nil, nil); score != 0.0 {
		t.Errorf("score = %v, want 0.0", score)
	}
}

func analysisWithAmounts(documentID string, amounts ...string) domain.DocumentAnalysis {
	analysis := domain.DocumentAnalysis{DocumentID: documentID}
	for _, amount := range amounts {
		analysis.Facts = append(analysis.Facts, domain.FinancialFact{Amount: amountPtr(amount)})
	}
	return analysis
}

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	var analyses []domain.DocumentAnalysis
	for i := 0; i < 9; i++ {
		analyses = append(analyses, analysisWithAmounts("steady", "100"))
	}
	analyses = append(analyses, analysisWithAmounts("outlier", "10000"))

	anomalies := DetectAnomalies(analyses)

	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %v, want exactly one", anomalies)
	}
	if anomalies[0].DocumentID != "outlier" {
		t.Errorf("document = %q, want outlier", anomalies[0].DocumentID)
	}
	if !anomalies[0].Amount.Equal(decimal.RequireFromString("10000")) {
		t.Errorf("amount = %s, want 10000", anomalies[0].Amount)
	}
	if anomalies[0].DeviationScore <= 2.5 {
		t.Errorf("deviation = %v, want > 2.5", anomalies[0].DeviationScore)
	}
}

func TestDetectAnomaliesNeedsTwoSamples(t *testing.T) {
	analyses := []domain.DocumentAnalysis{analysisWithAmounts("only", "10000")}
	if anomalies := DetectAnomalies(analyses); anomalies != nil {
		t.Errorf("anomalies = %v, want none for a single sample", anomalies)
	}
}

func TestDetectAnomaliesZeroSpread(t *testing.T) {
	analyses := []domain.DocumentAnalysis{
		analysisWithAmounts("a", "500"),
		analysisWithAmounts("b", "500"),
		analysisWithAmounts("c", "500"),
	}
	if anomalies := DetectAnomalies(analyses); anomalies != nil {
		t.Errorf("anomalies = %v, want none for zero spread", anomalies)
	}
}

func TestDetectAnomaliesIgnoresFactsWithoutAmounts(t *testing.T) {
	analyses := []domain.DocumentAnalysis{
		{DocumentID: "empty", Facts: []domain.FinancialFact{{InvoiceNumber: "INV-1"}}},
		analysisWithAmounts("a", "100"),
	}
	if anomalies := DetectAnomalies(analyses); anomalies != nil {
		t.Errorf("anomalies = %v, want none", anomalies)
	}
}
