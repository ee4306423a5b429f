package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/biasharahub/docintel/internal/analysis/classify"
	"github.com/biasharahub/docintel/internal/analysis/entity"
	"github.com/biasharahub/docintel/internal/analysis/extract"
	"github.com/biasharahub/docintel/internal/analysis/risk"
	"github.com/biasharahub/docintel/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type fakeRecognizer struct {
	available bool
	spans     []domain.EntitySpan
	err       error
}

func (f *fakeRecognizer) Available(context.Context) bool {
	return f.available
}

func (f *fakeRecognizer) RecognizeEntities(context.Context, string) ([]domain.EntitySpan, error) {
	return f.spans, f.err
}

func newAnalyzeUseCase(registry entity.Registry, recognizer *fakeRecognizer) *AnalyzeDocumentUseCase {
	return NewAnalyzeDocumentUseCase(
		extract.NewExtractor(),
		classify.New(),
		entity.NewNormalizer(registry),
		risk.NewScorer(registry),
		recognizer,
		testLogger(),
	)
}

const invoiceText = "Invoice #INV-2024-001\nDate: 12 March 2024\nTotal Amount: KSh 150,000.00\nVendor: Bank of Africa"

func TestAnalyzeInvoiceEndToEnd(t *testing.T) {
	recognizer := &fakeRecognizer{
		available: true,
		spans: []domain.EntitySpan{
			{Text: "Bank of Africa", Category: domain.EntityOrganization},
		},
	}
	uc := newAnalyzeUseCase(entity.NewRegistry(nil), recognizer)

	analysis, err := uc.Analyze(context.Background(), "doc-1", invoiceText, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if analysis.DocumentType != domain.TypeInvoice {
		t.Errorf("type = %s, want invoice", analysis.DocumentType)
	}
	if len(analysis.Facts) != 1 {
		t.Fatalf("facts = %v, want exactly one", analysis.Facts)
	}
	fact := analysis.Facts[0]
	if fact.Amount == nil || !fact.Amount.Equal(decimal.RequireFromString("150000")) {
		t.Errorf("amount = %v, want 150000", fact.Amount)
	}
	if fact.Currency != domain.DefaultCurrency {
		t.Errorf("currency = %q, want %q", fact.Currency, domain.DefaultCurrency)
	}
	if fact.InvoiceNumber != "INV-2024-001" {
		t.Errorf("invoice number = %q, want INV-2024-001", fact.InvoiceNumber)
	}
	wantDate := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	if fact.Date == nil || !fact.Date.Equal(wantDate) {
		t.Errorf("date = %v, want %s", fact.Date, wantDate)
	}
	if fact.VendorName != "BANK OF AFRICA" {
		t.Errorf("vendor = %q, want BANK OF AFRICA", fact.VendorName)
	}
	if fact.Confidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", fact.Confidence)
	}

	if len(analysis.Entities.Companies) != 1 || analysis.Entities.Companies[0] != "BANK OF AFRICA" {
		t.Errorf("companies = %v, want [BANK OF AFRICA]", analysis.Entities.Companies)
	}
	if !containsTag(analysis.Tags, "invoice") {
		t.Errorf("tags = %v, want to contain invoice", analysis.Tags)
	}
	if !containsTag(analysis.Tags, "company:BANK OF AFRICA") {
		t.Errorf("tags = %v, want to contain company tag", analysis.Tags)
	}
	if analysis.RiskScore <= 0 {
		t.Errorf("risk score = %v, want > 0", analysis.RiskScore)
	}
	if analysis.DuplicateScore != 0 || analysis.DuplicateOf != "" {
		t.Errorf("duplicate = %v/%q, want none", analysis.DuplicateScore, analysis.DuplicateOf)
	}
	if analysis.Fingerprint.Digest == "" {
		t.Error("fingerprint digest is empty")
	}
	if analysis.AnalyzedAt.IsZero() {
		t.Error("analyzed at not set")
	}
}

func TestAnalyzeRecognizerUnavailableDegradesToEmptyEntities(t *testing.T) {
	uc := newAnalyzeUseCase(entity.NewRegistry(nil), &fakeRecognizer{available: false})

	analysis, err := uc.Analyze(context.Background(), "doc-1", invoiceText, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(analysis.Entities.Companies) != 0 {
		t.Errorf("companies = %v, want none", analysis.Entities.Companies)
	}
	if len(analysis.Entities.ProjectCodes) != 0 {
		t.Errorf("project codes = %v, want none when recognition is down", analysis.Entities.ProjectCodes)
	}
	if len(analysis.Facts) != 1 {
		t.Fatalf("facts = %v, want one; extraction must not degrade", analysis.Facts)
	}
	if analysis.Facts[0].VendorName != "" {
		t.Errorf("vendor = %q, want empty", analysis.Facts[0].VendorName)
	}
}

func TestAnalyzeRecognizerErrorDegradesToEmptyEntities(t *testing.T) {
	recognizer := &fakeRecognizer{available: true, err: errors.New("model crashed")}
	uc := newAnalyzeUseCase(entity.NewRegistry(nil), recognizer)

	analysis, err := uc.Analyze(context.Background(), "doc-1", invoiceText, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analysis.Entities.Companies) != 0 {
		t.Errorf("companies = %v, want none", analysis.Entities.Companies)
	}
}

func TestAnalyzeDetectsDuplicateOfPrior(t *testing.T) {
	uc := newAnalyzeUseCase(entity.NewRegistry(nil), &fakeRecognizer{})

	first, err := uc.Analyze(context.Background(), "doc-1", invoiceText, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	priors := []domain.PriorDocument{{DocumentID: "doc-1", Fingerprint: first.Fingerprint}}

	second, err := uc.Analyze(context.Background(), "doc-2", invoiceText, priors)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if second.DuplicateScore != 1.0 {
		t.Errorf("duplicate score = %v, want 1.0", second.DuplicateScore)
	}
	if second.DuplicateOf != "doc-1" {
		t.Errorf("duplicate of = %q, want doc-1", second.DuplicateOf)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	uc := newAnalyzeUseCase(entity.NewRegistry(nil), &fakeRecognizer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Analyze(ctx, "doc-1", invoiceText, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
