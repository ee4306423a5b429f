package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/biasharahub/docintel/internal/core/domain"
)

type fakeGenerator struct {
	available bool
	response  string
	err       error
	prompt    string
}

func (f *fakeGenerator) Available(context.Context) bool {
	return f.available
}

func (f *fakeGenerator) ListModels(context.Context) ([]string, error) {
	return []string{"test-model"}, nil
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func baseAnalysis() *domain.DocumentAnalysis {
	return &domain.DocumentAnalysis{
		DocumentID:   "doc-1",
		DocumentType: domain.TypeInvoice,
		Facts: []domain.FinancialFact{
			{Amount: amountPtr("150000"), Currency: "KES", InvoiceNumber: "INV-001", Confidence: 0.9},
		},
		RiskScore:  0.2,
		AnalyzedAt: time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC),
	}
}

func TestAugmentAddsNarrativeKeys(t *testing.T) {
	generator := &fakeGenerator{
		available: true,
		response: `{"summary":"An invoice from Acme","key_points":["net 30"],` +
			`"insights":["repeat vendor"],"recommendations":["pay on time"],` +
			`"risk_assessment":"low","confidence":0.85}`,
	}
	augmenter := NewNarrativeAugmenter(generator, time.Second, testLogger())
	analysis := baseAnalysis()

	augmenter.Augment(context.Background(), analysis, "Invoice #INV-001 Total KSh 150,000")

	if analysis.BusinessInsights["summary"] != "An invoice from Acme" {
		t.Errorf("summary = %v", analysis.BusinessInsights["summary"])
	}
	if !reflect.DeepEqual(analysis.BusinessInsights["key_points"], []string{"net 30"}) {
		t.Errorf("key_points = %v", analysis.BusinessInsights["key_points"])
	}
	if analysis.BusinessInsights["risk_assessment"] != "low" {
		t.Errorf("risk_assessment = %v", analysis.BusinessInsights["risk_assessment"])
	}
	if analysis.BusinessInsights["narrative_confidence"] != 0.85 {
		t.Errorf("narrative_confidence = %v", analysis.BusinessInsights["narrative_confidence"])
	}
}

func TestAugmentParsesJSONEmbeddedInProse(t *testing.T) {
	generator := &fakeGenerator{
		available: true,
		response:  "Sure, here is the JSON:\n{\"summary\":\"ok\",\"confidence\":0.7}\nHope that helps!",
	}
	augmenter := NewNarrativeAugmenter(generator, time.Second, testLogger())
	analysis := baseAnalysis()

	augmenter.Augment(context.Background(), analysis, "text")

	if analysis.BusinessInsights["summary"] != "ok" {
		t.Errorf("summary = %v, want ok", analysis.BusinessInsights["summary"])
	}
	if !reflect.DeepEqual(analysis.BusinessInsights["key_points"], []string{}) {
		t.Errorf("key_points = %v, want empty slice", analysis.BusinessInsights["key_points"])
	}
}

func TestAugmentNoJSONFallsBackToRawSummary(t *testing.T) {
	generator := &fakeGenerator{available: true, response: "  plain prose answer  "}
	augmenter := NewNarrativeAugmenter(generator, time.Second, testLogger())
	analysis := baseAnalysis()

	augmenter.Augment(context.Background(), analysis, "text")

	if analysis.BusinessInsights["summary"] != "plain prose answer" {
		t.Errorf("summary = %v, want trimmed raw text", analysis.BusinessInsights["summary"])
	}
	if analysis.BusinessInsights["narrative_confidence"] != 0.5 {
		t.Errorf("narrative_confidence = %v, want 0.5", analysis.BusinessInsights["narrative_confidence"])
	}
}

func TestAugmentUnavailableLeavesAnalysisUntouched(t *testing.T) {
	augmenter := NewNarrativeAugmenter(&fakeGenerator{available: false}, time.Second, testLogger())
	analysis := baseAnalysis()
	before := *analysis

	augmenter.Augment(context.Background(), analysis, "text")

	if analysis.BusinessInsights != nil {
		t.Errorf("business insights = %v, want nil", analysis.BusinessInsights)
	}
	if !reflect.DeepEqual(*analysis, before) {
		t.Error("analysis mutated by unavailable augmenter")
	}
}

func TestAugmentGenerationErrorLeavesAnalysisUntouched(t *testing.T) {
	generator := &fakeGenerator{available: true, err: errors.New("backend gone")}
	augmenter := NewNarrativeAugmenter(generator, time.Second, testLogger())
	analysis := baseAnalysis()

	augmenter.Augment(context.Background(), analysis, "text")

	if analysis.BusinessInsights != nil {
		t.Errorf("business insights = %v, want nil", analysis.BusinessInsights)
	}
}

func TestAugmentNilAugmenterIsSafe(t *testing.T) {
	var augmenter *NarrativeAugmenter
	analysis := baseAnalysis()

	augmenter.Augment(context.Background(), analysis, "text")

	if analysis.BusinessInsights != nil {
		t.Errorf("business insights = %v, want nil", analysis.BusinessInsights)
	}
}

func TestAugmentPromptCarriesTypeFactsAndExcerpt(t *testing.T) {
	generator := &fakeGenerator{available: true, response: "{}"}
	augmenter := NewNarrativeAugmenter(generator, time.Second, testLogger())

	longText := strings.Repeat("x", 3000)
	augmenter.Augment(context.Background(), baseAnalysis(), longText)

	if !strings.Contains(generator.prompt, "invoice") {
		t.Error("prompt missing document type")
	}
	if !strings.Contains(generator.prompt, "INV-001") {
		t.Error("prompt missing fact line")
	}
	if !strings.Contains(generator.prompt, strings.Repeat("x", 2000)) {
		t.Error("prompt missing full excerpt")
	}
	if strings.Contains(generator.prompt, strings.Repeat("x", 2001)) {
		t.Error("excerpt not capped at 2000 characters")
	}
}
