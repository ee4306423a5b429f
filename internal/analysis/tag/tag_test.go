package tag

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/biasharahub/docintel/internal/core/domain"
)

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestGenerateTypeAndEntityTags(t *testing.T) {
	entities := domain.EntityBundle{
		Companies:    []string{"ACME CORP"},
		ProjectCodes: []string{"PRJ-001"},
	}
	facts := []domain.FinancialFact{{Amount: amountPtr("50000")}}

	tags := Generate(domain.TypeInvoice, entities, facts)

	want := []string{"invoice", "company:ACME CORP", "project:PRJ-001"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestGenerateValueBands(t *testing.T) {
	facts := []domain.FinancialFact{
		{Amount: amountPtr("2000000"), TaxAmount: amountPtr("320000")},
		{Amount: amountPtr("500")},
	}

	tags := Generate(domain.TypeContract, domain.EntityBundle{}, facts)

	want := []string{"contract", "high_value", "has_tax", "high_risk", "low_value"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestGenerateDedupes(t *testing.T) {
	facts := []domain.FinancialFact{
		{Amount: amountPtr("2000000")},
		{Amount: amountPtr("3000000")},
	}

	tags := Generate(domain.TypeInvoice, domain.EntityBundle{}, facts)

	want := []string{"invoice", "high_value", "high_risk"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}
