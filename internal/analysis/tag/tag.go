// Package tag derives categorical labels from a document's classification,
// entities, and financial facts.
package tag

import (
	"github.com/shopspring/decimal"

	"github.com/biasharahub/docintel/internal/core/domain"
)

var (
	highValueLevel = decimal.NewFromInt(1_000_000)
	lowValueLevel  = decimal.NewFromInt(10_000)
)

// Generate returns a deduplicated tag set in first-derived order. high_value
// and high_risk intentionally duplicate the same signal so downstream
// filters can key on either.
func Generate(docType domain.DocumentType, entities domain.EntityBundle, facts []domain.FinancialFact) []string {
	var tags []string
	tags = append(tags, string(docType))

	for _, company := range entities.Companies {
		tags = append(tags, "company:"+company)
	}
	for _, code := range entities.ProjectCodes {
		tags = append(tags, "project:"+code)
	}

	for _, fact := range facts {
		if fact.Amount != nil && fact.Amount.GreaterThan(highValueLevel) {
			tags = append(tags, "high_value")
		}
		if fact.Amount != nil && fact.Amount.LessThan(lowValueLevel) {
			tags = append(tags, "low_value")
		}
		if fact.TaxAmount != nil {
			tags = append(tags, "has_tax")
		}
		if fact.Amount != nil && fact.Amount.GreaterThan(highValueLevel) {
			tags = append(tags, "high_risk")
		}
	}

	return dedupe(tags)
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
