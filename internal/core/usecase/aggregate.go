package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/biasharahub/docintel/internal/analysis/risk"
	"github.com/biasharahub/docintel/internal/core/domain"
)

const highRiskThreshold = 0.7

// AggregateInsights folds a batch of analyses into portfolio-level
// insights. It is a pure function of its input: totals, counts, and the
// anomaly pass are recomputed fresh on every call, and the result does not
// depend on input ordering.
func AggregateInsights(analyses []domain.DocumentAnalysis) domain.PortfolioInsights {
	insights := domain.PortfolioInsights{
		DocumentCount:   len(analyses),
		TotalValue:      decimal.Zero,
		CountsByType:    make(map[domain.DocumentType]int),
		CountsByCompany: make(map[string]int),
		MonthlyValues:   make(map[string]decimal.Decimal),
	}

	riskSum := 0.0
	for _, analysis := range analyses {
		total := analysis.TotalAmount()
		insights.TotalValue = insights.TotalValue.Add(total)
		insights.CountsByType[analysis.DocumentType]++
		for _, company := range analysis.Entities.Companies {
			insights.CountsByCompany[company]++
		}

		if month, ok := firstFactMonth(analysis); ok {
			insights.MonthlyValues[month] = insights.MonthlyValues[month].Add(total)
		}

		riskSum += analysis.RiskScore
		if analysis.RiskScore > highRiskThreshold {
			insights.HighRiskCount++
		}
	}
	if len(analyses) > 0 {
		insights.AverageRiskScore = riskSum / float64(len(analyses))
	}

	insights.Anomalies = risk.DetectAnomalies(analyses)
	return insights
}

// firstFactMonth buckets a document by the first dated fact it carries.
func firstFactMonth(analysis domain.DocumentAnalysis) (string, bool) {
	for _, fact := range analysis.Facts {
		if fact.Date != nil {
			return fact.Date.Format("2006-01"), true
		}
	}
	return "", false
}
