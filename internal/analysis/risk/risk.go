// Package risk computes per-document risk scores from extracted facts and
// flags population-level statistical outliers across a batch.
package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/biasharahub/docintel/internal/analysis/entity"
	"github.com/biasharahub/docintel/internal/core/domain"
)

const anomalyThreshold = 2.5

var (
	highValueLevel = decimal.NewFromInt(1_000_000)
	midValueLevel  = decimal.NewFromInt(100_000)
)

type Scorer struct {
	registry entity.Registry
}

func NewScorer(registry entity.Registry) *Scorer {
	return &Scorer{registry: registry}
}

// Score accumulates the fixed risk weights and clamps to [0,1]. The weights
// are behavioral constants, not tunables.
func (s *Scorer) Score(docType domain.DocumentType, facts []domain.FinancialFact, companies []string) float64 {
	score := 0.0

	total := decimal.Zero
	for _, fact := range facts {
		if fact.Amount != nil {
			total = total.Add(*fact.Amount)
		}
	}
	switch {
	case total.GreaterThan(highValueLevel):
		score += 0.3
	case total.GreaterThan(midValueLevel):
		score += 0.2
	}

	if docType == domain.TypeContract || docType == domain.TypeTenderDocument {
		score += 0.2
	}

	for _, company := range companies {
		if !s.registry.Contains(company) {
			score += 0.1
		}
	}

	for _, fact := range facts {
		if fact.Amount == nil {
			score += 0.05
		}
		if fact.Date == nil {
			score += 0.05
		}
		if fact.InvoiceNumber == "" {
			score += 0.05
		}
	}

	return domain.Clamp(score)
}

// DetectAnomalies runs two-and-a-half-sigma outlier flagging over every
// extracted amount in the batch. Statistics are recomputed fresh per call;
// fewer than two amounts (or a zero spread) yields no anomalies.
func DetectAnomalies(analyses []domain.DocumentAnalysis) []domain.AmountAnomaly {
	type observation struct {
		documentID string
		amount     decimal.Decimal
		value      float64
	}
	var observations []observation
	for _, analysis := range analyses {
		for _, fact := range analysis.Facts {
			if fact.Amount == nil {
				continue
			}
			observations = append(observations, observation{
				documentID: analysis.DocumentID,
				amount:     *fact.Amount,
				value:      fact.Amount.InexactFloat64(),
			})
		}
	}
	if len(observations) < 2 {
		return nil
	}

	mean := 0.0
	for _, obs := range observations {
		mean += obs.value
	}
	mean /= float64(len(observations))

	variance := 0.0
	for _, obs := range observations {
		dev := obs.value - mean
		variance += dev * dev
	}
	variance /= float64(len(observations) - 1)
	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return nil
	}

	var anomalies []domain.AmountAnomaly
	for _, obs := range observations {
		z := math.Abs(obs.value-mean) / stdDev
		if z > anomalyThreshold {
			anomalies = append(anomalies, domain.AmountAnomaly{
				DocumentID:     obs.documentID,
				Amount:         obs.amount,
				DeviationScore: z,
			})
		}
	}
	return anomalies
}
