package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

const contextWindow = 50

var financialKeywords = []string{"total", "amount", "sum", "due", "payment", "invoice", "bill"}

var currencyIndicators = []string{"sh", "kes", "usd", "$", "ksh"}

var (
	noiseFloor   = decimal.NewFromInt(100)
	summaryLevel = decimal.NewFromInt(1_000_000)
)

// ScoreAmount rates how likely a candidate is a principal figure, from the
// 50 characters of context either side of its match. Deterministic and
// order-independent across keyword checks; always in [0,1].
func ScoreAmount(text string, candidate AmountCandidate) float64 {
	start := candidate.Start - contextWindow
	if start < 0 {
		start = 0
	}
	end := candidate.End + contextWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	score := 0.5
	for _, keyword := range financialKeywords {
		if strings.Contains(window, keyword) {
			score += 0.1
		}
	}
	for _, indicator := range currencyIndicators {
		if strings.Contains(window, indicator) {
			score += 0.1
		}
	}
	if candidate.Value.LessThan(noiseFloor) {
		score -= 0.2
	}
	if candidate.Value.GreaterThan(summaryLevel) {
		score -= 0.1
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
