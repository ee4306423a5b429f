package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/biasharahub/docintel/internal/core/domain"
	"github.com/biasharahub/docintel/internal/core/ports"
)

const narrativeExcerptLimit = 2000

// NarrativeAugmenter optionally enriches a finished analysis with a
// generated business narrative. It can never fail the pipeline: any error,
// timeout, or unavailable backend leaves the analysis exactly as it was.
type NarrativeAugmenter struct {
	generator ports.NarrativeGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

func NewNarrativeAugmenter(generator ports.NarrativeGenerator, timeout time.Duration, logger *slog.Logger) *NarrativeAugmenter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NarrativeAugmenter{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

type narrativePayload struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	RiskAssessment  string   `json:"risk_assessment"`
	Confidence      float64  `json:"confidence"`
}

// Augment adds narrative keys to the analysis' businessInsights map.
// Additions are strictly additive; base fields are never touched.
func (n *NarrativeAugmenter) Augment(ctx context.Context, analysis *domain.DocumentAnalysis, text string) {
	if n == nil || n.generator == nil || analysis == nil {
		return
	}
	if !n.generator.Available(ctx) {
		n.logger.Debug("narrative generation unavailable, skipping",
			"document_id", analysis.DocumentID,
		)
		return
	}

	genCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	raw, err := n.generator.Generate(genCtx, buildNarrativePrompt(analysis, text))
	if err != nil {
		n.logger.Warn("narrative generation failed, analysis left unmodified",
			"document_id", analysis.DocumentID,
			"error", err,
		)
		return
	}

	payload := parseNarrative(raw)
	if analysis.BusinessInsights == nil {
		analysis.BusinessInsights = make(map[string]any)
	}
	analysis.BusinessInsights["summary"] = payload.Summary
	analysis.BusinessInsights["key_points"] = payload.KeyPoints
	analysis.BusinessInsights["insights"] = payload.Insights
	analysis.BusinessInsights["recommendations"] = payload.Recommendations
	analysis.BusinessInsights["risk_assessment"] = payload.RiskAssessment
	analysis.BusinessInsights["narrative_confidence"] = payload.Confidence
}

func buildNarrativePrompt(analysis *domain.DocumentAnalysis, text string) string {
	excerpt := text
	if len(excerpt) > narrativeExcerptLimit {
		excerpt = excerpt[:narrativeExcerptLimit]
	}

	var facts strings.Builder
	for _, fact := range analysis.Facts {
		amount := "unknown"
		if fact.Amount != nil {
			amount = fact.Amount.String()
		}
		facts.WriteString(fmt.Sprintf("- amount=%s %s invoice=%s confidence=%.2f\n",
			amount, fact.Currency, fact.InvoiceNumber, fact.Confidence))
	}

	return fmt.Sprintf(`You are a business analyst for a multi-company ledger.
Return a strict JSON object with keys:
summary (string), key_points (array of strings), insights (array of strings),
recommendations (array of strings), risk_assessment (string), confidence (number from 0 to 1).
No markdown, no extra keys.

Document type: %s

Extracted facts:
%s
Document excerpt:
%s`, analysis.DocumentType, facts.String(), excerpt)
}

// parseNarrative is deliberately defensive: if a JSON object can be located
// it is parsed with missing fields defaulting to zero values; if none can
// be found the raw text becomes the summary at confidence 0.5.
func parseNarrative(raw string) narrativePayload {
	var payload narrativePayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return narrativePayload{
			Summary:         strings.TrimSpace(raw),
			KeyPoints:       []string{},
			Insights:        []string{},
			Recommendations: []string{},
			Confidence:      0.5,
		}
	}
	if payload.KeyPoints == nil {
		payload.KeyPoints = []string{}
	}
	if payload.Insights == nil {
		payload.Insights = []string{}
	}
	if payload.Recommendations == nil {
		payload.Recommendations = []string{}
	}
	return payload
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
