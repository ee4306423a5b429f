// Package entity cleans recognized entity spans and resolves organization
// names against a known-entity registry by fuzzy string similarity.
package entity

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/biasharahub/docintel/internal/core/domain"
)

// matchThreshold is the minimum normalized similarity for a raw
// organization name to be replaced by a registry canonical name.
const matchThreshold = 0.80

var projectCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)project\s*#\s*:?\s*([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)job\s*#\s*:?\s*([A-Z0-9-]+)`),
	regexp.MustCompile(`\b([A-Z]{2,4}\d{3,6})\b`),
}

var punctuationRE = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

type Normalizer struct {
	registry Registry
	metric   *metrics.Levenshtein
}

func NewNormalizer(registry Registry) *Normalizer {
	return &Normalizer{
		registry: registry,
		metric:   metrics.NewLevenshtein(),
	}
}

// Bundle folds recognized spans plus a project-code scan of the raw text
// into one deduplicated EntityBundle. Lists preserve first-seen order.
func (n *Normalizer) Bundle(spans []domain.EntitySpan, text string) domain.EntityBundle {
	var companies, people, locations, dates, amounts []string
	for _, span := range spans {
		value := strings.TrimSpace(span.Text)
		if value == "" {
			continue
		}
		switch span.Category {
		case domain.EntityOrganization:
			companies = append(companies, n.NormalizeCompany(value))
		case domain.EntityPerson:
			people = append(people, value)
		case domain.EntityPlace:
			locations = append(locations, value)
		case domain.EntityDate:
			dates = append(dates, value)
		case domain.EntityMoney:
			amounts = append(amounts, value)
		}
	}
	return domain.EntityBundle{
		Companies:    dedupe(companies),
		People:       dedupe(people),
		Locations:    dedupe(locations),
		Dates:        dedupe(dates),
		Amounts:      dedupe(amounts),
		ProjectCodes: dedupe(n.extractProjectCodes(text)),
	}
}

// NormalizeCompany strips punctuation, uppercases, and snaps the result to
// the closest registry entry when similarity clears the threshold. Below
// the threshold the cleaned raw text is kept as-is.
func (n *Normalizer) NormalizeCompany(raw string) string {
	cleaned := CleanName(raw)
	if cleaned == "" {
		return cleaned
	}

	bestScore := 0.0
	bestName := ""
	for _, canonical := range n.registry.Names() {
		score := strutil.Similarity(cleaned, canonical, n.metric)
		if score > bestScore {
			bestScore = score
			bestName = canonical
		}
	}
	if bestScore >= matchThreshold {
		return bestName
	}
	return cleaned
}

// CleanName removes punctuation, collapses whitespace, and uppercases.
func CleanName(raw string) string {
	cleaned := punctuationRE.ReplaceAllString(raw, "")
	return strings.ToUpper(strings.Join(strings.Fields(cleaned), " "))
}

func (n *Normalizer) extractProjectCodes(text string) []string {
	var out []string
	for _, pattern := range projectCodePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			code := strings.ToUpper(strings.TrimSpace(match[1]))
			if code != "" {
				out = append(out, code)
			}
		}
	}
	return out
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
