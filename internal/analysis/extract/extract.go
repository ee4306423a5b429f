// Package extract pulls candidate financial figures out of raw, possibly
// OCR-noisy document text using ordered pattern families.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountCandidate is one parsed monetary match with its capture offsets in
// the source text, kept for context scoring.
type AmountCandidate struct {
	Value decimal.Decimal
	Start int
	End   int
}

// Extraction holds the four independent candidate lists produced by one
// pass over a document.
type Extraction struct {
	Amounts        []AmountCandidate
	InvoiceNumbers []string
	Dates          []time.Time
	TaxAmounts     []decimal.Decimal
	TaxRates       []decimal.Decimal
}

// Extractor applies the amount, invoice-number, date, and tax pattern
// families. Families run independently and never exit early; every match
// is collected. Matches whose capture fails to parse are dropped silently.
type Extractor struct {
	amountPatterns  []*regexp.Regexp
	invoicePatterns []*regexp.Regexp
	datePatterns    []*regexp.Regexp
	taxAmountRE     *regexp.Regexp
	taxRateRE       *regexp.Regexp
}

func NewExtractor() *Extractor {
	return &Extractor{
		amountPatterns: []*regexp.Regexp{
			// currency prefix: "KSh 1,000", "$1,200"
			regexp.MustCompile(`(?i)(?:ksh\.?|kes|sh\.?|usd|\$)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`),
			// currency suffix: "1,500 KES"
			regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(?:ksh\.?|kes|sh\.?|usd)\b`),
			// keyword-led bare figures: "Total: 12,000"
			regexp.MustCompile(`(?i)(?:total|amount|sum|due|balance|paid)\s*(?:amount)?\s*[:=]?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`),
		},
		invoicePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)invoice\s*#\s*([A-Z0-9][A-Z0-9/-]*)`),
			regexp.MustCompile(`(?i)invoice\s*(?:no|number)\.?\s*:?\s*([A-Z0-9][A-Z0-9/-]*)`),
			regexp.MustCompile(`(?i)\b(INV[-/][A-Z0-9][A-Z0-9/-]*)`),
		},
		datePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
			regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{4})\b`),
			regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4})\b`),
			regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},?\s+\d{4})\b`),
		},
		taxAmountRE: regexp.MustCompile(`(?i)(?:vat|tax)\s*(?:amount)?\s*[:=]?\s*(?:ksh\.?|kes|\$)?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(%?)`),
		taxRateRE:   regexp.MustCompile(`(?i)(?:vat|tax)\s*(?:rate)?\s*(?:of)?\s*[:=]?\s*([0-9]{1,2}(?:\.[0-9]+)?)\s*%`),
	}
}

func (e *Extractor) Extract(text string) Extraction {
	return Extraction{
		Amounts:        e.extractAmounts(text),
		InvoiceNumbers: e.extractInvoiceNumbers(text),
		Dates:          e.extractDates(text),
		TaxAmounts:     e.extractTaxAmounts(text),
		TaxRates:       e.extractTaxRates(text),
	}
}

func (e *Extractor) extractAmounts(text string) []AmountCandidate {
	var out []AmountCandidate
	for _, pattern := range e.amountPatterns {
		for _, idx := range pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2], idx[3]
			if start < 0 {
				continue
			}
			value, ok := parseAmount(text[start:end])
			if !ok {
				continue
			}
			// Pattern families overlap on figures like "Total: KSh 1,000";
			// a capture covering an already collected span is the same figure.
			if overlapsAny(out, start, end) {
				continue
			}
			out = append(out, AmountCandidate{Value: value, Start: start, End: end})
		}
	}
	return out
}

func (e *Extractor) extractInvoiceNumbers(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, pattern := range e.invoicePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			number := strings.ToUpper(strings.TrimSpace(match[1]))
			if number == "" {
				continue
			}
			if _, ok := seen[number]; ok {
				continue
			}
			seen[number] = struct{}{}
			out = append(out, number)
		}
	}
	return out
}

func (e *Extractor) extractDates(text string) []time.Time {
	var out []time.Time
	for _, pattern := range e.datePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			parsed, ok := parseFuzzyDate(match[1])
			if !ok {
				continue
			}
			out = append(out, parsed)
		}
	}
	return out
}

func (e *Extractor) extractTaxAmounts(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, match := range e.taxAmountRE.FindAllStringSubmatch(text, -1) {
		if match[2] == "%" {
			// A percentage is a rate, not an amount.
			continue
		}
		value, ok := parseAmount(match[1])
		if !ok {
			continue
		}
		out = append(out, value)
	}
	return out
}

func (e *Extractor) extractTaxRates(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, match := range e.taxRateRE.FindAllStringSubmatch(text, -1) {
		value, err := decimal.NewFromString(match[1])
		if err != nil {
			continue
		}
		out = append(out, value)
	}
	return out
}

// parseAmount strips thousands separators and parses a fixed-precision
// decimal. Malformed or negative captures are dropped, not coerced.
func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil || value.IsNegative() {
		return decimal.Decimal{}, false
	}
	return value, true
}

var ordinalRE = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)`)

var dateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"Jan 2 2006",
}

// parseFuzzyDate tolerates ordinal suffixes, commas, and mixed casing.
func parseFuzzyDate(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", " "))
	cleaned = ordinalRE.ReplaceAllString(cleaned, "$1")
	words := strings.Fields(strings.ToLower(cleaned))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	cleaned = strings.Join(words, " ")
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, cleaned); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func overlapsAny(candidates []AmountCandidate, start, end int) bool {
	for _, c := range candidates {
		if start < c.End && end > c.Start {
			return true
		}
	}
	return false
}
