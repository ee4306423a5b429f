// Package classify assigns a document type using strict pattern rules
// first and a permissive keyword-frequency fallback second, preferring
// precision over recall.
package classify

import (
	"regexp"
	"strings"

	"github.com/biasharahub/docintel/internal/core/domain"
)

type Result struct {
	Type       domain.DocumentType
	Confidence float64
}

type typeProfile struct {
	patterns []*regexp.Regexp
	keywords []string
}

type Classifier struct {
	profiles map[domain.DocumentType]typeProfile
}

func New() *Classifier {
	return &Classifier{
		profiles: map[domain.DocumentType]typeProfile{
			domain.TypeInvoice: {
				patterns: compile(
					`(?i)invoice\s*#`,
					`(?i)invoice\s*(?:no|number)\b`,
					`(?i)\binv[-/][A-Z0-9]`,
					`(?i)\bamount\s+due\b`,
					`(?i)\bpayment\s+terms\b`,
				),
				keywords: []string{"invoice", "bill to", "amount due", "due date", "payment terms"},
			},
			domain.TypeReceipt: {
				patterns: compile(
					`(?i)receipt\s*(?:no|number|#)`,
					`(?i)\breceived\s+from\b`,
					`(?i)\bcash\s+sale\b`,
					`(?i)\bchange\s+due\b`,
					`(?i)\bmpesa\s+(?:ref|code|confirmation)\b`,
				),
				keywords: []string{"receipt", "received", "cash", "till", "mpesa", "change"},
			},
			domain.TypeContract: {
				patterns: compile(
					`(?i)\bagreement\s+(?:is\s+)?(?:made|entered)\b`,
					`(?i)\bparty\s+of\s+the\s+first\s+part\b`,
					`(?i)\bhereinafter\b`,
					`(?i)\bwitnesseth\b`,
					`(?i)\bterms\s+and\s+conditions\b`,
				),
				keywords: []string{"contract", "agreement", "parties", "obligations", "termination", "clause"},
			},
			domain.TypeBankStatement: {
				patterns: compile(
					`(?i)\bstatement\s+of\s+account\b`,
					`(?i)\bopening\s+balance\b`,
					`(?i)\bclosing\s+balance\b`,
					`(?i)\baccount\s+(?:no|number)\b`,
					`(?i)\bstatement\s+period\b`,
				),
				keywords: []string{"statement", "balance", "deposit", "withdrawal", "account", "transaction"},
			},
			domain.TypeTaxDocument: {
				patterns: compile(
					`(?i)\bvat\s+return\b`,
					`(?i)\btax\s+return\b`,
					`(?i)\bwithholding\s+tax\b`,
					`(?i)\bkra\s+pin\b`,
					`(?i)\bpin\s*:?\s*[A-Z]\d{9}[A-Z]\b`,
				),
				keywords: []string{"tax", "vat", "kra", "pin", "withholding", "itax"},
			},
			domain.TypeTenderDocument: {
				patterns: compile(
					`(?i)\btender\s*(?:no|number|ref)\b`,
					`(?i)\binvitation\s+to\s+tender\b`,
					`(?i)\brequest\s+for\s+(?:proposal|quotation)\b`,
					`(?i)\bbid\s+(?:bond|security)\b`,
					`(?i)\bpre[-\s]?bid\b`,
				),
				keywords: []string{"tender", "bid", "proposal", "procurement", "quotation", "rfp"},
			},
		},
	}
}

// Classify scores every known type and returns the winner; declaration
// order of domain.DocumentTypes breaks ties. A text matching nothing is
// "other" with zero confidence.
func (c *Classifier) Classify(text string) Result {
	lowered := strings.ToLower(text)

	best := Result{Type: domain.TypeOther, Confidence: 0}
	for _, docType := range domain.DocumentTypes {
		score := c.scoreType(text, lowered, c.profiles[docType])
		if score > best.Confidence {
			best = Result{Type: docType, Confidence: score}
		}
	}
	if best.Confidence == 0 {
		return Result{Type: domain.TypeOther, Confidence: 0}
	}
	return best
}

func (c *Classifier) scoreType(text, lowered string, profile typeProfile) float64 {
	hits := 0
	for _, pattern := range profile.patterns {
		if pattern.MatchString(text) {
			hits++
		}
	}
	score := 0.3 * float64(hits)
	if score > 1.0 {
		score = 1.0
	}

	// Keyword fallback raises the score, never lowers it.
	present := 0
	for _, keyword := range profile.keywords {
		if strings.Contains(lowered, keyword) {
			present++
		}
	}
	if kwScore := 0.2 * float64(present); kwScore > score {
		score = kwScore
	}
	return domain.Clamp(score)
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}
