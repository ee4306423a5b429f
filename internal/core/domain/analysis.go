package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	TypeInvoice        DocumentType = "invoice"
	TypeReceipt        DocumentType = "receipt"
	TypeContract       DocumentType = "contract"
	TypeBankStatement  DocumentType = "bank_statement"
	TypeTaxDocument    DocumentType = "tax_document"
	TypeTenderDocument DocumentType = "tender_document"
	TypeOther          DocumentType = "other"
)

// DocumentTypes lists every classifiable type in declaration order.
// Classification ties are broken by this order.
var DocumentTypes = []DocumentType{
	TypeInvoice,
	TypeReceipt,
	TypeContract,
	TypeBankStatement,
	TypeTaxDocument,
	TypeTenderDocument,
}

const DefaultCurrency = "KES"

// FinancialFact is one extracted monetary fact. It is assembled once per
// extraction pass and never mutated afterwards.
type FinancialFact struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency"`
	Date          *time.Time       `json:"date,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	VendorName    string           `json:"vendor_name,omitempty"`
	ProjectCode   string           `json:"project_code,omitempty"`
	Confidence    float64          `json:"confidence"`
}

// EntityBundle groups normalized entity mentions by category. Lists preserve
// first-seen order and never contain empty or duplicate entries.
type EntityBundle struct {
	Companies    []string `json:"companies"`
	People       []string `json:"people"`
	Locations    []string `json:"locations"`
	Dates        []string `json:"dates"`
	Amounts      []string `json:"amounts"`
	ProjectCodes []string `json:"project_codes"`
}

// Fingerprint is a deterministic content signature. Two documents are
// duplicate candidates only when their digests are identical.
type Fingerprint struct {
	TopTokens     []string `json:"top_tokens"`
	LineCount     int      `json:"line_count"`
	AvgLineLength float64  `json:"avg_line_length"`
	TotalChars    int      `json:"total_chars"`
	Digest        string   `json:"digest"`
}

func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Digest != "" && f.Digest == other.Digest
}

// DocumentRef identifies a document in the external source.
type DocumentRef struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	MimeType string    `json:"mime_type,omitempty"`
	Created  time.Time `json:"created,omitempty"`
}

// PriorDocument carries a previously analyzed document's fingerprint for
// duplicate checks.
type PriorDocument struct {
	DocumentID  string      `json:"document_id"`
	Fingerprint Fingerprint `json:"fingerprint"`
}

// DocumentAnalysis is the per-document output of the pipeline. Base fields
// are immutable once the orchestrator returns; only BusinessInsights may
// gain keys afterwards (narrative augmentation is strictly additive).
type DocumentAnalysis struct {
	DocumentID               string          `json:"document_id"`
	DocumentType             DocumentType    `json:"document_type"`
	ClassificationConfidence float64         `json:"classification_confidence"`
	Facts                    []FinancialFact `json:"facts"`
	Entities                 EntityBundle    `json:"entities"`
	Tags                     []string        `json:"tags"`
	RiskScore                float64         `json:"risk_score"`
	DuplicateScore           float64         `json:"duplicate_score"`
	DuplicateOf              string          `json:"duplicate_of,omitempty"`
	Fingerprint              Fingerprint     `json:"fingerprint"`
	BusinessInsights         map[string]any  `json:"business_insights,omitempty"`
	AnalyzedAt               time.Time       `json:"analyzed_at"`
}

// TotalAmount sums every present fact amount.
func (a *DocumentAnalysis) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, fact := range a.Facts {
		if fact.Amount != nil {
			total = total.Add(*fact.Amount)
		}
	}
	return total
}

// AmountAnomaly flags one extracted amount as a statistical outlier within
// a batch population.
type AmountAnomaly struct {
	DocumentID     string          `json:"document_id"`
	Amount         decimal.Decimal `json:"amount"`
	DeviationScore float64         `json:"deviation_score"`
}

// PortfolioInsights is the aggregate over one analyzed batch. It is
// recomputed fresh on every aggregation call.
type PortfolioInsights struct {
	DocumentCount    int                        `json:"document_count"`
	TotalValue       decimal.Decimal            `json:"total_value"`
	CountsByType     map[DocumentType]int       `json:"counts_by_type"`
	CountsByCompany  map[string]int             `json:"counts_by_company"`
	MonthlyValues    map[string]decimal.Decimal `json:"monthly_values"`
	HighRiskCount    int                        `json:"high_risk_count"`
	AverageRiskScore float64                    `json:"average_risk_score"`
	Anomalies        []AmountAnomaly            `json:"anomalies"`
}

// BatchResult reports one batch run: every analysis the run completed plus
// an accurate listed-vs-processed accounting, so skipped documents are
// never a silent drop.
type BatchResult struct {
	RunID      string             `json:"run_id"`
	Listed     int                `json:"listed"`
	Processed  int                `json:"processed"`
	Skipped    int                `json:"skipped"`
	Analyses   []DocumentAnalysis `json:"analyses"`
	Insights   PortfolioInsights  `json:"insights"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// EntityCategory labels a recognized span from the NLP capability.
type EntityCategory string

const (
	EntityOrganization EntityCategory = "organization"
	EntityPerson       EntityCategory = "person"
	EntityPlace        EntityCategory = "place"
	EntityDate         EntityCategory = "date"
	EntityMoney        EntityCategory = "money"
)

// EntitySpan is one labeled span returned by the entity-recognition capability.
type EntitySpan struct {
	Text     string         `json:"text"`
	Category EntityCategory `json:"category"`
}

// Clamp bounds v to [0,1]. Risk and confidence scores are always clamped.
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
