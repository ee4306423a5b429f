package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/biasharahub/docintel/internal/core/domain"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analyses (
	document_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	document_type TEXT NOT NULL,
	classification_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	facts JSONB NOT NULL DEFAULT '[]'::jsonb,
	entities JSONB NOT NULL DEFAULT '{}'::jsonb,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	duplicate_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	duplicate_of TEXT,
	fingerprint JSONB NOT NULL,
	business_insights JSONB,
	analyzed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_run_id ON analyses(run_id);
CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at DESC);

CREATE TABLE IF NOT EXISTS portfolio_insights (
	run_id TEXT PRIMARY KEY,
	insights JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, runID string, analysis *domain.DocumentAnalysis) error {
	factsJSON, err := json.Marshal(analysis.Facts)
	if err != nil {
		return fmt.Errorf("marshal facts: %w", err)
	}
	entitiesJSON, err := json.Marshal(analysis.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	tagsJSON, err := json.Marshal(analysis.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	fingerprintJSON, err := json.Marshal(analysis.Fingerprint)
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}
	insightsJSON, err := json.Marshal(analysis.BusinessInsights)
	if err != nil {
		return fmt.Errorf("marshal business insights: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO analyses (
	document_id, run_id, document_type, classification_confidence, facts, entities, tags,
	risk_score, duplicate_score, duplicate_of, fingerprint, business_insights, analyzed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (document_id) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	document_type = EXCLUDED.document_type,
	classification_confidence = EXCLUDED.classification_confidence,
	facts = EXCLUDED.facts,
	entities = EXCLUDED.entities,
	tags = EXCLUDED.tags,
	risk_score = EXCLUDED.risk_score,
	duplicate_score = EXCLUDED.duplicate_score,
	duplicate_of = EXCLUDED.duplicate_of,
	fingerprint = EXCLUDED.fingerprint,
	business_insights = EXCLUDED.business_insights,
	analyzed_at = EXCLUDED.analyzed_at
`,
		analysis.DocumentID, runID, string(analysis.DocumentType), analysis.ClassificationConfidence,
		factsJSON, entitiesJSON, tagsJSON, analysis.RiskScore, analysis.DuplicateScore,
		nullableString(analysis.DuplicateOf), fingerprintJSON, insightsJSON, analysis.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetAnalysisByID(ctx context.Context, documentID string) (*domain.DocumentAnalysis, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT document_id, document_type, classification_confidence, facts, entities, tags,
	risk_score, duplicate_score, duplicate_of, fingerprint, business_insights, analyzed_at
FROM analyses
WHERE document_id = $1
`, documentID)

	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get analysis", err)
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return analysis, nil
}

func (r *AnalysisRepository) ListAnalysesByRun(ctx context.Context, runID string) ([]domain.DocumentAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT document_id, document_type, classification_confidence, facts, entities, tags,
	risk_score, duplicate_score, duplicate_of, fingerprint, business_insights, analyzed_at
FROM analyses
WHERE run_id = $1
ORDER BY analyzed_at
`, runID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentAnalysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		out = append(out, *analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

func (r *AnalysisRepository) ListPriorDocuments(ctx context.Context) ([]domain.PriorDocument, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT document_id, fingerprint FROM analyses`)
	if err != nil {
		return nil, fmt.Errorf("list prior documents: %w", err)
	}
	defer rows.Close()

	var out []domain.PriorDocument
	for rows.Next() {
		var prior domain.PriorDocument
		var fingerprintRaw []byte
		if err := rows.Scan(&prior.DocumentID, &fingerprintRaw); err != nil {
			return nil, fmt.Errorf("scan prior document: %w", err)
		}
		if err := json.Unmarshal(fingerprintRaw, &prior.Fingerprint); err != nil {
			return nil, fmt.Errorf("unmarshal fingerprint: %w", err)
		}
		out = append(out, prior)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prior documents: %w", err)
	}
	return out, nil
}

func (r *AnalysisRepository) SaveInsights(ctx context.Context, runID string, insights domain.PortfolioInsights) error {
	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO portfolio_insights (run_id, insights, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (run_id) DO UPDATE SET insights = EXCLUDED.insights, created_at = EXCLUDED.created_at
`, runID, insightsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert insights: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetInsightsByRun(ctx context.Context, runID string) (*domain.PortfolioInsights, error) {
	row := r.db.QueryRowContext(ctx, `SELECT insights FROM portfolio_insights WHERE run_id = $1`, runID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get insights", err)
		}
		return nil, fmt.Errorf("get insights: %w", err)
	}

	var insights domain.PortfolioInsights
	if err := json.Unmarshal(raw, &insights); err != nil {
		return nil, fmt.Errorf("unmarshal insights: %w", err)
	}
	return &insights, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.DocumentAnalysis, error) {
	var analysis domain.DocumentAnalysis
	var docType string
	var factsRaw, entitiesRaw, tagsRaw, fingerprintRaw, insightsRaw []byte
	var duplicateOf sql.NullString

	err := row.Scan(
		&analysis.DocumentID, &docType, &analysis.ClassificationConfidence,
		&factsRaw, &entitiesRaw, &tagsRaw,
		&analysis.RiskScore, &analysis.DuplicateScore, &duplicateOf,
		&fingerprintRaw, &insightsRaw, &analysis.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	analysis.DocumentType = domain.DocumentType(docType)
	analysis.DuplicateOf = duplicateOf.String
	if err := json.Unmarshal(factsRaw, &analysis.Facts); err != nil {
		return nil, fmt.Errorf("unmarshal facts: %w", err)
	}
	if err := json.Unmarshal(entitiesRaw, &analysis.Entities); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	if err := json.Unmarshal(tagsRaw, &analysis.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(fingerprintRaw, &analysis.Fingerprint); err != nil {
		return nil, fmt.Errorf("unmarshal fingerprint: %w", err)
	}
	if len(insightsRaw) > 0 {
		if err := json.Unmarshal(insightsRaw, &analysis.BusinessInsights); err != nil {
			return nil, fmt.Errorf("unmarshal business insights: %w", err)
		}
	}
	return &analysis, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
