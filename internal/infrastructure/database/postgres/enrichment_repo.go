package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck/internal/enrichment"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// Enrichment result kinds as stored in the kind column.
const (
	KindClassification = "classification"
	KindRiskAssessment = "risk_assessment"
)

// StoredEnrichment is one persisted enrichment result row.
type StoredEnrichment struct {
	ID            uuid.UUID       `json:"id"`
	OrgID         string          `json:"org_id"`
	CorrelationID string          `json:"correlation_id"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// queryExecutor matches the subset of sql.DB used by the repository, so tests
// can substitute a sqlmock-backed pool.
type queryExecutor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// EnrichmentRepository persists enrichment results with idempotent duplicate
// handling.  The (org_id, correlation_id, kind) unique constraint is the
// authoritative duplicate guard; concurrent duplicate submissions race at the
// database, not in application code, so exactly one wins.
type EnrichmentRepository struct {
	db  queryExecutor
	log logging.Logger
}

// NewEnrichmentRepository builds a repository over the given pool.
func NewEnrichmentRepository(db queryExecutor, log logging.Logger) *EnrichmentRepository {
	return &EnrichmentRepository{db: db, log: log.Named("repo.enrichment")}
}

const insertResultQuery = `
INSERT INTO enrichment_results (id, org_id, correlation_id, kind, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (org_id, correlation_id, kind) DO NOTHING
RETURNING id, created_at`

// SaveClassification stores a classification result.  Returns (nil, nil) when
// a result for the same (org, correlation id) already exists — the duplicate
// is skipped, not an error.
func (r *EnrichmentRepository) SaveClassification(ctx context.Context, orgID, correlationID string, result *enrichment.ClassificationResult) (*StoredEnrichment, error) {
	return r.save(ctx, orgID, correlationID, KindClassification, result)
}

// SaveRiskAssessment stores a risk assessment result with the same duplicate
// semantics as SaveClassification.
func (r *EnrichmentRepository) SaveRiskAssessment(ctx context.Context, orgID, correlationID string, result *enrichment.RiskAssessmentResult) (*StoredEnrichment, error) {
	return r.save(ctx, orgID, correlationID, KindRiskAssessment, result)
}

func (r *EnrichmentRepository) save(ctx context.Context, orgID, correlationID, kind string, result interface{}) (*StoredEnrichment, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal enrichment result")
	}

	stored := &StoredEnrichment{
		ID:            uuid.New(),
		OrgID:         orgID,
		CorrelationID: correlationID,
		Kind:          kind,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	row := r.db.QueryRowContext(ctx, insertResultQuery,
		stored.ID, stored.OrgID, stored.CorrelationID, stored.Kind, stored.Payload, stored.CreatedAt,
	)
	if err := row.Scan(&stored.ID, &stored.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			// ON CONFLICT DO NOTHING returned no row: already stored.
			r.log.Debug("duplicate enrichment result skipped",
				logging.String("org_id", orgID),
				logging.String("correlation_id", correlationID),
				logging.String("kind", kind),
			)
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert enrichment result")
	}
	return stored, nil
}

const getResultQuery = `
SELECT id, org_id, correlation_id, kind, payload, created_at
FROM enrichment_results
WHERE org_id = $1 AND correlation_id = $2 AND kind = $3`

// Get fetches one stored result.  Returns ErrCodeNotFound when absent.
func (r *EnrichmentRepository) Get(ctx context.Context, orgID, correlationID, kind string) (*StoredEnrichment, error) {
	stored := &StoredEnrichment{}
	row := r.db.QueryRowContext(ctx, getResultQuery, orgID, correlationID, kind)
	err := row.Scan(&stored.ID, &stored.OrgID, &stored.CorrelationID, &stored.Kind, &stored.Payload, &stored.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("enrichment result not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query enrichment result")
	}
	return stored, nil
}

const listRecentQuery = `
SELECT id, org_id, correlation_id, kind, payload, created_at
FROM enrichment_results
WHERE org_id = $1 AND kind = $2
ORDER BY created_at DESC
LIMIT $3`

// ListRecent returns the newest results of one kind for an organization.
func (r *EnrichmentRepository) ListRecent(ctx context.Context, orgID, kind string, limit int) ([]StoredEnrichment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listRecentQuery, orgID, kind, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list enrichment results")
	}
	defer rows.Close()

	var out []StoredEnrichment
	for rows.Next() {
		var s StoredEnrichment
		if err := rows.Scan(&s.ID, &s.OrgID, &s.CorrelationID, &s.Kind, &s.Payload, &s.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan enrichment result")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate enrichment results")
	}
	return out, nil
}
