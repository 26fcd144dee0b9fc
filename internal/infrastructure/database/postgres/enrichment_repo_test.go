package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/enrichment"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

func newMockRepo(t *testing.T) (*EnrichmentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewEnrichmentRepository(db, logging.NewNopLogger()), mock
}

func sampleClassification() *enrichment.ClassificationResult {
	return &enrichment.ClassificationResult{
		IsWorkRelated: true,
		Theme:         "engineering",
		Intent:        "troubleshooting",
		ModelUsed:     "gpt-4o-mini",
	}
}

func TestSaveClassification_Inserts(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO enrichment_results`).
		WithArgs(sqlmock.AnyArg(), "org-1", "msg-42", KindClassification, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), now))

	stored, err := repo.SaveClassification(context.Background(), "org-1", "msg-42", sampleClassification())
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, "org-1", stored.OrgID)
	assert.Equal(t, "msg-42", stored.CorrelationID)
	assert.Equal(t, KindClassification, stored.Kind)
	assert.JSONEq(t, `{
		"is_work_related": true,
		"theme": "engineering",
		"intent": "troubleshooting",
		"processing_time_ms": 0,
		"model_used": "gpt-4o-mini"
	}`, string(stored.Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveClassification_DuplicateReturnsNilNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	// ON CONFLICT DO NOTHING yields an empty result set.
	mock.ExpectQuery(`INSERT INTO enrichment_results`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	stored, err := repo.SaveClassification(context.Background(), "org-1", "msg-42", sampleClassification())
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRiskAssessment_Inserts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO enrichment_results`).
		WithArgs(sqlmock.AnyArg(), "org-1", "msg-7", KindRiskAssessment, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))

	result := &enrichment.RiskAssessmentResult{
		OverallRiskLevel: enrichment.RiskLevelMedium,
		OverallRiskScore: 54.12,
		Categories:       map[enrichment.RiskCategoryName]enrichment.RiskCategory{},
		RiskSummary:      []string{},
	}
	stored, err := repo.SaveRiskAssessment(context.Background(), "org-1", "msg-7", result)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, KindRiskAssessment, stored.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, org_id, correlation_id, kind, payload, created_at`).
		WithArgs("org-1", "missing", KindClassification).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "correlation_id", "kind", "payload", "created_at"}))

	_, err := repo.Get(context.Background(), "org-1", "missing", KindClassification)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestListRecent(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "org_id", "correlation_id", "kind", "payload", "created_at"}).
		AddRow(uuid.New().String(), "org-1", "msg-2", KindClassification, []byte(`{}`), time.Now()).
		AddRow(uuid.New().String(), "org-1", "msg-1", KindClassification, []byte(`{}`), time.Now())
	mock.ExpectQuery(`SELECT id, org_id, correlation_id, kind, payload, created_at`).
		WithArgs("org-1", KindClassification, 10).
		WillReturnRows(rows)

	results, err := repo.ListRecent(context.Background(), "org-1", KindClassification, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "msg-2", results[0].CorrelationID)
}
