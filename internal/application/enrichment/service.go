// Package enrichment (application layer) composes the enrichment engine with
// its collaborators: result persistence, duplicate guarding, audit events,
// and metrics.  The engine computes; this layer owns everything around the
// computation.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	engine "github.com/promptdeck/promptdeck/internal/enrichment"
	"github.com/promptdeck/promptdeck/internal/infrastructure/database/postgres"
	"github.com/promptdeck/promptdeck/internal/infrastructure/messaging/kafka"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	prommetrics "github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/prometheus"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// ResultStore persists enrichment results.  Save methods return (nil, nil)
// when a result for the same correlation id already exists; the duplicate is
// skipped, never raised.
type ResultStore interface {
	SaveClassification(ctx context.Context, orgID, correlationID string, result *engine.ClassificationResult) (*postgres.StoredEnrichment, error)
	SaveRiskAssessment(ctx context.Context, orgID, correlationID string, result *engine.RiskAssessmentResult) (*postgres.StoredEnrichment, error)
	Get(ctx context.Context, orgID, correlationID, kind string) (*postgres.StoredEnrichment, error)
	ListRecent(ctx context.Context, orgID, kind string, limit int) ([]postgres.StoredEnrichment, error)
}

// DedupeGuard filters duplicate submissions before they spend model tokens.
// Best effort only; the store's unique constraint is the hard guarantee.
type DedupeGuard interface {
	Acquire(ctx context.Context, orgID, correlationID, kind string) bool
	Release(ctx context.Context, orgID, correlationID, kind string)
}

// AuditPublisher emits one event per enrichment operation.  Publish failures
// are logged and swallowed; audit is observational.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, event kafka.AuditEvent) error
}

// Service is the application facade over the enrichment engine.
type Service struct {
	classifier *engine.ClassificationService
	risk       *engine.RiskAssessmentService
	batch      *engine.BatchOrchestrator
	store      ResultStore
	dedupe     DedupeGuard
	audit      AuditPublisher
	metrics    *prommetrics.Metrics
	log        logging.Logger
}

// NewService wires the facade.  dedupe and audit may be nil, which disables
// the corresponding concern (used by the CLI's ad-hoc commands).
func NewService(
	classifier *engine.ClassificationService,
	risk *engine.RiskAssessmentService,
	batch *engine.BatchOrchestrator,
	store ResultStore,
	dedupe DedupeGuard,
	audit AuditPublisher,
	metrics *prommetrics.Metrics,
	log logging.Logger,
) *Service {
	return &Service{
		classifier: classifier,
		risk:       risk,
		batch:      batch,
		store:      store,
		dedupe:     dedupe,
		audit:      audit,
		metrics:    metrics,
		log:        log.Named("app.enrichment"),
	}
}

// Classify runs one classification for the organization and persists the
// result.  When the correlation id was already processed, the previously
// stored result is returned instead of paying for another model call.
func (s *Service) Classify(ctx context.Context, orgID string, input engine.ClassificationInput) (*engine.ClassificationResult, error) {
	if orgID == "" {
		return nil, errors.New(errors.ErrCodeTenantMissing, "organization id is required")
	}
	start := time.Now()

	if input.CorrelationID != "" && s.dedupe != nil && !s.dedupe.Acquire(ctx, orgID, input.CorrelationID, postgres.KindClassification) {
		if prior := s.priorClassification(ctx, orgID, input.CorrelationID); prior != nil {
			s.observe(postgres.KindClassification, "duplicate", start)
			return prior, nil
		}
	}

	result, err := s.classifier.Classify(ctx, input.UserMessage, input.AssistantResponse)
	if err != nil {
		s.release(ctx, orgID, input.CorrelationID, postgres.KindClassification)
		s.observe(postgres.KindClassification, "error", start)
		s.publishAudit(ctx, orgID, input.CorrelationID, postgres.KindClassification, kafka.OutcomeFailed, err, "", start)
		return nil, err
	}

	outcome := s.persistClassification(ctx, orgID, input.CorrelationID, result)
	s.observe(postgres.KindClassification, outcome, start)
	s.publishAudit(ctx, orgID, input.CorrelationID, postgres.KindClassification, auditOutcome(outcome), nil, result.ModelUsed, start)
	return result, nil
}

// AssessRisk runs one risk assessment for the organization and persists the
// result, with the same duplicate semantics as Classify.
func (s *Service) AssessRisk(ctx context.Context, orgID string, input engine.RiskInput) (*engine.RiskAssessmentResult, error) {
	if orgID == "" {
		return nil, errors.New(errors.ErrCodeTenantMissing, "organization id is required")
	}
	start := time.Now()

	if input.CorrelationID != "" && s.dedupe != nil && !s.dedupe.Acquire(ctx, orgID, input.CorrelationID, postgres.KindRiskAssessment) {
		if prior := s.priorRiskAssessment(ctx, orgID, input.CorrelationID); prior != nil {
			s.observe(postgres.KindRiskAssessment, "duplicate", start)
			return prior, nil
		}
	}

	result, err := s.risk.AssessRisk(ctx, input.Content, input.Role, input.Context)
	if err != nil {
		s.release(ctx, orgID, input.CorrelationID, postgres.KindRiskAssessment)
		s.observe(postgres.KindRiskAssessment, "error", start)
		s.publishAudit(ctx, orgID, input.CorrelationID, postgres.KindRiskAssessment, kafka.OutcomeFailed, err, "", start)
		return nil, err
	}

	outcome := s.persistRiskAssessment(ctx, orgID, input.CorrelationID, result)
	s.observe(postgres.KindRiskAssessment, outcome, start)
	s.publishAudit(ctx, orgID, input.CorrelationID, postgres.KindRiskAssessment, auditOutcome(outcome), nil, result.ModelUsed, start)
	return result, nil
}

// ClassifyBatch fans a batch through the orchestrator and persists every
// successful item.  Per-item failures stay data; only an oversized batch is
// an error.
func (s *Service) ClassifyBatch(ctx context.Context, orgID string, items []engine.ClassificationInput) ([]engine.BatchItemResult[engine.ClassificationResult], error) {
	if orgID == "" {
		return nil, errors.New(errors.ErrCodeTenantMissing, "organization id is required")
	}

	results, err := s.batch.ClassifyBatch(ctx, items)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BatchSize.WithLabelValues(postgres.KindClassification).Observe(float64(len(items)))
	}
	for _, item := range results {
		if !item.Success {
			if s.metrics != nil {
				s.metrics.BatchItemsFailed.WithLabelValues(postgres.KindClassification).Inc()
			}
			continue
		}
		s.persistClassification(ctx, orgID, item.CorrelationID, item.Data)
	}
	return results, nil
}

// AssessRiskBatch is the risk counterpart of ClassifyBatch.
func (s *Service) AssessRiskBatch(ctx context.Context, orgID string, items []engine.RiskInput) ([]engine.BatchItemResult[engine.RiskAssessmentResult], error) {
	if orgID == "" {
		return nil, errors.New(errors.ErrCodeTenantMissing, "organization id is required")
	}

	results, err := s.batch.AssessRiskBatch(ctx, items)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BatchSize.WithLabelValues(postgres.KindRiskAssessment).Observe(float64(len(items)))
	}
	for _, item := range results {
		if !item.Success {
			if s.metrics != nil {
				s.metrics.BatchItemsFailed.WithLabelValues(postgres.KindRiskAssessment).Inc()
			}
			continue
		}
		s.persistRiskAssessment(ctx, orgID, item.CorrelationID, item.Data)
	}
	return results, nil
}

// RecentResults returns the newest stored results of one kind for the
// organization.
func (s *Service) RecentResults(ctx context.Context, orgID, kind string, limit int) ([]postgres.StoredEnrichment, error) {
	if orgID == "" {
		return nil, errors.New(errors.ErrCodeTenantMissing, "organization id is required")
	}
	if kind != postgres.KindClassification && kind != postgres.KindRiskAssessment {
		return nil, errors.InvalidParam("unknown result kind").WithDetail(fmt.Sprintf("kind %q", kind))
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRecent(ctx, orgID, kind, limit)
}

// persistClassification stores the result and reports the outcome label.
// Results without a correlation id are ephemeral and skip persistence.
func (s *Service) persistClassification(ctx context.Context, orgID, correlationID string, result *engine.ClassificationResult) string {
	if correlationID == "" || s.store == nil {
		return "success"
	}
	stored, err := s.store.SaveClassification(ctx, orgID, correlationID, result)
	if err != nil {
		s.log.Error("failed to persist classification",
			logging.String("org_id", orgID),
			logging.String("correlation_id", correlationID),
			logging.Err(err),
		)
		return "success"
	}
	if stored == nil {
		return "duplicate"
	}
	return "success"
}

func (s *Service) persistRiskAssessment(ctx context.Context, orgID, correlationID string, result *engine.RiskAssessmentResult) string {
	if correlationID == "" || s.store == nil {
		return "success"
	}
	stored, err := s.store.SaveRiskAssessment(ctx, orgID, correlationID, result)
	if err != nil {
		s.log.Error("failed to persist risk assessment",
			logging.String("org_id", orgID),
			logging.String("correlation_id", correlationID),
			logging.Err(err),
		)
		return "success"
	}
	if stored == nil {
		return "duplicate"
	}
	return "success"
}

// priorClassification fetches and decodes an already stored result; nil when
// unavailable for any reason, in which case the caller recomputes.
func (s *Service) priorClassification(ctx context.Context, orgID, correlationID string) *engine.ClassificationResult {
	if s.store == nil {
		return nil
	}
	stored, err := s.store.Get(ctx, orgID, correlationID, postgres.KindClassification)
	if err != nil || stored == nil {
		return nil
	}
	var result engine.ClassificationResult
	if err := json.Unmarshal(stored.Payload, &result); err != nil {
		s.log.Warn("stored classification payload undecodable", logging.Err(err))
		return nil
	}
	return &result
}

func (s *Service) priorRiskAssessment(ctx context.Context, orgID, correlationID string) *engine.RiskAssessmentResult {
	if s.store == nil {
		return nil
	}
	stored, err := s.store.Get(ctx, orgID, correlationID, postgres.KindRiskAssessment)
	if err != nil || stored == nil {
		return nil
	}
	var result engine.RiskAssessmentResult
	if err := json.Unmarshal(stored.Payload, &result); err != nil {
		s.log.Warn("stored risk payload undecodable", logging.Err(err))
		return nil
	}
	return &result
}

func (s *Service) release(ctx context.Context, orgID, correlationID, kind string) {
	if s.dedupe != nil && correlationID != "" {
		s.dedupe.Release(ctx, orgID, correlationID, kind)
	}
}

func (s *Service) observe(kind, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues(kind, status).Inc()
	s.metrics.RequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (s *Service) publishAudit(ctx context.Context, orgID, correlationID, kind, outcome string, opErr error, modelUsed string, start time.Time) {
	if s.audit == nil {
		return
	}
	event := kafka.AuditEvent{
		EventID:       uuid.NewString(),
		OrgID:         orgID,
		CorrelationID: correlationID,
		Kind:          kind,
		Outcome:       outcome,
		DurationMs:    time.Since(start).Milliseconds(),
		ModelUsed:     modelUsed,
		OccurredAt:    time.Now().UTC(),
	}
	if opErr != nil {
		event.ErrorCode = string(errors.GetCode(opErr))
	}
	if err := s.audit.PublishAudit(ctx, event); err != nil {
		s.log.Warn("audit publish failed", logging.Err(err))
	}
}

func auditOutcome(persistOutcome string) string {
	if persistOutcome == "duplicate" {
		return kafka.OutcomeDuplicate
	}
	return kafka.OutcomeSucceeded
}
