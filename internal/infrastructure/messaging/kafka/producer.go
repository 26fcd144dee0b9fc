// Package kafka publishes enrichment audit events to the message bus.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/promptdeck/promptdeck/internal/config"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// AuditEvent records one enrichment operation for downstream dashboards and
// compliance pipelines.  Events are observational; losing one never affects
// the operation's outcome.
type AuditEvent struct {
	EventID       string    `json:"event_id"`
	OrgID         string    `json:"org_id"`
	CorrelationID string    `json:"correlation_id"`
	Kind          string    `json:"kind"`
	Outcome       string    `json:"outcome"`
	ErrorCode     string    `json:"error_code,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	ModelUsed     string    `json:"model_used,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Audit event outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes audit events to the configured topic.  Messages are keyed
// by org id so one organization's events stay ordered within a partition.
type Producer struct {
	writer writerInterface
	topic  string
	log    logging.Logger
	closed atomic.Bool
}

// NewProducer builds a producer from configuration.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		Async:        cfg.Async,
	}
	return &Producer{
		writer: writer,
		topic:  cfg.AuditTopic,
		log:    log.Named("kafka.producer"),
	}
}

// newProducerWithWriter wires a stub writer; used by tests.
func newProducerWithWriter(w writerInterface, topic string, log logging.Logger) *Producer {
	return &Producer{writer: w, topic: topic, log: log.Named("kafka.producer")}
}

// PublishAudit writes one audit event.  Returns ErrCodeEventPublish on
// failure; callers treat that as log-and-continue.
func (p *Producer) PublishAudit(ctx context.Context, event AuditEvent) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeEventPublish, "producer is closed")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal audit event")
	}

	msg := kafkago.Message{
		Key:   []byte(event.OrgID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "outcome", Value: []byte(event.Outcome)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeEventPublish, "failed to publish audit event")
	}

	p.log.Debug("audit event published",
		logging.String("topic", p.topic),
		logging.String("org_id", event.OrgID),
		logging.String("kind", event.Kind),
		logging.String("outcome", event.Outcome),
	)
	return nil
}

// Close flushes and shuts down the writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
