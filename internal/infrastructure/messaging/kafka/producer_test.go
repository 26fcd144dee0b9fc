package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

type stubWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() AuditEvent {
	return AuditEvent{
		EventID:       "evt-1",
		OrgID:         "org-1",
		CorrelationID: "msg-42",
		Kind:          "classification",
		Outcome:       OutcomeSucceeded,
		DurationMs:    840,
		ModelUsed:     "gpt-4o-mini",
		OccurredAt:    time.Now().UTC(),
	}
}

func TestPublishAudit(t *testing.T) {
	w := &stubWriter{}
	p := newProducerWithWriter(w, "enrichment.audit", logging.NewNopLogger())

	require.NoError(t, p.PublishAudit(context.Background(), sampleEvent()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("org-1"), msg.Key)

	var decoded AuditEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "msg-42", decoded.CorrelationID)
	assert.Equal(t, OutcomeSucceeded, decoded.Outcome)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("classification"), msg.Headers[0].Value)
}

func TestPublishAudit_WriteFailureWrapped(t *testing.T) {
	w := &stubWriter{err: errors.New(errors.ErrCodeInternal, "broker unreachable")}
	p := newProducerWithWriter(w, "enrichment.audit", logging.NewNopLogger())

	err := p.PublishAudit(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPublish))
}

func TestPublishAudit_AfterCloseRejected(t *testing.T) {
	w := &stubWriter{}
	p := newProducerWithWriter(w, "enrichment.audit", logging.NewNopLogger())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.PublishAudit(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPublish))

	// Double close is a no-op.
	assert.NoError(t, p.Close())
}
