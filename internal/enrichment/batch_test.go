package enrichment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

func testBatchConfig() BatchConfig {
	return BatchConfig{
		ClassifyLimit:       50,
		RiskLimit:           100,
		ClassifyConcurrency: 4,
		RiskConcurrency:     1,
	}
}

func newOrchestrator(tr transport.ModelTransport, cfg BatchConfig) *BatchOrchestrator {
	svcCfg := testServiceConfig()
	classifier := NewClassificationService(tr, svcCfg, logging.NewNopLogger())
	risk := NewRiskAssessmentService(tr, nil, svcCfg, logging.NewNopLogger())
	return NewBatchOrchestrator(classifier, risk, cfg, logging.NewNopLogger())
}

func TestClassifyBatch_IsolatesItemFailure(t *testing.T) {
	// Item 3 (index 3) always fails; the other four must succeed, keep their
	// positions, and keep their correlation ids.
	tr := &stubTransport{fn: func(_ int, prompt transport.Prompt) (string, error) {
		if strings.Contains(prompt.User, "poison") {
			return "", errors.New(errors.ErrCodeEnrichModelCall, "connection reset")
		}
		return `{"is_work_related": true, "theme": "engineering", "intent": "question"}`, nil
	}}
	orch := newOrchestrator(tr, testBatchConfig())

	items := make([]ClassificationInput, 5)
	for i := range items {
		items[i] = ClassificationInput{
			CorrelationID: fmt.Sprintf("msg-%d", i),
			UserMessage:   fmt.Sprintf("question %d", i),
		}
	}
	items[3].UserMessage = "poison"

	results, err := orch.ClassifyBatch(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), r.CorrelationID, "index %d", i)
		if i == 3 {
			assert.False(t, r.Success)
			assert.Nil(t, r.Data)
			assert.NotEmpty(t, r.Error)
		} else {
			assert.True(t, r.Success, "index %d", i)
			require.NotNil(t, r.Data, "index %d", i)
			assert.Empty(t, r.Error, "index %d", i)
			assert.Equal(t, "engineering", r.Data.Theme)
		}
	}
}

func TestClassifyBatch_OversizedRejectedBeforeWork(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{}`)}
	cfg := testBatchConfig()
	cfg.ClassifyLimit = 2
	orch := newOrchestrator(tr, cfg)

	items := []ClassificationInput{
		{CorrelationID: "a", UserMessage: "x"},
		{CorrelationID: "b", UserMessage: "y"},
		{CorrelationID: "c", UserMessage: "z"},
	}

	_, err := orch.ClassifyBatch(context.Background(), items)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichBatchTooLarge))
	assert.Equal(t, 0, tr.callCount())
}

func TestClassifyBatch_Empty(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{}`)}
	orch := newOrchestrator(tr, testBatchConfig())

	results, err := orch.ClassifyBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAssessRiskBatch_OrderPreservedSequentially(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{
		"categories": {"pii": {"level": "low", "score": 25, "detected": true}}
	}`)}
	cfg := testBatchConfig()
	orch := newOrchestrator(tr, cfg)

	items := make([]RiskInput, 7)
	for i := range items {
		items[i] = RiskInput{
			CorrelationID: fmt.Sprintf("risk-%d", i),
			Content:       fmt.Sprintf("content %d", i),
			Role:          "user",
		}
	}

	results, err := orch.AssessRiskBatch(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 7)

	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("risk-%d", i), r.CorrelationID)
		assert.True(t, r.Success)
		require.NotNil(t, r.Data)
		assert.Len(t, r.Data.Categories, 6)
	}
	assert.Equal(t, 7, tr.callCount())
}

func TestAssessRiskBatch_OversizedRejected(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{}`)}
	cfg := testBatchConfig()
	cfg.RiskLimit = 1
	orch := newOrchestrator(tr, cfg)

	items := []RiskInput{
		{CorrelationID: "a", Content: "x", Role: "user"},
		{CorrelationID: "b", Content: "y", Role: "user"},
	}

	_, err := orch.AssessRiskBatch(context.Background(), items)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichBatchTooLarge))
}

func TestClassifyBatch_ConcurrencyBounded(t *testing.T) {
	var (
		inFlight    int32
		maxInFlight int32
	)
	track := &trackingTransport{
		inFlight:    &inFlight,
		maxInFlight: &maxInFlight,
		reply:       `{"theme": "x"}`,
	}

	cfg := testBatchConfig()
	cfg.ClassifyConcurrency = 2
	orch := newOrchestrator(track, cfg)

	items := make([]ClassificationInput, 10)
	for i := range items {
		items[i] = ClassificationInput{CorrelationID: fmt.Sprintf("m-%d", i), UserMessage: "q"}
	}

	results, err := orch.ClassifyBatch(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.LessOrEqual(t, maxInFlight, int32(2))
}

// trackingTransport records the high-water mark of concurrent invocations.
type trackingTransport struct {
	inFlight    *int32
	maxInFlight *int32
	reply       string

	mu sync.Mutex
}

func (t *trackingTransport) Invoke(_ context.Context, _ transport.Prompt) (string, error) {
	t.mu.Lock()
	*t.inFlight++
	if *t.inFlight > *t.maxInFlight {
		*t.maxInFlight = *t.inFlight
	}
	t.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	t.mu.Lock()
	*t.inFlight--
	t.mu.Unlock()

	return t.reply, nil
}
