package enrichment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// stubTransport scripts model replies per attempt and counts invocations.
type stubTransport struct {
	mu      sync.Mutex
	calls   int
	prompts []transport.Prompt
	fn      func(call int, prompt transport.Prompt) (string, error)
}

func (s *stubTransport) Invoke(_ context.Context, prompt transport.Prompt) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.fn(call, prompt)
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func replyWith(text string) func(int, transport.Prompt) (string, error) {
	return func(int, transport.Prompt) (string, error) { return text, nil }
}

func failWith(err error) func(int, transport.Prompt) (string, error) {
	return func(int, transport.Prompt) (string, error) { return "", err }
}

func testServiceConfig() ServiceConfig {
	return ServiceConfig{
		Model:            "gpt-4o-mini",
		MaxContentLength: 8000,
		MaxPromptLength:  4000,
		MaxRetries:       2,
		RetryDelay:       time.Millisecond,
		CallTimeout:      time.Second,
	}
}

func TestClassify_Success(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{
		"is_work_related": true,
		"theme": "engineering",
		"intent": "troubleshooting",
		"quality": {"quality_score": 80, "clarity_score": 4, "context_score": 3, "specificity_score": 4, "actionability_score": 5}
	}`)}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	result, err := svc.Classify(context.Background(), "How do I center a div?", "Use flexbox.")
	require.NoError(t, err)

	assert.True(t, result.IsWorkRelated)
	assert.Equal(t, "engineering", result.Theme)
	assert.Equal(t, "troubleshooting", result.Intent)
	require.NotNil(t, result.Quality)
	assert.Equal(t, 80, result.Quality.QualityScore)
	assert.Equal(t, "gpt-4o-mini", result.ModelUsed)
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, int64(0))
	assert.Equal(t, 1, tr.callCount())
}

func TestClassify_NoQualityBlockStaysNil(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{"is_work_related": true, "theme": "engineering", "intent": "troubleshooting"}`)}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	result, err := svc.Classify(context.Background(), "How do I center a div?", "")
	require.NoError(t, err)

	assert.Nil(t, result.Quality)
	assert.Nil(t, result.Feedback)
}

func TestClassify_EmptyInputRejected(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{}`)}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	_, err := svc.Classify(context.Background(), "   \n\t", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichEmptyInput))
	assert.Equal(t, 0, tr.callCount())
}

func TestClassify_RetryBudgetExactlySpent(t *testing.T) {
	tr := &stubTransport{fn: failWith(errors.New(errors.ErrCodeEnrichModelCall, "connection refused"))}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	_, err := svc.Classify(context.Background(), "hello", "")
	require.Error(t, err)

	// 2 retries → exactly 3 invocations, then the terminal failure.
	assert.Equal(t, 3, tr.callCount())
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichRetriesExhausted))
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichClassificationFailed))
}

func TestClassify_MalformedReplyConsumesSameBudget(t *testing.T) {
	tr := &stubTransport{fn: replyWith(`{"theme": "engineering", "quality": {"nested truncation`)}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	_, err := svc.Classify(context.Background(), "hello", "")
	require.Error(t, err)

	assert.Equal(t, 3, tr.callCount())
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichMalformedResponse))
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichRetriesExhausted))
}

func TestClassify_RecoversOnLaterAttempt(t *testing.T) {
	tr := &stubTransport{fn: func(call int, _ transport.Prompt) (string, error) {
		if call < 3 {
			return "", errors.New(errors.ErrCodeEnrichModelCall, "rate limited")
		}
		return `{"is_work_related": false, "theme": "smalltalk", "intent": "chat"}`, nil
	}}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	result, err := svc.Classify(context.Background(), "hey there", "")
	require.NoError(t, err)

	assert.Equal(t, "smalltalk", result.Theme)
	assert.Equal(t, 3, tr.callCount())
}

func TestClassify_FencedReplyRepaired(t *testing.T) {
	tr := &stubTransport{fn: replyWith("```json\n{\"is_work_related\": true, \"theme\": \"data\", \"intent\": \"analysis\"}\n```")}
	svc := NewClassificationService(tr, testServiceConfig(), logging.NewNopLogger())

	result, err := svc.Classify(context.Background(), "summarize this csv", "")
	require.NoError(t, err)
	assert.Equal(t, "data", result.Theme)
}

func TestClassify_InputTruncatedBeforePrompting(t *testing.T) {
	cfg := testServiceConfig()
	cfg.MaxContentLength = 10

	tr := &stubTransport{fn: replyWith(`{"theme": "x"}`)}
	svc := NewClassificationService(tr, cfg, logging.NewNopLogger())

	long := "0123456789ABCDEF this tail must not reach the prompt"
	_, err := svc.Classify(context.Background(), long, "")
	require.NoError(t, err)

	require.Len(t, tr.prompts, 1)
	assert.Contains(t, tr.prompts[0].User, "0123456789")
	assert.NotContains(t, tr.prompts[0].User, "ABCDEF")
}

func TestClassify_OnRetryObserved(t *testing.T) {
	var observed []int
	cfg := testServiceConfig()
	cfg.OnRetry = func(attempt int) { observed = append(observed, attempt) }

	tr := &stubTransport{fn: failWith(errors.New(errors.ErrCodeEnrichModelCall, "boom"))}
	svc := NewClassificationService(tr, cfg, logging.NewNopLogger())

	_, err := svc.Classify(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Equal(t, []int{2, 3}, observed)
}

func TestClassify_CancelledContextStopsRetrying(t *testing.T) {
	cfg := testServiceConfig()
	cfg.RetryDelay = time.Minute

	tr := &stubTransport{fn: failWith(errors.New(errors.ErrCodeEnrichModelCall, "boom"))}
	svc := NewClassificationService(tr, cfg, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Classify(ctx, "hello", "")
		done <- err
	}()

	// Let the first attempt fail, then cancel during the retry wait.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, tr.callCount())
	case <-time.After(2 * time.Second):
		t.Fatal("classify did not return after cancellation")
	}
}
