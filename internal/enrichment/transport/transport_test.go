package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestCompletionTransport_Invoke(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		writeJSON(t, w, map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": `{"theme": "engineering"}`},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	})

	tr := NewCompletionTransport(newTestClient(t, handler), CompletionConfig{
		Model:           "gpt-4o-mini",
		Temperature:     0.2,
		MaxOutputTokens: 512,
	}, logging.NewNopLogger())

	reply, err := tr.Invoke(context.Background(), Prompt{System: "classify", User: "How do I center a div?"})
	require.NoError(t, err)
	assert.Equal(t, `{"theme": "engineering"}`, reply)

	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, gotReq.ResponseFormat.Type)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, "classify", gotReq.Messages[0].Content)
	assert.Equal(t, "How do I center a div?", gotReq.Messages[1].Content)
}

func TestCompletionTransport_APIErrorWrapped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	})

	tr := NewCompletionTransport(newTestClient(t, handler), CompletionConfig{Model: "gpt-4o-mini"}, logging.NewNopLogger())

	_, err := tr.Invoke(context.Background(), Prompt{User: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichModelCall))
}

func TestCompletionTransport_NoChoices(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"id":      "chatcmpl-2",
			"object":  "chat.completion",
			"choices": []interface{}{},
		})
	})

	tr := NewCompletionTransport(newTestClient(t, handler), CompletionConfig{Model: "gpt-4o-mini"}, logging.NewNopLogger())

	_, err := tr.Invoke(context.Background(), Prompt{User: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichModelCall))
}

// assistantAPIStub implements the thread/run lifecycle with a scripted run
// status progression.
type assistantAPIStub struct {
	t             *testing.T
	statuses      []string
	statusIdx     atomic.Int32
	threadDeleted atomic.Bool
	reply         string
}

func (s *assistantAPIStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.t, http.MethodPost, r.Method)
		writeJSON(s.t, w, map[string]string{"id": "thread_abc", "object": "thread"})
	})
	mux.HandleFunc("/v1/threads/thread_abc", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.t, http.MethodDelete, r.Method)
		s.threadDeleted.Store(true)
		writeJSON(s.t, w, map[string]interface{}{"id": "thread_abc", "object": "thread.deleted", "deleted": true})
	})
	mux.HandleFunc("/v1/threads/thread_abc/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeJSON(s.t, w, map[string]interface{}{"id": "msg_user", "object": "thread.message"})
		case http.MethodGet:
			assert.Equal(s.t, "run_1", r.URL.Query().Get("run_id"))
			writeJSON(s.t, w, map[string]interface{}{
				"object": "list",
				"data": []map[string]interface{}{
					{
						"id":   "msg_reply",
						"role": "assistant",
						"content": []map[string]interface{}{
							{"type": "text", "text": map[string]interface{}{"value": s.reply, "annotations": []interface{}{}}},
						},
					},
				},
			})
		}
	})
	mux.HandleFunc("/v1/threads/thread_abc/runs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.t, http.MethodPost, r.Method)
		writeJSON(s.t, w, map[string]string{"id": "run_1", "object": "thread.run", "status": "queued"})
	})
	mux.HandleFunc("/v1/threads/thread_abc/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		idx := s.statusIdx.Add(1) - 1
		if int(idx) >= len(s.statuses) {
			idx = int32(len(s.statuses) - 1)
		}
		writeJSON(s.t, w, map[string]string{"id": "run_1", "object": "thread.run", "status": s.statuses[idx]})
	})
	return mux
}

func newAssistantTransport(t *testing.T, stub *assistantAPIStub) *AssistantTransport {
	return NewAssistantTransport(newTestClient(t, stub.handler()), AssistantConfig{
		AssistantID:  "asst_123",
		PollInterval: 5 * time.Millisecond,
	}, logging.NewNopLogger())
}

func TestAssistantTransport_CompletedRun(t *testing.T) {
	stub := &assistantAPIStub{
		t:        t,
		statuses: []string{"queued", "in_progress", "completed"},
		reply:    `{"theme": "engineering"}`,
	}
	tr := newAssistantTransport(t, stub)

	reply, err := tr.Invoke(context.Background(), Prompt{System: "classify", User: "hello"})
	require.NoError(t, err)

	assert.Equal(t, `{"theme": "engineering"}`, reply)
	assert.True(t, stub.threadDeleted.Load(), "thread must be discarded after the call")
}

func TestAssistantTransport_FailedRun(t *testing.T) {
	stub := &assistantAPIStub{
		t:        t,
		statuses: []string{"in_progress", "failed"},
		reply:    "unused",
	}
	tr := newAssistantTransport(t, stub)

	_, err := tr.Invoke(context.Background(), Prompt{User: "hello"})
	require.Error(t, err)

	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichRunNotCompleted))
	assert.Contains(t, err.Error(), "failed")
	assert.True(t, stub.threadDeleted.Load(), "thread must be discarded even on failure")
}

func TestAssistantTransport_DeadlineAbortsWait(t *testing.T) {
	stub := &assistantAPIStub{
		t:        t,
		statuses: []string{"in_progress"},
		reply:    "unused",
	}
	tr := newAssistantTransport(t, stub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tr.Invoke(ctx, Prompt{User: "hello"})
	require.Error(t, err)

	assert.True(t, errors.IsCode(err, errors.ErrCodeEnrichModelCall))
	assert.Less(t, time.Since(start), 2*time.Second, "wait must end at the deadline, not poll forever")
	assert.True(t, stub.threadDeleted.Load())
}
