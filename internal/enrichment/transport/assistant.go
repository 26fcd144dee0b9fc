package transport

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// AssistantConfig carries the parameters for the assistant-thread transport.
type AssistantConfig struct {
	// AssistantID is the pre-configured assistant to run.
	AssistantID string
	// PollInterval is the pause between run status checks.
	PollInterval time.Duration
	// CleanupTimeout bounds the thread deletion that runs after each call.
	CleanupTimeout time.Duration
}

// AssistantTransport invokes the model through a short-lived conversation
// thread: create thread, post the prompt, start a run, wait for a terminal
// status, read the assistant's reply.  The thread lives only for the duration
// of one Invoke and is deleted afterwards regardless of outcome.
//
// The wait is a ticker-driven select under the caller's context, never a busy
// loop; the per-call deadline carried by ctx bounds the whole exchange.
type AssistantTransport struct {
	client *openai.Client
	cfg    AssistantConfig
	log    logging.Logger
}

// NewAssistantTransport builds an assistant transport around an existing
// provider client.
func NewAssistantTransport(client *openai.Client, cfg AssistantConfig, log logging.Logger) *AssistantTransport {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = 10 * time.Second
	}
	return &AssistantTransport{
		client: client,
		cfg:    cfg,
		log:    log.Named("transport.assistant"),
	}
}

// Invoke runs the full thread lifecycle and returns the assistant's reply.
func (t *AssistantTransport) Invoke(ctx context.Context, prompt Prompt) (string, error) {
	thread, err := t.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnrichModelCall, "failed to create thread")
	}
	defer t.deleteThread(thread.ID)

	if _, err := t.client.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: prompt.User,
	}); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnrichModelCall, "failed to post message to thread")
	}

	run, err := t.client.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID:  t.cfg.AssistantID,
		Instructions: prompt.System,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnrichModelCall, "failed to start run")
	}

	if err := t.waitForRun(ctx, thread.ID, run.ID); err != nil {
		return "", err
	}

	return t.readReply(ctx, thread.ID, run.ID)
}

// waitForRun polls the run status at the configured interval until the run
// reaches a terminal state or ctx expires.
func (t *AssistantTransport) waitForRun(ctx context.Context, threadID, runID string) error {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrCodeEnrichModelCall, "assistant run wait aborted")
		case <-ticker.C:
			run, err := t.client.RetrieveRun(ctx, threadID, runID)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeEnrichModelCall, "failed to retrieve run status")
			}
			switch run.Status {
			case openai.RunStatusCompleted:
				return nil
			case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
				continue
			default:
				// failed, cancelled, expired, requires_action — the run will
				// never produce a reply for us.
				return errors.New(errors.ErrCodeEnrichRunNotCompleted, "assistant run did not complete").
					WithDetail(string(run.Status))
			}
		}
	}
}

// readReply fetches the newest message produced by the given run and returns
// its text content.
func (t *AssistantTransport) readReply(ctx context.Context, threadID, runID string) (string, error) {
	limit := 1
	order := "desc"
	messages, err := t.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnrichModelCall, "failed to list thread messages")
	}
	for _, msg := range messages.Messages {
		for _, part := range msg.Content {
			if part.Text != nil && part.Text.Value != "" {
				return part.Text.Value, nil
			}
		}
	}
	return "", errors.New(errors.ErrCodeEnrichModelCall, "assistant run produced no text reply")
}

// deleteThread discards the per-call thread.  Runs on its own short deadline
// because the caller's context may already be cancelled; failures are logged
// only, as an orphaned thread costs nothing beyond provider-side clutter.
func (t *AssistantTransport) deleteThread(threadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.CleanupTimeout)
	defer cancel()
	if _, err := t.client.DeleteThread(ctx, threadID); err != nil {
		t.log.Warn("failed to delete thread", logging.String("thread_id", threadID), logging.Err(err))
	}
}
