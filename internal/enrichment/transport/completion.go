package transport

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// CompletionConfig carries the per-request parameters for the single-shot
// completion transport.
type CompletionConfig struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

// CompletionTransport issues a single chat-completion request per Invoke.
// The JSON-object response format is requested explicitly so the provider
// constrains its decoder, though the engine still repairs and validates the
// reply rather than trusting that constraint.
type CompletionTransport struct {
	client *openai.Client
	cfg    CompletionConfig
	log    logging.Logger
}

// NewCompletionTransport builds a completion transport around an existing
// provider client.
func NewCompletionTransport(client *openai.Client, cfg CompletionConfig, log logging.Logger) *CompletionTransport {
	return &CompletionTransport{
		client: client,
		cfg:    cfg,
		log:    log.Named("transport.completion"),
	}
}

// Invoke sends one request and returns the first choice's content.
func (t *CompletionTransport) Invoke(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.cfg.Model,
		Temperature: t.cfg.Temperature,
		MaxTokens:   t.cfg.MaxOutputTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEnrichModelCall, "chat completion request failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeEnrichModelCall, "model returned no choices")
	}

	t.log.Debug("chat completion returned",
		logging.String("model", t.cfg.Model),
		logging.Int("prompt_tokens", resp.Usage.PromptTokens),
		logging.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
