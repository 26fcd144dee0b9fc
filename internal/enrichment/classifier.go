package enrichment

import (
	"context"
	"strings"
	"time"

	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// ServiceConfig carries the knobs shared by both pipelines.  Construct it
// from config.EnrichmentConfig; the engine itself never reads configuration
// sources.
type ServiceConfig struct {
	Model            string
	MaxContentLength int
	MaxPromptLength  int
	MaxRetries       int
	RetryDelay       time.Duration
	CallTimeout      time.Duration

	// OnRetry, when set, observes every retry attempt.
	OnRetry func(attempt int)
}

func (c ServiceConfig) policy() retryPolicy {
	return retryPolicy{
		MaxRetries:  c.MaxRetries,
		Delay:       c.RetryDelay,
		CallTimeout: c.CallTimeout,
		OnRetry:     c.OnRetry,
	}
}

// ClassificationService runs the content classification pipeline: truncate,
// prompt, invoke with retries, repair, validate, stamp metadata.
type ClassificationService struct {
	transport transport.ModelTransport
	cfg       ServiceConfig
	log       logging.Logger
}

// NewClassificationService wires a classification pipeline around the given
// transport.
func NewClassificationService(tr transport.ModelTransport, cfg ServiceConfig, log logging.Logger) *ClassificationService {
	return &ClassificationService{
		transport: tr,
		cfg:       cfg,
		log:       log.Named("enrichment.classify"),
	}
}

// Classify produces a ClassificationResult for one user message and its
// optional assistant response.  Returns ErrCodeEnrichEmptyInput when the
// message is blank, and ErrCodeEnrichClassificationFailed wrapping the last
// cause when the retry budget is spent.
func (s *ClassificationService) Classify(ctx context.Context, userMessage, assistantResponse string) (*ClassificationResult, error) {
	start := time.Now()

	if strings.TrimSpace(userMessage) == "" {
		return nil, errors.New(errors.ErrCodeEnrichEmptyInput, "user message is empty")
	}

	prompt := buildClassificationPrompt(
		Truncate(userMessage, s.cfg.MaxContentLength),
		Truncate(assistantResponse, s.cfg.MaxPromptLength),
	)

	raw, err := invokeAndDecode(ctx, s.transport, prompt, s.cfg.policy(), s.log)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEnrichClassificationFailed, "classification failed")
	}

	result := ValidateClassification(raw)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	result.ModelUsed = s.cfg.Model

	s.log.Debug("content classified",
		logging.String("theme", result.Theme),
		logging.String("intent", result.Intent),
		logging.Bool("is_work_related", result.IsWorkRelated),
		logging.Int64("processing_time_ms", result.ProcessingTimeMs),
	)
	return result, nil
}
