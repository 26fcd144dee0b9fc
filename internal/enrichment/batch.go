package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// BatchConfig bounds batch size and fan-out per pipeline.  The two pipelines
// carry independent concurrency knobs: classification defaults to parallel
// workers while risk assessment defaults to a single worker, and either can
// be tuned without touching the other.
type BatchConfig struct {
	ClassifyLimit       int
	RiskLimit           int
	ClassifyConcurrency int
	RiskConcurrency     int
}

// BatchOrchestrator fans a list of items out to the per-item services with
// partial-failure semantics: one item's failure becomes data in its slot and
// never aborts the batch or disturbs its siblings.  Result order always
// mirrors input order.
type BatchOrchestrator struct {
	classifier *ClassificationService
	risk       *RiskAssessmentService
	cfg        BatchConfig
	log        logging.Logger
}

// NewBatchOrchestrator wires a batch layer over the two single-item services.
func NewBatchOrchestrator(classifier *ClassificationService, risk *RiskAssessmentService, cfg BatchConfig, log logging.Logger) *BatchOrchestrator {
	if cfg.ClassifyConcurrency < 1 {
		cfg.ClassifyConcurrency = 1
	}
	if cfg.RiskConcurrency < 1 {
		cfg.RiskConcurrency = 1
	}
	return &BatchOrchestrator{
		classifier: classifier,
		risk:       risk,
		cfg:        cfg,
		log:        log.Named("enrichment.batch"),
	}
}

// ClassifyBatch classifies up to ClassifyLimit items.  Oversized batches are
// rejected whole with ErrCodeEnrichBatchTooLarge before any work starts.
func (o *BatchOrchestrator) ClassifyBatch(ctx context.Context, items []ClassificationInput) ([]BatchItemResult[ClassificationResult], error) {
	if len(items) > o.cfg.ClassifyLimit {
		return nil, errors.New(errors.ErrCodeEnrichBatchTooLarge, "classification batch exceeds the configured limit").
			WithDetail(fmt.Sprintf("got %d, limit %d", len(items), o.cfg.ClassifyLimit))
	}

	o.log.Info("classification batch started",
		logging.Int("items", len(items)),
		logging.Int("concurrency", o.cfg.ClassifyConcurrency),
	)
	results := runBatch(ctx, items, o.cfg.ClassifyConcurrency,
		func(item ClassificationInput) string { return item.CorrelationID },
		func(ctx context.Context, item ClassificationInput) (*ClassificationResult, error) {
			return o.classifier.Classify(ctx, item.UserMessage, item.AssistantResponse)
		},
	)
	o.log.Info("classification batch finished",
		logging.Int("items", len(results)),
		logging.Int("failed", countFailed(results)),
	)
	return results, nil
}

// AssessRiskBatch assesses up to RiskLimit items.  Oversized batches are
// rejected whole with ErrCodeEnrichBatchTooLarge before any work starts.
func (o *BatchOrchestrator) AssessRiskBatch(ctx context.Context, items []RiskInput) ([]BatchItemResult[RiskAssessmentResult], error) {
	if len(items) > o.cfg.RiskLimit {
		return nil, errors.New(errors.ErrCodeEnrichBatchTooLarge, "risk batch exceeds the configured limit").
			WithDetail(fmt.Sprintf("got %d, limit %d", len(items), o.cfg.RiskLimit))
	}

	o.log.Info("risk batch started",
		logging.Int("items", len(items)),
		logging.Int("concurrency", o.cfg.RiskConcurrency),
	)
	results := runBatch(ctx, items, o.cfg.RiskConcurrency,
		func(item RiskInput) string { return item.CorrelationID },
		func(ctx context.Context, item RiskInput) (*RiskAssessmentResult, error) {
			return o.risk.AssessRisk(ctx, item.Content, item.Role, item.Context)
		},
	)
	o.log.Info("risk batch finished",
		logging.Int("items", len(results)),
		logging.Int("failed", countFailed(results)),
	)
	return results, nil
}

// runBatch processes items under a semaphore of size concurrency, writing
// each outcome into its input slot so ordering is preserved without a
// collector goroutine.  Item failures are captured as data; there is no
// cross-item cancellation.
func runBatch[I any, R any](
	ctx context.Context,
	items []I,
	concurrency int,
	correlationID func(I) string,
	process func(context.Context, I) (*R, error),
) []BatchItemResult[R] {
	results := make([]BatchItemResult[R], len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item I) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			result := BatchItemResult[R]{CorrelationID: correlationID(item)}

			data, err := process(ctx, item)
			result.DurationMs = time.Since(start).Milliseconds()
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Success = true
				result.Data = data
			}
			results[i] = result
		}(i, item)
	}

	wg.Wait()
	return results
}

func countFailed[R any](results []BatchItemResult[R]) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
