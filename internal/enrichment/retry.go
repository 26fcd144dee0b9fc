package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/promptdeck/promptdeck/internal/enrichment/transport"
	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
	"github.com/promptdeck/promptdeck/pkg/errors"
)

// retryPolicy bounds one logical enrichment call: MaxRetries retries after
// the initial attempt, a fixed Delay between attempts, and a CallTimeout on
// each individual model invocation.
type retryPolicy struct {
	MaxRetries  int
	Delay       time.Duration
	CallTimeout time.Duration

	// OnRetry, when set, is called before every attempt after the first.
	// Used to feed the retry counter metric.
	OnRetry func(attempt int)
}

// invokeAndDecode drives the retry loop shared by both pipelines: invoke the
// transport under a per-call deadline, repair the reply, decode it into a raw
// map.  Transport failures and undecodable replies consume the same retry
// budget; a decoded map ends the loop.  When the budget is spent the last
// underlying error is wrapped in ErrCodeEnrichRetriesExhausted.
func invokeAndDecode(ctx context.Context, tr transport.ModelTransport, prompt transport.Prompt, policy retryPolicy, log logging.Logger) (map[string]interface{}, error) {
	attempts := policy.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if policy.OnRetry != nil {
				policy.OnRetry(attempt)
			}
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeEnrichModelCall, "enrichment aborted while waiting to retry")
			case <-time.After(policy.Delay):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, policy.CallTimeout)
		rawText, err := tr.Invoke(callCtx, prompt)
		cancel()
		if err != nil {
			lastErr = err
			log.Warn("model call failed",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", attempts),
				logging.Err(err),
			)
			continue
		}

		decoded, err := decodeObject(RepairJSON(rawText))
		if err != nil {
			lastErr = err
			log.Warn("model reply not decodable",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", attempts),
				logging.Err(err),
			)
			continue
		}
		return decoded, nil
	}

	return nil, errors.Wrap(lastErr, errors.ErrCodeEnrichRetriesExhausted, "all enrichment attempts failed").
		WithDetail(fmt.Sprintf("%d attempts", attempts))
}
