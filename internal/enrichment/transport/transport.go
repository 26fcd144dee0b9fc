// Package transport abstracts how the enrichment engine talks to a language
// model.  Two interchangeable implementations exist: a single-shot chat
// completion and an assistant-thread run with polling.  The engine depends
// only on the Invoke contract, so the mode is a configuration choice.
package transport

import "context"

// Prompt is a fully rendered model request: a system instruction plus the
// user payload.  Transports decide how to map the pair onto their provider
// API (message roles for completions, run instructions for assistants).
type Prompt struct {
	System string
	User   string
}

// ModelTransport invokes a language model once and returns its raw text
// reply.  Implementations must honour ctx for both cancellation and deadline;
// the caller bounds every invocation with a per-call timeout.  The reply is
// returned untouched — repair and validation are the engine's job.
type ModelTransport interface {
	Invoke(ctx context.Context, prompt Prompt) (string, error)
}
