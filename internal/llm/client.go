package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Client defines the transport interface for LLM providers. Generate sends
// a rendered prompt and returns the provider's wire-level envelope as-is;
// decoding the payload is the extractor's job, because providers wrap their
// text in different (and occasionally malformed) structures.
type Client interface {
	// Name identifies the provider for logs and metadata.
	Name() string
	// Generate performs one completion call. Implementations return a
	// *TransportError for HTTP and network failures.
	Generate(ctx context.Context, prompt string) (json.RawMessage, error)
}

// Config holds configuration for the LLM classifier.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
	// Timeout bounds a single provider call. A timed-out call is treated
	// like any other transport failure.
	Timeout time.Duration
	// BatchWindow is the number of simultaneous in-flight calls during
	// batch classification. A window of 1 means strictly sequential with
	// BatchDelay between calls.
	BatchWindow int
	BatchDelay  time.Duration
}
