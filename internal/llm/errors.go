package llm

import (
	"errors"
	"fmt"
	"strings"
)

// previewLimit caps how much raw payload an error carries for logging.
const previewLimit = 200

// truncatePreview shortens s to at most previewLimit runes for diagnostics.
func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit]) + "..."
}

// ExtractionError indicates that the provider envelope yielded no text.
// Always recoverable: the caller falls back to the keyword classifier.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from provider response: %s", e.Reason)
}

// ParseError indicates that text was obtained but no strategy could produce
// valid JSON from it. Always recoverable.
type ParseError struct {
	Preview string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON value found in response text: %s", e.Preview)
}

// ValidationError indicates that JSON was obtained but failed business-rule
// checks. It lists every violated rule, not just the first, so systematically
// bad prompts can be diagnosed from logs. Always recoverable.
type ValidationError struct {
	Preview    string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("classification failed validation: %s", strings.Join(e.Violations, "; "))
}

// TransportError wraps a network-level failure from a provider client.
type TransportError struct {
	Err        error
	Provider   string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure class is worth retrying: rate
// limits, server errors, timeouts, and generic network failures. Credential
// and client errors are not.
func (e *TransportError) Transient() bool {
	switch {
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == 0:
		// No HTTP status: timeout or connection-level failure.
		return true
	default:
		return false
	}
}

// isTransient classifies an arbitrary error from the transport layer.
func isTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Transient()
	}
	return true
}
