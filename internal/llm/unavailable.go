package llm

import (
	"context"
	"fmt"
)

// Unavailable stands in for a provider that could not be configured. Every
// completion fails with the original cause, so callers serve their fallback.
type Unavailable struct {
	baseURL string
	cause   error
}

func NewUnavailable(baseURL string, cause error) *Unavailable {
	return &Unavailable{baseURL: baseURL, cause: cause}
}

func (u *Unavailable) BaseURL() string {
	return u.baseURL
}

func (u *Unavailable) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return nil, fmt.Errorf("llm: provider unavailable: %w", u.cause)
}
