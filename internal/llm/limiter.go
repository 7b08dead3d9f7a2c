package llm

import (
	"context"
	"fmt"
	"time"
)

// Limited bounds the number of in-flight completions against a provider.
type Limited struct {
	Provider
	slots   chan struct{}
	timeout time.Duration
}

func NewLimited(p Provider, concurrent int, timeout time.Duration) *Limited {
	if concurrent < 1 {
		concurrent = 1
	}
	slots := make(chan struct{}, concurrent)
	for i := 0; i < concurrent; i++ {
		slots <- struct{}{}
	}
	return &Limited{Provider: p, slots: slots, timeout: timeout}
}

func (l *Limited) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	select {
	case <-l.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { l.slots <- struct{}{} }()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	c, err := l.Provider.Complete(ctx, req)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("llm: timed out after %s: %w", l.timeout, err)
	}
	return c, err
}
