// Package poll waits for an element to appear in a live page when the
// action that produces it offers no completion signal.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = time.Second

	// NoDelay retries immediately. A zero Delay means DefaultDelay.
	NoDelay time.Duration = -1
)

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("element not found")

// NotFoundError reports a selector that never matched within the attempt budget.
type NotFoundError struct {
	Selector string
	Attempts int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("selector %q not found after %d attempts", e.Selector, e.Attempts)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Querier looks up a single element. ok is false when nothing matches.
type Querier[E any] interface {
	Query(selector string) (elem E, ok bool, err error)
}

// Options configure the retry budget. Zero values take the defaults; a
// negative Delay such as NoDelay retries without waiting.
type Options struct {
	Attempts int
	Delay    time.Duration
	// Sleep replaces the context-aware timer, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns the budget used when nothing is configured.
func DefaultOptions() Options {
	return Options{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	switch {
	case o.Delay == 0:
		o.Delay = DefaultDelay
	case o.Delay < 0:
		o.Delay = 0
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	return o
}

// Selector queries q for selector up to opts.Attempts times, sleeping
// opts.Delay between misses. It returns the element on the first hit and
// does not sleep after the final miss, so a failed wait sleeps
// Attempts-1 times. Query errors end the wait immediately.
func Selector[E any](ctx context.Context, q Querier[E], selector string, opts Options) (E, error) {
	opts = opts.withDefaults()

	var zero E
	for attempt := 1; ; attempt++ {
		elem, ok, err := q.Query(selector)
		if err != nil {
			return zero, fmt.Errorf("query %q: %w", selector, err)
		}
		if ok {
			return elem, nil
		}
		if attempt >= opts.Attempts {
			return zero, &NotFoundError{Selector: selector, Attempts: attempt}
		}
		if err := opts.Sleep(ctx, opts.Delay); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
