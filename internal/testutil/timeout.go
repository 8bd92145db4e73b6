package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultBrowserTimeout bounds one browser session against the web board.
	DefaultBrowserTimeout = time.Minute

	// ShortTimeout bounds a single request or opening a board.
	ShortTimeout = 30 * time.Second

	// DefaultTestBuffer is kept free before the test binary's deadline so
	// cleanup can still run.
	DefaultTestBuffer = 10 * time.Second
)

// ContextWithTestDeadline returns a context that ends after limit, or earlier
// if the test binary's deadline (less DefaultTestBuffer) comes first.
func ContextWithTestDeadline(t *testing.T, limit time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadlineBuffer(t, limit, DefaultTestBuffer)
}

// ContextWithTestDeadlineBuffer is ContextWithTestDeadline with a custom
// buffer. A test deadline already inside the buffer is ignored.
func ContextWithTestDeadlineBuffer(t *testing.T, limit, buffer time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	end := time.Now().Add(limit)
	if deadline, ok := t.Deadline(); ok {
		if cut := deadline.Add(-buffer); time.Until(cut) > 0 && cut.Before(end) {
			end = cut
		}
	}
	return context.WithDeadline(context.Background(), end)
}

// BrowserContext bounds a browser session.
func BrowserContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultBrowserTimeout)
}

// ShortOperationContext bounds a quick operation.
func ShortOperationContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, ShortTimeout)
}

// Remaining returns the time left before ctx's deadline, or fallback when it
// has none. Useful for libraries that take timeouts instead of contexts.
func Remaining(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	return max(time.Until(deadline), 0)
}
