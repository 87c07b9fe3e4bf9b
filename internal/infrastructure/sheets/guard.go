package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultCallTimeout bounds a single remote spreadsheet call
const DefaultCallTimeout = 8 * time.Second

// CallGuard runs each remote call on its own goroutine with a hard wall-clock
// deadline. When the deadline expires the guard returns ErrTimeout and stops
// waiting; the call's context is cancelled so the transport can abort, but
// whatever the goroutine eventually produces is discarded.
type CallGuard struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewCallGuard creates a guard with the given per-call timeout. A zero or
// negative timeout falls back to DefaultCallTimeout.
func NewCallGuard(timeout time.Duration, logger *zap.Logger) *CallGuard {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallGuard{timeout: timeout, logger: logger}
}

// Do executes fn under the guard's deadline. The context handed to fn is
// detached from the caller's cancellation but is cancelled when the deadline
// expires, so an abandoned call does not hold its connection forever.
func (g *CallGuard) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := DoValue(g, ctx, op, func(callCtx context.Context) (struct{}, error) {
		return struct{}{}, fn(callCtx)
	})
	return err
}

// DoValue is Do for calls that produce a value
func DoValue[T any](g *CallGuard, ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{value: v, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		cancel()
		return res.value, res.err
	case <-timer.C:
		cancel()
		g.logger.Warn("Spreadsheet call exceeded deadline",
			zap.String("op", op),
			zap.Duration("timeout", g.timeout))
		var zero T
		return zero, fmt.Errorf("%w: %s after %s", ErrTimeout, op, g.timeout)
	}
}
