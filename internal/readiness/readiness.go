// Package readiness implements port availability checks and
// bounded-time readiness waits for service containers.
//
// Two questions are answered here, both by asking the OS network stack
// directly rather than parsing /proc or shelling out:
//   - before start: is the host port free to publish on?
//     (net.Listen probe — if the bind succeeds, the port was free)
//   - after start: is the service accepting connections yet, within
//     the bounded startup window the deployment contract allows?
//     (dial loop with a deadline)
//
// The wait loop also consults an abort callback between attempts, so a
// container that exits during startup (unresolvable app target, failed
// in-container bind) fails the wait immediately instead of burning the
// whole window.
package readiness

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Default wait parameters. The 30 second window is deliberately
// generous: interpreter startup plus application import time for a
// heavyweight project can take several seconds on a cold page cache.
const (
	// DefaultTimeout bounds the whole readiness wait.
	DefaultTimeout = 30 * time.Second

	// DefaultInterval is the pause between dial attempts.
	DefaultInterval = 250 * time.Millisecond

	// DefaultDialTimeout bounds a single dial attempt.
	DefaultDialTimeout = 1 * time.Second
)

// IsHostPortAvailable checks whether a TCP port is free on the host by
// attempting to bind it. Binding all interfaces (":port") matches the
// address scope Docker publishes on, so a port held by any process on
// any interface counts as taken.
func IsHostPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// ProbeTCP reports whether a single connection attempt to addr
// succeeds within timeout. Used by `status --probe` for a point-in-time
// answer without a wait loop.
func ProbeTCP(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ProbeHTTP performs a GET against url and returns the response status
// code. Any response — even a 500 — proves the server runner is
// dispatching requests to the application; what the application answers
// is its own business.
func ProbeHTTP(ctx context.Context, url string, timeout time.Duration) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP probe of %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}

// Waiter polls a TCP address until it accepts a connection, an abort
// condition fires, or the deadline passes.
//
// The struct is configurable rather than function-parameterized so the
// CLI can shorten the window from an environment override while tests
// use millisecond values.
type Waiter struct {
	// Timeout bounds the whole wait.
	Timeout time.Duration

	// Interval is the pause between attempts.
	Interval time.Duration

	// DialTimeout bounds a single attempt.
	DialTimeout time.Duration
}

// NewWaiter creates a Waiter with the default parameters.
func NewWaiter() *Waiter {
	return &Waiter{
		Timeout:     DefaultTimeout,
		Interval:    DefaultInterval,
		DialTimeout: DefaultDialTimeout,
	}
}

// WaitTCP blocks until addr accepts a TCP connection, then returns nil.
//
// Between attempts the abort callback (if non-nil) is consulted; a
// non-nil abort error ends the wait immediately with that error. This
// is how a container that died during startup is distinguished from one
// that is merely slow: the caller passes an abort that inspects the
// container's state.
//
// Returns an error when the deadline passes, the context is cancelled,
// or abort fires. A nil return guarantees at least one successful
// connection was made (and closed) to addr.
func (w *Waiter) WaitTCP(ctx context.Context, addr string, abort func(context.Context) error) error {
	deadline := time.Now().Add(w.Timeout)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("readiness wait cancelled: %w", err)
		}

		conn, err := net.DialTimeout("tcp", addr, w.DialTimeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		if abort != nil {
			if abortErr := abort(ctx); abortErr != nil {
				return abortErr
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not accept connections within %s", addr, w.Timeout)
		}

		// Sleep in a select so cancellation is observed while idle.
		select {
		case <-ctx.Done():
			return fmt.Errorf("readiness wait cancelled: %w", ctx.Err())
		case <-time.After(w.Interval):
		}
	}
}
