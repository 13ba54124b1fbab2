package apiclient

import (
	"context"
	"sync"

	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// RefreshFunc performs the refresh call against the backend.
type RefreshFunc func(ctx context.Context) error

// waiter is one suspended caller. The channel is buffered so settling never
// blocks on a caller that has already given up.
type waiter struct {
	done chan error
}

// Coordinator serializes token refreshes. The first caller that observes a
// recoverable 401 runs the refresh; callers arriving while it is in flight
// are queued and settled in arrival order with its outcome.
//
// A refresh that fails ends the session through onFailure before any queued
// caller is settled.
type Coordinator struct {
	refresh   RefreshFunc
	onFailure func(err error)
	logger    logger.Interface

	mu         sync.Mutex
	refreshing bool
	generation uint64
	queue      []*waiter

	// settled is called for each queue entry in settle order; tests only.
	settled func(position int, err error)
}

func NewCoordinator(refresh RefreshFunc, onFailure func(err error), log logger.Interface) *Coordinator {
	if onFailure == nil {
		onFailure = func(error) {}
	}
	return &Coordinator{
		refresh:   refresh,
		onFailure: onFailure,
		logger:    log,
	}
}

// Generation identifies the current token lifetime. It advances on every
// successful refresh.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Refreshing reports whether a refresh is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of queued callers.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Await is called by a request that failed with 401 after being sent under
// generation seen. It returns nil once credentials are fresh and the request
// may be replayed, or the refresh error.
//
// If a refresh already succeeded since seen, Await returns immediately
// without starting another one. The refresh runs detached from ctx; ctx
// only bounds how long this caller waits.
func (c *Coordinator) Await(ctx context.Context, seen uint64) error {
	c.mu.Lock()
	if c.generation != seen {
		c.mu.Unlock()
		return nil
	}
	if c.refreshing {
		w := &waiter{done: make(chan error, 1)}
		c.queue = append(c.queue, w)
		c.mu.Unlock()

		select {
		case err := <-w.done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	// Flag goes up before the call so concurrent failures queue behind it.
	c.refreshing = true
	c.mu.Unlock()

	err := c.refresh(context.WithoutCancel(ctx))
	if err != nil {
		c.logger.Warnw("token refresh failed, ending session", "error", err)
		c.onFailure(err)
	}

	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.refreshing = false
	if err == nil {
		c.generation++
	}
	settled := c.settled
	c.mu.Unlock()

	for i, w := range queue {
		w.done <- err
		if settled != nil {
			settled(i, err)
		}
	}
	if len(queue) > 0 {
		c.logger.Debugw("refresh queue drained", "count", len(queue), "failed", err != nil)
	}
	return err
}
