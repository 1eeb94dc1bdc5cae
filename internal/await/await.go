// Package await implements the rendezvous coordinator: the polling wait that
// bridges the async gap between an agent's request and the human's response.
//
// The coordinator has no push channel to the responder process - the two
// sides may start, crash, and restart without coordination - so delivery is
// by polling the shared store at a fixed interval. Timeout and external
// cancellation both close the wait by writing a synthetic cancelled response
// through the store's write-once insert, which guarantees every request ends
// with exactly one permanent outcome even when a human answer lands in the
// same instant.
package await

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/drey/pkg/rendezvous"
)

const (
	// DefaultPollInterval is the fixed sleep between response checks.
	// Latency is bounded by this interval; correctness does not depend on it.
	DefaultPollInterval = 500 * time.Millisecond

	// resolveTimeout bounds the store calls made while closing out a wait.
	// Resolution runs on a fresh context because the caller's context may
	// already be cancelled - that cancellation is the reason we are resolving.
	resolveTimeout = 5 * time.Second

	// storeFailureLimit is the number of consecutive failed polls tolerated
	// before the wait is abandoned as faulted. Isolated store hiccups are
	// retried at the normal polling cadence with no extra backoff.
	storeFailureLimit = 20
)

// Coordinator waits for responses on behalf of requesting callers.
// Multiple Await calls may run concurrently; each polls only its own
// request ID and they never interfere.
type Coordinator struct {
	store    *rendezvous.Client
	interval time.Duration
}

// New creates a coordinator polling at the given interval.
// An interval of 0 selects DefaultPollInterval.
func New(store *rendezvous.Client, interval time.Duration) *Coordinator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Coordinator{store: store, interval: interval}
}

// Await blocks until the request identified by requestID reaches a terminal
// outcome: a stored response is found and classified, the deadline elapses,
// or ctx is cancelled. A deadline of 0 means wait without bound.
//
// The deadline is measured from this call, not from request creation - a
// caller may re-enter Await after a TimedOut or Cancelled outcome and the
// clock starts over. Re-entering a wait whose request already has a stored
// response returns the same classification again without writing anything.
func (c *Coordinator) Await(ctx context.Context, requestID string, deadline time.Duration) Outcome {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var timeoutCh <-chan time.Time
	if deadline > 0 {
		timer := time.NewTimer(deadline)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	failures := 0

	for {
		resp, err := c.store.GetResponse(ctx, requestID)
		switch {
		case err == nil:
			return Classify(resp)

		case rendezvous.IsNotFound(err):
			failures = 0

		case ctx.Err() != nil:
			// The read failed because the caller's context is gone; fall
			// through to the cancellation branch below via ctx.Done().

		default:
			failures++
			log.Printf("[DEBUG] Response poll failed for request=%s (attempt %d): %v", requestID, failures, err)
			if failures >= storeFailureLimit {
				return Faulted(fmt.Errorf("store unreachable after %d consecutive polls: %w", failures, err))
			}
		}

		select {
		case <-ctx.Done():
			return c.resolve(requestID, KindCancelled)

		case <-timeoutCh:
			return c.resolve(requestID, KindTimedOut)

		case <-ticker.C:
		}
	}
}

// resolve closes out a timed-out or cancelled wait. It attempts to write a
// synthetic cancelled response; if the write wins, the request's status moves
// to cancelled and the wait's own cause is returned. If the write loses -
// a human answer committed in the same instant - the stored response is
// re-read and classified instead, so the returned outcome always matches
// what the store permanently holds.
func (c *Coordinator) resolve(requestID string, cause Kind) Outcome {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	stored, err := c.store.CreateResponseIfAbsent(ctx, rendezvous.NewSyntheticResponse(requestID))
	if err != nil {
		return Faulted(fmt.Errorf("failed to write synthetic response for request %s: %w", requestID, err))
	}

	if !stored {
		// Lost the write-once race: the human's response is the permanent one.
		resp, err := c.store.GetResponse(ctx, requestID)
		if err != nil {
			return Faulted(fmt.Errorf("failed to re-read response for request %s: %w", requestID, err))
		}
		log.Printf("[DEBUG] Synthetic response for request=%s lost the write race, classifying stored response", requestID)
		return Classify(resp)
	}

	if err := c.store.UpdateRequestStatus(ctx, requestID, rendezvous.StatusCancelled); err != nil && !rendezvous.IsNotFound(err) {
		// The synthetic response is already committed, so the outcome stands;
		// a failed status update leaves the request findable for repair.
		log.Printf("[ERROR] Failed to mark request=%s cancelled: %v", requestID, err)
	}

	log.Printf("[INFO] Request %s resolved as %s", requestID, cause)
	return Outcome{Kind: cause}
}
