// ratelimit.go
// -------------
// The rate-limit coordinator. When an API answers 403/429, every request
// sharing the same Configuration must pause together instead of each
// retrying independently and re-triggering the limit. The mechanism is one
// backoff gate per Configuration: a mutex held only for the duration of a
// computed sleep. Callers that arrive while the gate is held queue on it;
// callers whose in-flight request fails while someone else started backing
// off wait for the release and then restart from the top rather than
// racing their own retry.
//
// The delay comes from the server, never from a guess: an integer
// retry-after header wins, else an exhausted x-ratelimit-remaining quota
// with an x-ratelimit-reset epoch yields ceil(reset - now). With neither
// hint the original failure is re-raised as UnrecoverableRateLimitError.
//
// Retries are unbounded. A persistently limited endpoint is retried until
// the server relents; callers needing bounded latency impose their own
// deadline via context.
package restbridge

import (
	"errors"
	"sync"
	"time"

	"github.com/opengovern/restbridge/internal/hints"
)

// backoffGate serializes recovery from rate-limit responses across all
// requests sharing one Configuration. The mutex is held only while a
// backoff sleep is in progress, never across normal network I/O.
type backoffGate struct {
	mu sync.Mutex
}

// wait blocks while a backoff is in force, then returns immediately. The
// empty critical section is the point: queue behind the holder, take the
// lock for an instant, move on.
func (g *backoffGate) wait() {
	g.mu.Lock()
	g.mu.Unlock() //nolint:staticcheck // SA2001: deliberate barrier
}

// engaged reports whether a backoff is currently in force. The answer can
// go stale the moment it is returned; the coordinator only uses it to
// decide between restarting and classifying the failure, and a stale false
// simply means the next iteration queues at the gate instead.
func (g *backoffGate) engaged() bool {
	if g.mu.TryLock() {
		g.mu.Unlock()
		return false
	}
	return true
}

// hold runs fn while the gate is held exclusively.
func (g *backoffGate) hold(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// coordinator drives the backoff state machine. The clock and sleep
// functions are swappable so tests can run on simulated time.
type coordinator struct {
	now   func() time.Time
	sleep func(time.Duration)
}

func newCoordinator() *coordinator {
	return &coordinator{now: time.Now, sleep: time.Sleep}
}

// execute runs action through the gate until it succeeds or fails for a
// reason the coordinator does not own:
//
//  1. Queue behind any active backoff.
//  2. Invoke action. Success returns. On failure, if another caller began
//     backing off while this call was in flight, queue again and restart
//     the whole procedure. A 403/429 with a usable delay hint engages the
//     gate, sleeps out the delay while holding it, then restarts. A
//     403/429 without a hint surfaces as UnrecoverableRateLimitError.
//     Anything else propagates untouched.
func (c *coordinator) execute(gate *backoffGate, action func() (*TransportResponse, error)) (*TransportResponse, error) {
	for {
		gate.wait()

		resp, err := action()
		if err == nil {
			return resp, nil
		}

		// A concurrent backoff may have engaged while this call was in
		// flight. Queue for its release and restart from the top: the
		// failure may have been a symptom of the same limit.
		if gate.engaged() {
			gate.wait()
			continue
		}

		var reqErr *RequestError
		if !errors.As(err, &reqErr) || !reqErr.IsRateLimit() {
			return nil, err
		}

		if _, ok := c.delayFor(reqErr); !ok {
			return nil, &UnrecoverableRateLimitError{Cause: reqErr}
		}

		// Sleeping under the held gate is the whole point: every other
		// caller sharing this Configuration queues here until the
		// window has passed. The delay is recomputed once the gate is
		// held, so a reset-epoch hint accounts for time already spent
		// queued behind an earlier hold.
		gate.hold(func() {
			delay, _ := c.delayFor(reqErr)
			c.sleep(delay)
		})
	}
}

// delayFor extracts the server-supplied backoff delay from a rate-limited
// response, in preference order. ok is false when no usable hint exists.
func (c *coordinator) delayFor(e *RequestError) (time.Duration, bool) {
	if d, ok := hints.RetryAfter(e.Headers); ok {
		return d, true
	}
	if d, ok := hints.ResetDelay(e.Headers, c.now()); ok {
		return d, true
	}
	return 0, false
}
