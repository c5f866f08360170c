package restbridge

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the coordinator on simulated time: Sleep records the
// requested duration and advances Now instead of blocking.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}

func testCoordinator(clk *fakeClock) *coordinator {
	return &coordinator{now: clk.Now, sleep: clk.Sleep}
}

func rateLimitedResponse(headers map[string]string) *RequestError {
	return &RequestError{Method: "GET", URL: "https://api.test/v1/things", Status: 429, Headers: headers}
}

func TestCoordinatorRetryAfterHint(t *testing.T) {
	clk := newFakeClock(time.Unix(1_000_000, 0))
	coord := testCoordinator(clk)
	var gate backoffGate

	calls := 0
	resp, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		if calls == 1 {
			return nil, rateLimitedResponse(map[string]string{"retry-after": "2"})
		}
		return &TransportResponse{Status: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, clk.sleeps())
}

func TestCoordinatorResetHint(t *testing.T) {
	// now has a fractional second so the delay must round up: the reset
	// epoch is 9.5s away and the computed sleep is ceil(9.5) = 10s.
	start := time.Unix(1_000_000, int64(500*time.Millisecond))
	clk := newFakeClock(start)
	coord := testCoordinator(clk)
	var gate backoffGate

	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		if calls == 1 {
			return nil, rateLimitedResponse(map[string]string{
				"x-ratelimit-remaining": "0",
				"x-ratelimit-reset":     "1000010",
			})
		}
		return &TransportResponse{Status: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{10 * time.Second}, clk.sleeps())
}

func TestCoordinatorResetDelayComputedAtSleepTime(t *testing.T) {
	// A reset-epoch delay must be measured when the gate is actually held,
	// not when the failure arrived. Here the clock advances 8s between the
	// failure and the hold, as if this caller had queued behind another
	// backoff; only 2s of the 10s window remain.
	times := []time.Time{time.Unix(1_000_000, 0), time.Unix(1_000_008, 0)}
	var slept []time.Duration
	coord := &coordinator{
		now: func() time.Time {
			now := times[0]
			if len(times) > 1 {
				times = times[1:]
			}
			return now
		},
		sleep: func(d time.Duration) { slept = append(slept, d) },
	}
	var gate backoffGate

	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		if calls == 1 {
			return nil, rateLimitedResponse(map[string]string{
				"x-ratelimit-remaining": "0",
				"x-ratelimit-reset":     "1000010",
			})
		}
		return &TransportResponse{Status: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, slept)
}

func TestCoordinatorRetryAfterWinsOverReset(t *testing.T) {
	clk := newFakeClock(time.Unix(1_000_000, 0))
	coord := testCoordinator(clk)
	var gate backoffGate

	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		if calls == 1 {
			return nil, rateLimitedResponse(map[string]string{
				"retry-after":           "3",
				"x-ratelimit-remaining": "0",
				"x-ratelimit-reset":     "1000600",
			})
		}
		return &TransportResponse{Status: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, clk.sleeps())
}

func TestCoordinatorNoHintIsUnrecoverable(t *testing.T) {
	clk := newFakeClock(time.Unix(1_000_000, 0))
	coord := testCoordinator(clk)
	var gate backoffGate

	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		return nil, rateLimitedResponse(map[string]string{})
	})

	var unrec *UnrecoverableRateLimitError
	require.ErrorAs(t, err, &unrec)
	assert.Equal(t, 429, unrec.Cause.Status)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.sleeps())

	// The original request error stays reachable through the chain.
	var reqErr *RequestError
	assert.ErrorAs(t, err, &reqErr)
}

func TestCoordinatorNonRateLimitStatusPropagates(t *testing.T) {
	clk := newFakeClock(time.Unix(1_000_000, 0))
	coord := testCoordinator(clk)
	var gate backoffGate

	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		return nil, &RequestError{Status: 500, URL: "https://api.test/boom", Method: "GET"}
	})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 500, reqErr.Status)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.sleeps())
}

func TestCoordinatorNetworkErrorPropagates(t *testing.T) {
	clk := newFakeClock(time.Unix(1_000_000, 0))
	coord := testCoordinator(clk)
	var gate backoffGate

	boom := fmt.Errorf("dial tcp: connection refused")
	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		return nil, boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestCoordinatorForbiddenAlsoBacksOff(t *testing.T) {
	clk := newFakeClock(time.Unix(1_000_000, 0))
	coord := testCoordinator(clk)
	var gate backoffGate

	calls := 0
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		if calls == 1 {
			return nil, &RequestError{
				Status:  403,
				Headers: map[string]string{"retry-after": "1"},
			}
		}
		return &TransportResponse{Status: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, clk.sleeps())
}

func TestGateEngaged(t *testing.T) {
	var gate backoffGate
	assert.False(t, gate.engaged())
	gate.mu.Lock()
	assert.True(t, gate.engaged())
	gate.mu.Unlock()
	assert.False(t, gate.engaged())
}

// TestCoordinatorConcurrentBackoff pins the coordination contract: when one
// request triggers a backoff, a second request sharing the Configuration
// queues at the gate instead of issuing its own retry loop. Exactly one
// sleep happens and the second request's transport call only occurs after
// the backoff window has been released.
func TestCoordinatorConcurrentBackoff(t *testing.T) {
	var gate backoffGate
	var calls atomic.Int32
	var callsAtRelease atomic.Int32

	sleepStarted := make(chan struct{})
	release := make(chan struct{})
	var slept atomic.Int32

	coord := &coordinator{
		now: time.Now,
		sleep: func(d time.Duration) {
			slept.Add(1)
			close(sleepStarted)
			<-release
		},
	}

	action := func() (*TransportResponse, error) {
		n := calls.Add(1)
		if n == 1 {
			return nil, rateLimitedResponse(map[string]string{"retry-after": "3"})
		}
		return &TransportResponse{Status: 200}, nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = coord.execute(&gate, action)
	}()

	// Start the second request only once the first is sleeping inside the
	// held gate, so it must queue rather than race.
	<-sleepStarted
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = coord.execute(&gate, action)
	}()

	// Give the second goroutine time to park at the gate, then end the
	// backoff window.
	time.Sleep(50 * time.Millisecond)
	callsAtRelease.Store(calls.Load())
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	// One failing call plus one retry plus the queued second request.
	assert.Equal(t, int32(3), calls.Load())
	// Only the first request backed off; the second never slept on its own.
	assert.Equal(t, int32(1), slept.Load())
	// While the backoff was in force, no further transport calls happened.
	assert.Equal(t, int32(1), callsAtRelease.Load())
}

func TestCoordinatorRestartsAfterConcurrentBackoff(t *testing.T) {
	// A request whose failure is observed while another caller's backoff
	// is in force must wait for the release and restart, not classify the
	// failure on its own.
	var gate backoffGate
	coord := &coordinator{now: time.Now, sleep: time.Sleep}

	released := make(chan struct{})
	calls := 0
	start := time.Now()
	_, err := coord.execute(&gate, func() (*TransportResponse, error) {
		calls++
		if calls == 1 {
			// A concurrent backoff engages while this call is in
			// flight; it releases 50ms later.
			gate.mu.Lock()
			go func() {
				time.Sleep(50 * time.Millisecond)
				close(released)
				gate.mu.Unlock()
			}()
			return nil, errors.New("reset by peer")
		}
		return &TransportResponse{Status: 200}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	// The retry happened only after the concurrent backoff released.
	select {
	case <-released:
	default:
		t.Fatal("retry ran before the concurrent backoff released")
	}
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
