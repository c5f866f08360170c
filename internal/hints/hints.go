// Package hints extracts backoff delays from rate-limit response headers.
// The coordinator prefers a server-supplied retry-after count of seconds;
// failing that, an exhausted x-ratelimit-remaining quota paired with an
// x-ratelimit-reset epoch yields ceil(reset - now). Header keys are
// expected lowercase, matching the transport's normalized header maps.
package hints

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	headerRetryAfter = "retry-after"
	headerRemaining  = "x-ratelimit-remaining"
	headerReset      = "x-ratelimit-reset"
)

// RetryAfter parses an integer retry-after header into a duration.
func RetryAfter(headers map[string]string) (time.Duration, bool) {
	val, ok := headers[headerRetryAfter]
	if !ok {
		return 0, false
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// ResetDelay reports how long until the rate-limit window resets, but only
// when the remaining-request counter is present and exhausted. The reset
// header is a UNIX epoch in seconds; the delay is rounded up to whole
// seconds and clamped at zero when the reset is already past.
func ResetDelay(headers map[string]string, now time.Time) (time.Duration, bool) {
	rem, ok := headers[headerRemaining]
	if !ok {
		return 0, false
	}
	remaining, err := strconv.ParseInt(strings.TrimSpace(rem), 10, 64)
	if err != nil || remaining > 0 {
		return 0, false
	}
	resetVal, ok := headers[headerReset]
	if !ok {
		return 0, false
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(resetVal), 10, 64)
	if err != nil {
		return 0, false
	}
	secs := math.Ceil(time.Unix(epoch, 0).Sub(now).Seconds())
	if secs < 0 {
		secs = 0
	}
	return time.Duration(secs) * time.Second, true
}
