package hints

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    time.Duration
		ok      bool
	}{
		{"integer seconds", map[string]string{"retry-after": "7"}, 7 * time.Second, true},
		{"zero", map[string]string{"retry-after": "0"}, 0, true},
		{"padded", map[string]string{"retry-after": " 3 "}, 3 * time.Second, true},
		{"absent", map[string]string{}, 0, false},
		{"http date rejected", map[string]string{"retry-after": "Wed, 21 Oct 2026 07:28:00 GMT"}, 0, false},
		{"negative rejected", map[string]string{"retry-after": "-5"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RetryAfter(tt.headers)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResetDelay(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	tests := []struct {
		name    string
		headers map[string]string
		want    time.Duration
		ok      bool
	}{
		{
			"exhausted quota with future reset",
			map[string]string{"x-ratelimit-remaining": "0", "x-ratelimit-reset": "1000042"},
			42 * time.Second, true,
		},
		{
			"remaining requests left",
			map[string]string{"x-ratelimit-remaining": "5", "x-ratelimit-reset": "1000042"},
			0, false,
		},
		{
			"no remaining header",
			map[string]string{"x-ratelimit-reset": "1000042"},
			0, false,
		},
		{
			"no reset header",
			map[string]string{"x-ratelimit-remaining": "0"},
			0, false,
		},
		{
			"reset already past clamps to zero",
			map[string]string{"x-ratelimit-remaining": "0", "x-ratelimit-reset": "999000"},
			0, true,
		},
		{
			"unparsable reset",
			map[string]string{"x-ratelimit-remaining": "0", "x-ratelimit-reset": "soon"},
			0, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResetDelay(tt.headers, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResetDelayRoundsUp(t *testing.T) {
	now := time.Unix(1_000_000, int64(200*time.Millisecond))
	got, ok := ResetDelay(map[string]string{
		"x-ratelimit-remaining": "0",
		"x-ratelimit-reset":     "1000010",
	}, now)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Second, got)
}
