// errors.go
// ---------
// Typed errors surfaced by the runtime. Every fatal category carries enough
// context (URL, status, headers) for diagnosis; nothing is swallowed.
//
// Categories:
// - ConfigurationError: bad runtime wiring (missing base URL, unknown format
//   tag, ambiguous envelope field). Never retried.
// - ValidationError: the endpoint's Validate() returned false. No network
//   call is made.
// - RequestError: the transport observed a non-2xx status. The rate-limit
//   coordinator acts only on this error shape.
// - UnrecoverableRateLimitError: a 403/429 arrived without a usable delay
//   hint, so the coordinator could not recover transparently.
package restbridge

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a problem with how the runtime or an endpoint
// is wired together. It is always fatal to the request and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "restbridge: configuration error: " + e.Reason
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports that an endpoint refused its own request before
// any network activity took place.
type ValidationError struct {
	Endpoint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("restbridge: malformed request for endpoint %s", e.Endpoint)
}

// RequestError is the structured failure the transport returns for any
// non-2xx response. Header keys are lowercase.
type RequestError struct {
	Method  string
	URL     string
	Status  int
	Headers map[string]string
	Body    []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("restbridge: %s %s returned status %d", e.Method, e.URL, e.Status)
}

// Header returns a response header by case-insensitive name.
func (e *RequestError) Header(name string) (string, bool) {
	v, ok := e.Headers[strings.ToLower(name)]
	return v, ok
}

// IsRateLimit reports whether the status is one the coordinator treats as a
// rate-limit signal.
func (e *RequestError) IsRateLimit() bool {
	return e.Status == 403 || e.Status == 429
}

// UnrecoverableRateLimitError wraps a 403/429 response that carried neither
// a retry-after value nor an exhausted-quota reset time. The coordinator
// refuses to guess a delay and hands the failure to the caller instead.
type UnrecoverableRateLimitError struct {
	Cause *RequestError
}

func (e *UnrecoverableRateLimitError) Error() string {
	return fmt.Sprintf("restbridge: rate limited with no usable retry hint: %v", e.Cause)
}

func (e *UnrecoverableRateLimitError) Unwrap() error {
	return e.Cause
}

// ErrNoNextPage is returned by NextPage when the endpoint either does not
// support pagination or reports that the current page is the last one.
var ErrNoNextPage = fmt.Errorf("restbridge: no next page")
