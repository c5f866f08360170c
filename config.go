// config.go
// ----------
// This file defines the Configuration structure, which describes one API an
// application talks to: its base URL, credentials, per-call timeout, and an
// optional proactive throttle.
//
// A Configuration also owns the backoff gate the rate-limit coordinator uses
// to pause every concurrent request sharing it. The gate is the only mutable
// part of a Configuration; everything else is fixed after construction.
// Requests issued against different Configurations never coordinate.
package restbridge

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/opengovern/restbridge/auth"
)

// Configuration describes one API. It is shared by reference across all
// requests issued through it, typically as a per-API singleton.
type Configuration struct {
	// BaseURL is the scheme+host(+prefix) every endpoint path is appended
	// to. Required; BuildURL fails with a ConfigurationError when empty.
	BaseURL string

	// APIKey, if set, is sent as a bearer Authorization header unless the
	// endpoint supplies its own or Credentials is set.
	APIKey *string

	// Timeout bounds each underlying HTTP call. It does not bound the
	// time spent waiting out a rate-limit backoff.
	Timeout time.Duration

	// Throttle, if set, is waited on before every attempt, capping the
	// outgoing request rate across all callers of this Configuration.
	Throttle *rate.Limiter

	// Credentials, if set, contributes the Authorization header for every
	// request. Takes precedence over APIKey.
	Credentials auth.CredentialSource

	gate backoffGate
}

// NewConfiguration returns a Configuration for the given base URL with a
// 30-second call timeout. Optional fields may be set before first use.
func NewConfiguration(baseURL string) *Configuration {
	return &Configuration{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// WithAPIKey sets the bearer API key and returns the same Configuration.
func (c *Configuration) WithAPIKey(key string) *Configuration {
	c.APIKey = &key
	return c
}

// WithTimeout sets the per-call timeout and returns the same Configuration.
func (c *Configuration) WithTimeout(d time.Duration) *Configuration {
	c.Timeout = d
	return c
}

// WithThrottle sets a proactive rate limiter and returns the same
// Configuration.
func (c *Configuration) WithThrottle(l *rate.Limiter) *Configuration {
	c.Throttle = l
	return c
}

// WithCredentials sets the credential source and returns the same
// Configuration.
func (c *Configuration) WithCredentials(src auth.CredentialSource) *Configuration {
	c.Credentials = src
	return c
}
