// Package mock provides a scripted Transport for exercising the runtime
// without a network. Responses are served in script order with the last
// step repeating; non-2xx steps are converted into *restbridge.RequestError
// exactly as the real transport would, so coordinator behavior under rate
// limiting can be tested end to end.
package mock

import (
	"context"
	"sync"

	restbridge "github.com/opengovern/restbridge"
)

// Step is one scripted response. A non-nil Err is returned as-is,
// modelling a network failure. Otherwise a non-2xx Status produces a
// *restbridge.RequestError and a 2xx Status a normal response.
type Step struct {
	Status  int
	Headers map[string]string
	Body    []byte
	Err     error
}

// Transport serves a fixed script of responses and records every request
// it sees.
type Transport struct {
	mu       sync.Mutex
	script   []Step
	calls    int
	requests []restbridge.TransportRequest
}

// NewTransport builds a Transport serving the given steps in order. After
// the script is exhausted the final step repeats. An empty script serves
// 200s with empty bodies.
func NewTransport(steps ...Step) *Transport {
	return &Transport{script: steps}
}

// RoundTrip implements restbridge.Transport.
func (t *Transport) RoundTrip(ctx context.Context, req *restbridge.TransportRequest) (*restbridge.TransportResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	step := Step{Status: 200}
	if len(t.script) > 0 {
		i := t.calls
		if i >= len(t.script) {
			i = len(t.script) - 1
		}
		step = t.script[i]
	}
	t.calls++
	t.requests = append(t.requests, *req)
	t.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}
	headers := step.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	if step.Status < 200 || step.Status > 299 {
		return nil, &restbridge.RequestError{
			Method:  req.Method,
			URL:     req.URL,
			Status:  step.Status,
			Headers: headers,
			Body:    step.Body,
		}
	}
	return &restbridge.TransportResponse{
		Status:  step.Status,
		Headers: headers,
		Body:    step.Body,
	}, nil
}

// Calls reports how many times RoundTrip was invoked.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Request returns a copy of the i-th recorded request.
func (t *Transport) Request(i int) restbridge.TransportRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requests[i]
}
