// transport.go
// -------------
// The HTTP transport boundary. A Transport performs one wire call and is
// the runtime's only I/O surface; everything above it works with
// TransportRequest/TransportResponse values. The contract every Transport
// must honor: any non-2xx status is returned as a *RequestError carrying
// the status, the lowercased response headers, and the body. The rate-limit
// coordinator acts only on that error shape. Plain network failures
// (dial errors, timeouts) surface as ordinary errors and are never retried.
package restbridge

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// TransportRequest is the fully resolved wire request: URL already built,
// payload already encoded, headers already merged.
type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// TransportResponse is a successful (2xx) wire response. Header keys are
// lowercase. The body buffer is owned by the request that created it.
type TransportResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Header returns a response header by case-insensitive name.
func (r *TransportResponse) Header(name string) (string, bool) {
	v, ok := r.Headers[strings.ToLower(name)]
	return v, ok
}

// Transport performs one HTTP call.
type Transport interface {
	RoundTrip(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// HTTPTransport is the net/http-backed Transport.
type HTTPTransport struct {
	// Client defaults to a plain http.Client. Per-request timeouts come
	// from TransportRequest.Timeout via the context, so the client's own
	// Timeout is normally left zero.
	Client *http.Client
}

func (t *HTTPTransport) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

// RoundTrip executes the call and converts any non-2xx status into a
// *RequestError.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.httpClient().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string, len(resp.Header))
	for k, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Method:  req.Method,
			URL:     req.URL,
			Status:  resp.StatusCode,
			Headers: headers,
			Body:    data,
		}
	}
	return &TransportResponse{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    data,
	}, nil
}
