// restbridge.go
// --------------
// The restbridge.go file contains the core Client struct and its methods.
// This is the main entry point of the runtime for users.
//
// Key functionalities include:
// - Constructing the runtime with New()
// - Issuing untyped requests via Client.Do() and the method shorthands
// - Issuing typed requests via Fetch/FetchList/DoSingle/DoList
// - Walking paginated results via NextPage
//
// The Client relies on a coordinator and a RequestExecutor to handle
// rate-limit backoff and the request pipeline, ensuring every endpoint
// issued through one Configuration behaves consistently.
package restbridge

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// Client is the request runtime. One Client serves any number of
// Configurations; the rate-limit coordination state lives on the
// Configuration, not here.
type Client struct {
	transport Transport
	registry  *Registry
	coord     *coordinator
	executor  *RequestExecutor
	logger    *slog.Logger
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithTransport replaces the net/http transport, typically with a mock.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithRegistry replaces the codec registry.
func WithRegistry(r *Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithLogger directs the request/response debug trace to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDebug traces every request and response to stderr.
func WithDebug() Option {
	return func(c *Client) {
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}

// New constructs a Client with an HTTP transport and a registry holding
// only the Raw codec; callers register JSON/XML from the codecs package
// and their envelope types before first use.
func New(opts ...Option) *Client {
	c := &Client{
		transport: &HTTPTransport{},
		registry:  NewRegistry(),
		coord:     newCoordinator(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.executor = newRequestExecutor(c)
	return c
}

// Registry exposes the codec registry for codec and type registration.
func (c *Client) Registry() *Registry { return c.registry }

// Do issues one request and returns the post-processed decoded value: raw
// bytes for endpoints without a declared response type, the decoded
// envelope otherwise. Rate-limit backoff is handled transparently; the
// caller observes only latency unless the delay cannot be determined.
func (c *Client) Do(ctx context.Context, cfg *Configuration, ep Endpoint, method string) (interface{}, error) {
	return c.executor.Execute(ctx, NewRequest(cfg, ep, method))
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, cfg *Configuration, ep Endpoint) (interface{}, error) {
	return c.Do(ctx, cfg, ep, http.MethodGet)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, cfg *Configuration, ep Endpoint) (interface{}, error) {
	return c.Do(ctx, cfg, ep, http.MethodPost)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, cfg *Configuration, ep Endpoint) (interface{}, error) {
	return c.Do(ctx, cfg, ep, http.MethodPut)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, cfg *Configuration, ep Endpoint) (interface{}, error) {
	return c.Do(ctx, cfg, ep, http.MethodPatch)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, cfg *Configuration, ep Endpoint) (interface{}, error) {
	return c.Do(ctx, cfg, ep, http.MethodDelete)
}

func (c *Client) trace(msg string, args ...interface{}) {
	c.logger.Debug(msg, args...)
}

// DoSingle issues a request against a single-result endpoint and wraps the
// decoded envelope into Single[T]. The endpoint's PostProcess hook may
// return a ready *Single[T] itself; otherwise the envelope's contents and
// metadata facets are resolved, failing with a ConfigurationError when the
// contents field is absent or ambiguous.
func DoSingle[T any](ctx context.Context, c *Client, cfg *Configuration, ep SingleEndpoint, method string) (*Single[T], error) {
	req := NewRequest(cfg, ep, method)
	value, err := c.executor.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if s, ok := value.(*Single[T]); ok {
		return s, nil
	}
	data, meta, err := extractSingle[T](value)
	if err != nil {
		return nil, err
	}
	return newSingle(req, data, meta), nil
}

// DoList is the sequence counterpart of DoSingle.
func DoList[T any](ctx context.Context, c *Client, cfg *Configuration, ep ListEndpoint, method string) (*List[T], error) {
	req := NewRequest(cfg, ep, method)
	value, err := c.executor.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if l, ok := value.(*List[T]); ok {
		return l, nil
	}
	items, meta, err := extractList[T](value)
	if err != nil {
		return nil, err
	}
	return newList(req, items, meta), nil
}

// Fetch GETs a single-result endpoint.
func Fetch[T any](ctx context.Context, c *Client, cfg *Configuration, ep SingleEndpoint) (*Single[T], error) {
	return DoSingle[T](ctx, c, cfg, ep, http.MethodGet)
}

// FetchList GETs a list-result endpoint.
func FetchList[T any](ctx context.Context, c *Client, cfg *Configuration, ep ListEndpoint) (*List[T], error) {
	return DoList[T](ctx, c, cfg, ep, http.MethodGet)
}

// NextPage fetches the page after l as a new List. Returns ErrNoNextPage
// when the endpoint does not page or l is the last page.
func NextPage[T any](ctx context.Context, c *Client, l *List[T]) (*List[T], error) {
	next, ok := l.NextPageEndpoint()
	if !ok {
		return nil, ErrNoNextPage
	}
	nextList, ok := next.(ListEndpoint)
	if !ok {
		return nil, configErrorf("pager on %T returned a non-list endpoint %T", l.Request.Endpoint, next)
	}
	return DoList[T](ctx, c, l.Request.Config, nextList, l.Request.Method)
}
