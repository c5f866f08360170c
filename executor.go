// executor.go
// ------------
// The request pipeline. Each request moves through a fixed sequence:
// validate, build URL, encode payload (body-carrying methods only), send
// through the rate-limit coordinator, decode per the endpoint's declared
// type and format, post-process. Validation failure short-circuits before
// any network activity. Retries are the coordinator's business; the
// executor prepares the wire request once and the same value is replayed
// on every attempt.
package restbridge

import (
	"bytes"
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// RequestExecutor orchestrates the pipeline for one Client.
type RequestExecutor struct {
	client *Client
}

func newRequestExecutor(c *Client) *RequestExecutor {
	return &RequestExecutor{client: c}
}

// Execute runs the full pipeline and returns the post-processed value: the
// decoded envelope for typed endpoints, the raw body bytes otherwise.
func (re *RequestExecutor) Execute(ctx context.Context, req *Request) (interface{}, error) {
	cfg, ep := req.Config, req.Endpoint
	if cfg == nil {
		return nil, configErrorf("request carries no configuration")
	}

	if !endpointValidate(cfg, ep) {
		return nil, &ValidationError{Endpoint: endpointName(cfg, ep)}
	}

	urlStr, err := BuildURL(cfg, ep)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for _, h := range endpointHeaders(cfg, ep) {
		headers[h.Name] = h.Value
	}

	body, err := re.encodePayload(cfg, ep, req.Method, headers)
	if err != nil {
		return nil, err
	}

	if err := re.authorize(ctx, cfg, headers); err != nil {
		return nil, err
	}

	treq := &TransportRequest{
		Method:  req.Method,
		URL:     urlStr,
		Headers: headers,
		Body:    body,
		Timeout: cfg.Timeout,
	}

	id := uuid.NewString()
	re.client.trace("request", "id", id, "method", treq.Method, "url", treq.URL,
		"headers", redactHeaders(headers), "body_bytes", len(body))

	resp, err := re.client.coord.execute(&cfg.gate, func() (*TransportResponse, error) {
		if cfg.Throttle != nil {
			if werr := cfg.Throttle.Wait(ctx); werr != nil {
				return nil, werr
			}
		}
		return re.client.transport.RoundTrip(ctx, treq)
	})
	if err != nil {
		re.client.trace("request failed", "id", id, "error", err)
		return nil, err
	}
	re.client.trace("response", "id", id, "status", resp.Status, "body_bytes", len(resp.Body))

	value, err := re.decode(ep, resp)
	if err != nil {
		return nil, err
	}

	if pp, ok := ep.(PostProcessor); ok {
		return pp.PostProcess(req, value)
	}
	return value, nil
}

func methodHasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// encodePayload turns the endpoint's payload into request body bytes. A
// []byte payload passes through unmodified; any other value is encoded by
// the codec for its declared format, which also supplies the Content-Type
// when the endpoint set none.
func (re *RequestExecutor) encodePayload(cfg *Configuration, ep Endpoint, method string, headers map[string]string) ([]byte, error) {
	if !methodHasBody(method) {
		return nil, nil
	}
	payload := endpointPayload(cfg, ep)
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.([]byte); ok {
		return raw, nil
	}

	format, err := endpointFormat(re.client.registry, ep, reflect.TypeOf(payload))
	if err != nil {
		return nil, err
	}
	codec, err := re.client.registry.codec(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, payload); err != nil {
		return nil, err
	}
	if !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = codec.ContentType()
	}
	return buf.Bytes(), nil
}

// authorize fills the Authorization header unless the endpoint already set
// one. Credentials win over the configuration's plain API key.
func (re *RequestExecutor) authorize(ctx context.Context, cfg *Configuration, headers map[string]string) error {
	if hasHeader(headers, "Authorization") {
		return nil
	}
	if cfg.Credentials != nil {
		value, err := cfg.Credentials.Authorization(ctx)
		if err != nil {
			return err
		}
		headers["Authorization"] = value
		return nil
	}
	if cfg.APIKey != nil {
		headers["Authorization"] = "Bearer " + *cfg.APIKey
	}
	return nil
}

// decode interprets the response body per the endpoint's declared response
// type. A nil declaration means raw bytes, handed over without touching
// the registry.
func (re *RequestExecutor) decode(ep Endpoint, resp *TransportResponse) (interface{}, error) {
	proto := endpointResponseType(ep)
	if proto == nil {
		return resp.Body, nil
	}
	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Ptr {
		return nil, configErrorf("response type prototype must be a pointer, got %s", t)
	}
	format, err := endpointFormat(re.client.registry, ep, t)
	if err != nil {
		return nil, err
	}
	target := reflect.New(t.Elem()).Interface()
	if err := re.client.registry.Decode(resp.Body, format, target); err != nil {
		return nil, err
	}
	return target, nil
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func redactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if strings.EqualFold(k, "Authorization") {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}
