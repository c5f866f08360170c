// endpoint.go
// ------------
// The endpoint capability contract. An endpoint is a plain value describing
// one API operation. The only required capability is PageName; every other
// capability is an optional interface the runtime probes for and falls back
// to a default when absent. This keeps endpoint declarations as small as the
// operation itself: a struct with a PageName method is a complete GET
// endpoint returning raw bytes.
//
// The SingleEndpoint and ListEndpoint markers distinguish the two result
// shapes. The typed entry points (Fetch, FetchList) accept only the matching
// marker, so a Single or List wrapper can never be produced for an endpoint
// of the wrong category.
package restbridge

import "reflect"

// Header is one request header. Endpoint headers are collapsed to a single
// value per name before the request is sent; when a name repeats in the
// slice, the last entry wins and no repeated header reaches the wire.
type Header struct {
	Name  string
	Value string
}

// Param is one query-string parameter. Order is preserved into the query
// string exactly as returned; keys are never re-sorted or de-duplicated.
type Param struct {
	Key   string
	Value string
}

// Endpoint describes one API operation. PageName returns the path relative
// to the Configuration's base URL, with no leading slash and no query
// string.
type Endpoint interface {
	PageName(cfg *Configuration) (string, error)
}

// SingleEndpoint marks an endpoint whose response decodes to one value.
type SingleEndpoint interface {
	Endpoint
	SingleResult()
}

// ListEndpoint marks an endpoint whose response decodes to a sequence.
type ListEndpoint interface {
	Endpoint
	ListResult()
}

// SingleBase is embedded by single-result endpoint types.
type SingleBase struct{}

func (SingleBase) SingleResult() {}

// ListBase is embedded by list-result endpoint types.
type ListBase struct{}

func (ListBase) ListResult() {}

// HeaderProvider supplies request headers. Default: none.
type HeaderProvider interface {
	Headers(cfg *Configuration) []Header
}

// ParameterProvider supplies query parameters. Default: none.
type ParameterProvider interface {
	Parameters(cfg *Configuration) []Param
}

// PayloadProvider supplies a request body value for methods that carry one.
// A []byte payload is passed through to the wire unencoded; any other value
// is encoded through the codec registry for its declared format. Default:
// no body.
type PayloadProvider interface {
	Payload(cfg *Configuration) interface{}
}

// ResponseTyper declares the decode target as a prototype pointer, e.g.
// new(repoEnvelope). Default: nil, meaning the body is returned as raw
// bytes without decoding.
type ResponseTyper interface {
	ResponseType() interface{}
}

// FormatOverrider lets an endpoint pick the wire format for a type instead
// of the registry's global type-to-format table. Default: registry lookup.
type FormatOverrider interface {
	DataFormat(t reflect.Type) (Format, bool)
}

// Validator vets a request before any network activity. Returning false
// aborts with a ValidationError and the transport is never invoked.
// Validate must not mutate the endpoint or the Configuration.
type Validator interface {
	Validate(cfg *Configuration) bool
}

// PostProcessor transforms the decoded value before it is handed back to
// the caller. Default: identity. The built-in Single/List wrapping happens
// after this hook at the typed entry points.
type PostProcessor interface {
	PostProcess(req *Request, decoded interface{}) (interface{}, error)
}

// Pager is implemented by list endpoints that support pagination. An
// endpoint family that pages overrides all three consistently; without it
// every pagination query on a List answers "unknown".
type Pager interface {
	ListEndpoint

	// NextPageEndpoint derives the endpoint for the following page from
	// the current page's metadata. ok is false on the last page.
	NextPageEndpoint(meta map[string]interface{}) (Endpoint, bool)

	// PageNumber reports the current page position from metadata.
	PageNumber(meta map[string]interface{}) (int, bool)

	// RemainingPages reports how many pages follow the current one.
	RemainingPages(meta map[string]interface{}) (int, bool)
}

func endpointHeaders(cfg *Configuration, ep Endpoint) []Header {
	if hp, ok := ep.(HeaderProvider); ok {
		return hp.Headers(cfg)
	}
	return nil
}

func endpointParameters(cfg *Configuration, ep Endpoint) []Param {
	if pp, ok := ep.(ParameterProvider); ok {
		return pp.Parameters(cfg)
	}
	return nil
}

func endpointPayload(cfg *Configuration, ep Endpoint) interface{} {
	if pp, ok := ep.(PayloadProvider); ok {
		return pp.Payload(cfg)
	}
	return nil
}

func endpointResponseType(ep Endpoint) interface{} {
	if rt, ok := ep.(ResponseTyper); ok {
		return rt.ResponseType()
	}
	return nil
}

func endpointValidate(cfg *Configuration, ep Endpoint) bool {
	if v, ok := ep.(Validator); ok {
		return v.Validate(cfg)
	}
	return true
}

// endpointFormat resolves the wire format for t, preferring the endpoint's
// own override and falling back to the registry's type table.
func endpointFormat(reg *Registry, ep Endpoint, t reflect.Type) (Format, error) {
	if fo, ok := ep.(FormatOverrider); ok {
		if f, ok := fo.DataFormat(t); ok {
			return f, nil
		}
	}
	return reg.FormatFor(t)
}

// endpointName names an endpoint for diagnostics: its page name when it can
// be computed without error, its Go type otherwise.
func endpointName(cfg *Configuration, ep Endpoint) string {
	if name, err := ep.PageName(cfg); err == nil && name != "" {
		return name
	}
	return reflect.TypeOf(ep).String()
}
