package restbridge

// Request pairs a Configuration with an Endpoint and an HTTP method. It is
// built once per call and never mutated; retries driven by the coordinator
// reuse the same Request value.
type Request struct {
	Config   *Configuration
	Endpoint Endpoint
	Method   string
}

// NewRequest builds a Request. The method is one of the http.Method*
// constants.
func NewRequest(cfg *Configuration, ep Endpoint, method string) *Request {
	return &Request{Config: cfg, Endpoint: ep, Method: method}
}
