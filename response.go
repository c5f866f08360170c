// response.go
// ------------
// The generic response wrappers. Single and List pair a decoded value (or
// sequence) with the Request that produced it and any server metadata the
// envelope carried. Both are immutable once constructed; paging produces a
// new List rather than mutating one in place. Construction happens only in
// the typed post-process step (DoSingle/DoList), and the entry-point
// signatures require the matching endpoint marker, so a wrapper can never
// exist for an endpoint of the wrong category.
package restbridge

// Single wraps one decoded value plus provenance and metadata.
type Single[T any] struct {
	Request  *Request
	Data     T
	Metadata map[string]interface{}
}

// List wraps a decoded sequence plus provenance and metadata.
type List[T any] struct {
	Request  *Request
	Metadata map[string]interface{}

	items []T
}

func newSingle[T any](req *Request, data T, meta map[string]interface{}) *Single[T] {
	return &Single[T]{Request: req, Data: data, Metadata: meta}
}

func newList[T any](req *Request, items []T, meta map[string]interface{}) *List[T] {
	return &List[T]{Request: req, Metadata: meta, items: items}
}

// Len reports the number of items on this page.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List[T]) At(i int) T { return l.items[i] }

// Items returns a copy of the page's items, preserving order.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// ThisPageNumber reports the current page position. ok is false when the
// endpoint does not support pagination or the position is unknown.
func (l *List[T]) ThisPageNumber() (int, bool) {
	if p, ok := l.Request.Endpoint.(Pager); ok {
		return p.PageNumber(l.Metadata)
	}
	return 0, false
}

// RemainingPages reports how many pages follow this one. ok is false when
// the endpoint does not support pagination or the count is unknown.
func (l *List[T]) RemainingPages() (int, bool) {
	if p, ok := l.Request.Endpoint.(Pager); ok {
		return p.RemainingPages(l.Metadata)
	}
	return 0, false
}

// NextPageEndpoint returns the endpoint describing the following page.
// ok is false when the endpoint does not page or this is the last page.
func (l *List[T]) NextPageEndpoint() (Endpoint, bool) {
	p, ok := l.Request.Endpoint.(Pager)
	if !ok {
		return nil, false
	}
	return p.NextPageEndpoint(l.Metadata)
}
