// format.go
// ----------
// The format codec registry. A Format tag is a closed enumeration value
// selecting which codec encodes or decodes a payload. The registry holds
// two tables: Format -> Codec, and reflect.Type -> Format. Both are
// populated explicitly at startup and queried by exact match; a missing
// entry is a ConfigurationError, never a silent fallthrough. One type maps
// to exactly one format; a conflicting re-registration is rejected.
package restbridge

import (
	"fmt"
	"io"
	"reflect"
	"sync"
)

// Format selects a codec.
type Format string

const (
	// FormatRaw passes bytes through without interpretation.
	FormatRaw Format = "raw"
	// FormatJSON is served by the codecs package's JSON codec.
	FormatJSON Format = "json"
	// FormatXML is served by the codecs package's XML codec.
	FormatXML Format = "xml"
)

// Codec encodes and decodes values for one wire format.
type Codec interface {
	// ContentType is the MIME type the executor advertises for encoded
	// request bodies when the endpoint sets no Content-Type of its own.
	ContentType() string
	Encode(w io.Writer, v interface{}) error
	Decode(data []byte, v interface{}) error
}

// Registry maps format tags to codecs and value types to format tags.
// Safe for concurrent use; registration normally happens once at startup.
type Registry struct {
	mu      sync.RWMutex
	codecs  map[Format]Codec
	formats map[reflect.Type]Format
}

// NewRegistry returns a registry preloaded with the Raw codec only.
// JSON and XML live in the codecs package and are registered by the
// caller (or by NewClient's default wiring).
func NewRegistry() *Registry {
	r := &Registry{
		codecs:  make(map[Format]Codec),
		formats: make(map[reflect.Type]Format),
	}
	r.codecs[FormatRaw] = rawCodec{}
	return r
}

// RegisterCodec binds a codec to a format tag, replacing any previous
// binding for the same tag.
func (r *Registry) RegisterCodec(f Format, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[f] = c
}

// RegisterType records that values of prototype's type travel in format f.
// Registering the same type twice with a different format is a
// ConfigurationError: one type maps to exactly one format.
func (r *Registry) RegisterType(prototype interface{}, f Format) error {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return configErrorf("cannot register a nil prototype")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.formats[t]; ok && prev != f {
		return configErrorf("type %s already registered with format %q", t, prev)
	}
	r.formats[t] = f
	return nil
}

// FormatFor resolves the format tag for a type by exact match.
func (r *Registry) FormatFor(t reflect.Type) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.formats[t]; ok {
		return f, nil
	}
	return "", configErrorf("no format registered for type %s", t)
}

func (r *Registry) codec(f Format) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.codecs[f]; ok {
		return c, nil
	}
	return nil, configErrorf("no codec registered for format %q", f)
}

// Decode dispatches data to the codec for f, filling v.
func (r *Registry) Decode(data []byte, f Format, v interface{}) error {
	c, err := r.codec(f)
	if err != nil {
		return err
	}
	return c.Decode(data, v)
}

// Encode dispatches v to the codec for f, writing the wire form to w.
func (r *Registry) Encode(w io.Writer, f Format, v interface{}) error {
	c, err := r.codec(f)
	if err != nil {
		return err
	}
	return c.Encode(w, v)
}

// rawCodec is the built-in Raw format: decode hands the bytes over
// unchanged, encode writes the value's string representation ([]byte and
// string verbatim, everything else through fmt).
type rawCodec struct{}

func (rawCodec) ContentType() string { return "application/octet-stream" }

func (rawCodec) Encode(w io.Writer, v interface{}) error {
	var err error
	switch val := v.(type) {
	case []byte:
		_, err = w.Write(val)
	case string:
		_, err = io.WriteString(w, val)
	default:
		_, err = fmt.Fprint(w, val)
	}
	return err
}

func (rawCodec) Decode(data []byte, v interface{}) error {
	out, ok := v.(*[]byte)
	if !ok {
		return configErrorf("raw decode target must be *[]byte, got %T", v)
	}
	*out = data
	return nil
}
