// envelope.go
// ------------
// Content-facet discovery for wrapper construction. A decoded envelope
// feeds Single/List construction through two facets: "contents" (the one
// field holding the element or element sequence) and "metadata" (an
// optional map of server-supplied extras such as rate-limit counters or
// page cursors).
//
// Resolution must be unambiguous. An envelope either implements the
// explicit SingleContents/ListContents accessor, or it exposes exactly one
// exported field whose type matches the element exactly. Zero candidates
// or several is a ConfigurationError: the runtime never guesses which
// field the caller meant. This is a correctness rule, not an optimization.
package restbridge

import "reflect"

// SingleContents is the explicit contents accessor for single-value
// envelopes. Implementing it bypasses field discovery.
type SingleContents[T any] interface {
	Contents() T
}

// ListContents is the explicit contents accessor for sequence envelopes.
type ListContents[T any] interface {
	Contents() []T
}

// MetadataProvider is the explicit metadata accessor. Without it, a unique
// exported map[string]interface{} field serves as the metadata facet.
type MetadataProvider interface {
	Meta() map[string]interface{}
}

var metadataType = reflect.TypeOf(map[string]interface{}(nil))

func extractSingle[T any](v interface{}) (T, map[string]interface{}, error) {
	var zero T
	if sc, ok := v.(SingleContents[T]); ok {
		return sc.Contents(), extractMetadata(v), nil
	}
	want := reflect.TypeOf((*T)(nil)).Elem()
	fv, err := contentsField(v, want)
	if err != nil {
		return zero, nil, err
	}
	return fv.Interface().(T), extractMetadata(v), nil
}

func extractList[T any](v interface{}) ([]T, map[string]interface{}, error) {
	if lc, ok := v.(ListContents[T]); ok {
		return lc.Contents(), extractMetadata(v), nil
	}
	want := reflect.TypeOf((*[]T)(nil)).Elem()
	fv, err := contentsField(v, want)
	if err != nil {
		return nil, nil, err
	}
	return fv.Interface().([]T), extractMetadata(v), nil
}

// contentsField finds the single exported field of v's struct whose type
// is exactly want.
func contentsField(v interface{}, want reflect.Type) (reflect.Value, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return reflect.Value{}, configErrorf("envelope %T is not a struct and declares no contents accessor", v)
	}
	var found []reflect.Value
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if f.PkgPath != "" || f.Anonymous {
			continue
		}
		if f.Type == want {
			found = append(found, rv.FieldByIndex(f.Index))
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return reflect.Value{}, configErrorf("envelope %T has no field of type %s", v, want)
	default:
		return reflect.Value{}, configErrorf("envelope %T has %d fields of type %s, cannot choose contents", v, len(found), want)
	}
}

// extractMetadata returns the envelope's metadata facet, or nil when the
// envelope carries none. A unique exported map[string]interface{} field
// counts; with several such fields none is chosen.
func extractMetadata(v interface{}) map[string]interface{} {
	if mp, ok := v.(MetadataProvider); ok {
		return mp.Meta()
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil
	}
	var found reflect.Value
	count := 0
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if f.PkgPath != "" || f.Anonymous {
			continue
		}
		if f.Type == metadataType {
			found = rv.FieldByIndex(f.Index)
			count++
		}
	}
	if count != 1 || found.IsNil() {
		return nil
	}
	return found.Interface().(map[string]interface{})
}
