package options

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/vango-dev/dnd/pkg/dom"
)

// MIMEJSON is the format used for values serialized into a transfer entry.
const MIMEJSON = "application/json"

// Entry is one (format, payload) pair written into a drag's data transfer.
type Entry struct {
	MimeType string `json:"mimeType" yaml:"mimeType"`
	Payload  string `json:"payload" yaml:"payload"`
}

// Provider computes drag data when a drag starts. Its result goes through
// NormalizeData; a provider that returns another provider yields nothing.
type Provider func(el dom.Element, ev dom.Event) any

// Kind tells how the drag data was derived.
type Kind uint8

const (
	KindAbsent     Kind = iota // nothing is written on dragstart
	KindSinglePair             // one (format, payload) pair
	KindPairList               // a non-empty list of pairs
	KindDeferred               // a Provider evaluated on dragstart
	KindSerialized             // a value encoded as application/json
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "Absent"
	case KindSinglePair:
		return "SinglePair"
	case KindPairList:
		return "PairList"
	case KindDeferred:
		return "Deferred"
	case KindSerialized:
		return "Serialized"
	default:
		return "Unknown"
	}
}

// Data is the canonical drag payload.
type Data struct {
	kind     Kind
	entries  []Entry
	provider Provider
}

// Kind returns how the data was derived.
func (d Data) Kind() Kind { return d.kind }

// Present reports whether the data is anything but absent.
func (d Data) Present() bool { return d.kind != KindAbsent }

// Entries returns a copy of the precomputed entries. Deferred and absent
// data have none.
func (d Data) Entries() []Entry {
	if len(d.entries) == 0 {
		return nil
	}
	return append([]Entry(nil), d.entries...)
}

// Provider returns the deferred provider, if any.
func (d Data) Provider() Provider { return d.provider }

// Resolve returns the entries to write for a drag starting on el.
func (d Data) Resolve(el dom.Element, ev dom.Event) []Entry {
	switch d.kind {
	case KindSinglePair, KindPairList, KindSerialized:
		return d.Entries()
	case KindDeferred:
		if d.provider == nil {
			return nil
		}
		resolved := NormalizeData(d.provider(el, ev))
		if resolved.kind == KindDeferred {
			return nil
		}
		return resolved.Entries()
	case KindAbsent:
		return nil
	}
	return nil
}

// NormalizeData derives canonical drag data from a raw value. Rules are
// tried in order:
//
//  1. a pair of strings (Entry, [2]string, or a two-element slice of
//     strings) becomes a single entry
//  2. a non-empty slice whose elements are all pairs is kept as a list
//  3. a Provider is kept and evaluated on dragstart
//  4. any other non-nil, non-slice value is JSON encoded under MIMEJSON
//
// Everything else, including malformed slices and values that cannot be
// encoded, is absent. NormalizeData never fails.
func NormalizeData(raw any) Data {
	if raw == nil {
		return Data{}
	}
	if e, ok := asPair(raw); ok {
		return Data{kind: KindSinglePair, entries: []Entry{e}}
	}

	switch v := raw.(type) {
	case Data:
		return v
	case Provider:
		if v == nil {
			return Data{}
		}
		return Data{kind: KindDeferred, provider: v}
	case func(dom.Element, dom.Event) any:
		if v == nil {
			return Data{}
		}
		return Data{kind: KindDeferred, provider: v}
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if entries, ok := asPairList(rv); ok {
			return Data{kind: KindPairList, entries: entries}
		}
		return Data{}
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return Data{}
	case reflect.Pointer, reflect.Interface, reflect.Map:
		if rv.IsNil() {
			return Data{}
		}
	}

	payload, err := marshalJSON(raw)
	if err != nil {
		return Data{}
	}
	return Data{kind: KindSerialized, entries: []Entry{{MimeType: MIMEJSON, Payload: payload}}}
}

// marshalJSON encodes v like JSON.stringify: HTML characters are kept as
// written.
func marshalJSON(v any) (string, error) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func asPair(raw any) (Entry, bool) {
	switch v := raw.(type) {
	case Entry:
		return v, true
	case *Entry:
		if v == nil {
			return Entry{}, false
		}
		return *v, true
	case [2]string:
		return Entry{MimeType: v[0], Payload: v[1]}, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return Entry{}, false
	}
	if rv.Len() != 2 {
		return Entry{}, false
	}
	mime, ok := stringAt(rv, 0)
	if !ok {
		return Entry{}, false
	}
	payload, ok := stringAt(rv, 1)
	if !ok {
		return Entry{}, false
	}
	return Entry{MimeType: mime, Payload: payload}, true
}

func asPairList(rv reflect.Value) ([]Entry, bool) {
	if rv.Len() == 0 {
		return nil, false
	}
	entries := make([]Entry, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		if item.Kind() == reflect.Interface && item.IsNil() {
			return nil, false
		}
		e, ok := asPair(item.Interface())
		if !ok {
			return nil, false
		}
		entries = append(entries, e)
	}
	return entries, true
}

func stringAt(rv reflect.Value, i int) (string, bool) {
	item := rv.Index(i)
	if item.Kind() == reflect.Interface {
		if item.IsNil() {
			return "", false
		}
		item = item.Elem()
	}
	if item.Kind() != reflect.String {
		return "", false
	}
	return item.String(), true
}
