// Package factory converts raw PIX payloads into object graphs.
//
// The server names the concrete type of every entity payload in a
// discriminator field (by default "class"). The factory walks a decoded
// response recursively: mappings become object.Objects stamped with the
// declared type and bound to any registered extension, sequences are rebuilt
// element by element in order, and scalars pass through untouched.
//
// Builds never fail on payload content. Unknown type names build as plain
// objects, unknown fields are kept, and a malformed discriminator (present
// but not a non-empty string) is tolerated: the factory logs one warning and
// falls back to the type name supplied by the caller, or to the generic
// object for nested mappings. Only syntactically invalid JSON is an error,
// and only from BuildJSON.
//
// The discriminator stays in the built object's fields like any other key:
// an object's keys are exactly the keys the server sent. The resolved type
// name is recorded separately as the object's TypeName.
//
// A factory is stateless apart from registry reads and is safe for
// concurrent builds.
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/gopix/internal/logging"
	"github.com/fyrsmithlabs/gopix/internal/metrics"
	"github.com/fyrsmithlabs/gopix/pkg/object"
	"github.com/fyrsmithlabs/gopix/pkg/registry"
	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// DefaultTypeKey is the discriminator field PIX servers embed in payloads.
const DefaultTypeKey = "class"

// Factory builds objects from server payloads.
type Factory struct {
	reg     *registry.Registry
	ref     *transport.Ref
	log     *logging.Logger
	metrics *metrics.Metrics
	typeKey string
}

var _ object.Builder = (*Factory)(nil)

// Option customizes a Factory.
type Option func(*Factory)

// WithTypeKey overrides the discriminator key looked for in payloads.
func WithTypeKey(key string) Option {
	return func(f *Factory) {
		if key != "" {
			f.typeKey = key
		}
	}
}

// New creates a factory. Objects it builds are stamped with ref, so they can
// reach their session until that handle is revoked. reg may be nil when no
// typed extensions are wanted; log may be nil to disable logging.
func New(reg *registry.Registry, ref *transport.Ref, log *logging.Logger, opts ...Option) *Factory {
	if log == nil {
		log = logging.Nop()
	}
	f := &Factory{
		reg:     reg,
		ref:     ref,
		log:     log.Named("factory"),
		metrics: metrics.New(),
		typeKey: DefaultTypeKey,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TypeKey returns the discriminator key in effect.
func (f *Factory) TypeKey() string { return f.typeKey }

// BuildJSON decodes data and converts it with Build semantics, preserving
// the wire order of mapping keys. The supplied typeName applies to a
// top-level mapping without its own discriminator. Fails only on invalid
// JSON.
func (f *Factory) BuildJSON(typeName string, data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode payload: trailing data after JSON value")
	}
	return f.Build(typeName, v), nil
}

// Build converts an already-decoded JSON value into the object graph.
//
//   - mappings become *object.Object (typed by their discriminator, else by
//     typeName at the top level, else generic)
//   - sequences are rebuilt in order, elements converted with the same
//     typeName
//   - raw bytes (json.RawMessage, []byte) are decoded via BuildJSON first
//   - already-built objects and everything else pass through unchanged
//
// A valid embedded discriminator always wins over typeName. When the
// discriminator is present but malformed, typeName still applies, so
// Build("PIXNote", v) types a mapping whose discriminator was rejected.
//
// Values decoded by encoding/json lose the wire order of mapping keys, so
// objects built from map[string]any get their fields in sorted key order.
// Use BuildJSON when the server order matters.
func (f *Factory) Build(typeName string, v any) any {
	switch t := v.(type) {
	case *orderedMap:
		return f.buildObject(typeName, t)
	case map[string]any:
		return f.buildObject(typeName, sortedPairs(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = f.Build(typeName, e)
		}
		return out
	case *object.Object:
		return t
	case json.RawMessage:
		return f.buildRaw(typeName, t)
	case []byte:
		return f.buildRaw(typeName, t)
	default:
		return v
	}
}

// buildRaw delegates undecoded bytes to BuildJSON. Build cannot fail, so
// bytes that are not valid JSON pass through unchanged after a warning.
func (f *Factory) buildRaw(typeName string, data []byte) any {
	v, err := f.BuildJSON(typeName, data)
	if err != nil {
		f.log.Warn(context.Background(), "raw payload is not JSON, passing through",
			zap.Error(err),
		)
		return data
	}
	return v
}

// buildObject assembles one object from decoded fields. Every key lands in
// the object, the discriminator included.
func (f *Factory) buildObject(typeName string, om *orderedMap) *object.Object {
	name := f.effectiveType(typeName, om)

	obj := object.New(name, f.ref, f)
	for _, k := range om.keys {
		obj.Set(k, f.Build("", om.values[k]))
	}

	if f.reg != nil {
		if ctor, ok := f.reg.Resolve(name); ok {
			obj.BindExtension(ctor())
		}
	}

	f.metrics.RecordObjectBuilt()
	return obj
}

// effectiveType picks the type name for a mapping. A valid embedded
// discriminator wins over the caller-supplied name; a malformed one is
// logged and the caller's name used instead.
func (f *Factory) effectiveType(typeName string, om *orderedMap) string {
	raw, ok := om.values[f.typeKey]
	if !ok {
		return typeName
	}
	if s, isString := raw.(string); isString && s != "" {
		return s
	}

	f.metrics.RecordBuildWarning()
	f.log.Warn(context.Background(), "malformed type discriminator",
		zap.String("key", f.typeKey),
		zap.String("kind", fmt.Sprintf("%T", raw)),
	)
	return typeName
}

// Children returns the objects reachable from an already-built value: the
// value itself when it is an object, and object elements of a sequence.
// With recursive, nested objects are included depth-first.
func Children(v any, recursive bool) []*object.Object {
	var out []*object.Object
	switch t := v.(type) {
	case *object.Object:
		out = append(out, t)
		if recursive {
			out = append(out, t.Children(true)...)
		}
	case []any:
		for _, e := range t {
			out = append(out, Children(e, recursive)...)
		}
	}
	return out
}

// orderedMap holds decoded mapping fields in wire order, before they become
// an Object.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m *orderedMap) set(key string, v any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func sortedPairs(src map[string]any) *orderedMap {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	om := &orderedMap{}
	for _, k := range keys {
		om.set(k, src[k])
	}
	return om
}

// decodeValue reads one JSON value from dec, keeping mapping keys in wire
// order and numbers as json.Number.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool, or nil
		return tok, nil
	}

	switch delim {
	case '{':
		om := &orderedMap{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, want string", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			om.set(key, val)
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, err
		}
		return om, nil

	case '[':
		list := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if _, err := dec.Token(); err != nil { // closing bracket
			return nil, err
		}
		return list, nil

	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim.String())
	}
}
