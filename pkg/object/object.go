package object

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/gopix/pkg/transport"
)

// Field names with model-level meaning.
const (
	idField    = "id"
	labelField = "label"
)

// Builder turns raw server payloads into objects. It is implemented by
// factory.Factory and declared here so objects can hand their extensions a
// way to objectify follow-up fetches without an import cycle.
type Builder interface {
	// Build converts an already-decoded JSON value. See factory.Factory.Build.
	Build(typeName string, value any) any

	// BuildJSON decodes raw JSON and converts it, preserving field order.
	BuildJSON(typeName string, data []byte) (any, error)
}

// Object is one server entity: an ordered field map stamped with the
// server-declared type name.
//
// Field values are normalized by the factory to one of: nil, bool, string,
// json.Number, *Object, or []any of those.
type Object struct {
	typeName string
	order    []string
	fields   map[string]any

	ext     Extension
	ref     *transport.Ref
	builder Builder
}

// New returns an empty object of the given type. Intended for the factory;
// most callers obtain objects from builds.
func New(typeName string, ref *transport.Ref, b Builder) *Object {
	return &Object{
		typeName: typeName,
		fields:   make(map[string]any),
		ref:      ref,
		builder:  b,
	}
}

// TypeName returns the server-declared type name, or "" for a generic object.
func (o *Object) TypeName() string { return o.typeName }

// Get returns the field value, or an error wrapping ErrMissingField.
func (o *Object) Get(key string) (any, error) {
	v, ok := o.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, key)
	}
	return v, nil
}

// Lookup returns the field value and whether it is present.
func (o *Object) Lookup(key string) (any, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether the field is present.
func (o *Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// Set stores a field value locally. New keys append to the field order;
// existing keys keep their position. Local only: nothing is sent to the
// server.
func (o *Object) Set(key string, value any) {
	if _, ok := o.fields[key]; !ok {
		o.order = append(o.order, key)
	}
	o.fields[key] = value
}

// Delete removes a field locally.
func (o *Object) Delete(key string) {
	if _, ok := o.fields[key]; !ok {
		return
	}
	delete(o.fields, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in server order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.fields) }

// Fields calls fn for each field in server order until fn returns false.
func (o *Object) Fields(fn func(key string, value any) bool) {
	for _, k := range o.order {
		if !fn(k, o.fields[k]) {
			return
		}
	}
}

// Typed getters. All of them wrap ErrMissingField for absent keys and
// ErrFieldType for present keys of the wrong kind.

func (o *Object) GetString(key string) (string, error) {
	v, err := o.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q holds %T, want string", ErrFieldType, key, v)
	}
	return s, nil
}

func (o *Object) GetBool(key string) (bool, error) {
	v, err := o.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q holds %T, want bool", ErrFieldType, key, v)
	}
	return b, nil
}

func (o *Object) GetInt(key string) (int64, error) {
	v, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q holds non-integer number %s", ErrFieldType, key, n)
		}
		return i, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %q holds %T, want number", ErrFieldType, key, v)
	}
}

func (o *Object) GetFloat(key string) (float64, error) {
	v, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q holds malformed number %s", ErrFieldType, key, n)
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %q holds %T, want number", ErrFieldType, key, v)
	}
}

func (o *Object) GetObject(key string) (*Object, error) {
	v, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, want object", ErrFieldType, key, v)
	}
	return obj, nil
}

func (o *Object) GetList(key string) ([]any, error) {
	v, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %T, want list", ErrFieldType, key, v)
	}
	return list, nil
}

// FieldString returns a scalar field rendered as a string: strings as-is,
// numbers in their wire form, bools as "true"/"false". ok is false when the
// field is absent, nil, or not a scalar.
func (o *Object) FieldString(key string) (string, bool) {
	v, ok := o.fields[key]
	if !ok {
		return "", false
	}
	return scalarString(v)
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		if s {
			return "true", true
		}
		return "false", true
	case int:
		return fmt.Sprintf("%d", s), true
	case int64:
		return fmt.Sprintf("%d", s), true
	case float64:
		return fmt.Sprintf("%v", s), true
	default:
		return "", false
	}
}

// Identity is the comparable equality key of an object: the type name plus
// the server-assigned id. Usable as a map key for dedup and lookup tables.
type Identity struct {
	Type string
	ID   string
}

// Identity returns the object's equality key. ok is false when the payload
// carries no usable id; such objects compare equal only to themselves.
func (o *Object) Identity() (Identity, bool) {
	id, ok := o.FieldString(idField)
	if !ok || id == "" {
		return Identity{}, false
	}
	return Identity{Type: o.typeName, ID: id}, true
}

// ID returns the server-assigned id rendered as a string, or "".
func (o *Object) ID() string {
	id, _ := o.FieldString(idField)
	return id
}

// Equal reports whether both objects name the same server entity: same type
// name and same id. Field content beyond the id does not participate.
func (o *Object) Equal(other *Object) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}
	a, aok := o.Identity()
	b, bok := other.Identity()
	return aok && bok && a == b
}

// Identifier returns the display identifier: the label when the payload has
// one, else the id. Diagnostics only; equality goes through Identity.
func (o *Object) Identifier() string {
	if label, ok := o.FieldString(labelField); ok && label != "" {
		return label
	}
	return o.ID()
}

// String renders a short diagnostic form, e.g. <PIXNote('Take 3')>.
func (o *Object) String() string {
	name := o.typeName
	if name == "" {
		name = "Object"
	}
	return fmt.Sprintf("<%s('%s')>", name, o.Identifier())
}

// MarshalJSON renders the fields as a JSON mapping in server order, nested
// objects included. The fields carry the type discriminator the server sent,
// so a built object round-trips to its wire form.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(o.fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Children returns the objects nested in this one's fields, in field order
// (and element order inside lists). With recursive, the traversal is
// depth-first and includes grandchildren.
func (o *Object) Children(recursive bool) []*Object {
	var out []*Object
	for _, k := range o.order {
		collectChildren(o.fields[k], recursive, &out)
	}
	return out
}

func collectChildren(v any, recursive bool, out *[]*Object) {
	switch t := v.(type) {
	case *Object:
		*out = append(*out, t)
		if recursive {
			for _, k := range t.order {
				collectChildren(t.fields[k], true, out)
			}
		}
	case []any:
		for _, e := range t {
			collectChildren(e, recursive, out)
		}
	}
}

// Transport returns the session transport this object was built from, or
// transport.ErrDetached once that session is closed.
func (o *Object) Transport() (transport.Transport, error) {
	if o.ref == nil {
		return nil, transport.ErrDetached
	}
	return o.ref.Get()
}

// Ref returns the revocable session handle. Nil for detached objects.
func (o *Object) Ref() *transport.Ref { return o.ref }

// Builder returns the factory this object came from, for objectifying
// follow-up fetches. May be nil.
func (o *Object) Builder() Builder { return o.builder }

// Extension returns the bound extension, or nil.
func (o *Object) Extension() Extension { return o.ext }

// BindExtension attaches ext and hands it the object. Called by the factory
// once fields are installed; later calls replace the previous extension.
func (o *Object) BindExtension(ext Extension) {
	o.ext = ext
	if ext != nil {
		ext.Bind(o)
	}
}
