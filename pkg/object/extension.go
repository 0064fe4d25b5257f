package object

import "github.com/fyrsmithlabs/gopix/pkg/transport"

// Extension adds typed behavior to an Object. The registry maps server type
// names to constructors; the factory calls the constructor for every object
// it builds of that type and binds the fresh instance once the object's
// fields are installed.
type Extension interface {
	// Bind hands the extension its object. Called exactly once per instance.
	Bind(o *Object)
}

// Constructor produces a fresh, unbound Extension.
type Constructor func() Extension

// Base is a ready-made Extension core for embedding. It remembers the bound
// object and exposes the accessors extension methods commonly need.
type Base struct {
	obj *Object
}

// Bind implements Extension.
func (b *Base) Bind(o *Object) { b.obj = o }

// Object returns the object this extension is bound to, or nil before Bind.
func (b *Base) Object() *Object { return b.obj }

// Transport returns the bound object's session transport.
func (b *Base) Transport() (transport.Transport, error) {
	if b.obj == nil {
		return nil, transport.ErrDetached
	}
	return b.obj.Transport()
}

// As returns o's extension as the concrete type T.
func As[T Extension](o *Object) (T, bool) {
	ext, ok := o.Extension().(T)
	return ext, ok
}
