// Package registry maps server-declared type names to extension constructors.
//
// The registry is how typed behavior reaches the object model: the server
// names a type in each payload's discriminator, and the factory asks the
// registry for the matching constructor. Types the registry has never heard
// of are not an error; their objects simply build without an extension.
//
// The intended lifecycle is registration first, builds after. Registration
// is explicit (no ambient global registry, no import-time magic):
//
//	reg := registry.New()
//	models.RegisterBuiltins(reg)
//	reg.Register("PIXNote", func() object.Extension { return &studioNote{} })
package registry

import (
	"sort"
	"sync"

	"github.com/fyrsmithlabs/gopix/pkg/object"
)

// Registry maps type names to extension constructors.
//
// Lookups are exact and case sensitive: the server's spelling is the key.
// Registration is last-wins: a later Register for the same name replaces the
// earlier binding, silently. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]object.Constructor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]object.Constructor)}
}

// Register binds a type name to a constructor. Re-registering a name
// replaces the previous binding; a nil constructor removes the binding.
func (r *Registry) Register(name string, c object.Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c == nil {
		delete(r.types, name)
		return
	}
	r.types[name] = c
}

// Resolve returns the constructor bound to name. ok is false for names that
// were never registered; such types build as plain objects.
func (r *Registry) Resolve(name string) (object.Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.types[name]
	return c, ok
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}
