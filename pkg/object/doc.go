// Package object implements the dynamic objects the PIX API is modeled with.
//
// A PIX server describes its entities as JSON payloads carrying a type
// discriminator. Rather than pinning those payloads to fixed structs, the
// client keeps every entity as an Object: an order-preserving field map
// stamped with the server's type name. Unknown fields are kept, missing
// fields are not an error until someone asks for them, and the server is
// free to evolve its schema without breaking older clients.
//
// Objects are not meant to be constructed directly; they come out of a
// factory build (pkg/factory). Each built object carries a revocable handle
// to its originating session and a back-reference to the builder, so typed
// extensions can fetch and objectify related data. Once the session closes,
// every remote call through the object fails with transport.ErrDetached.
//
// Typed behavior is layered on through the Extension interface. The registry
// (pkg/registry) maps server type names to extension constructors; the
// factory binds a fresh extension to each object it builds. Use As to get at
// the typed side:
//
//	if prj, ok := object.As[*models.Project](obj); ok {
//	    entries, err := prj.Inbox(ctx, 20)
//	    ...
//	}
//
// Objects are plain data and are not synchronized; share them across
// goroutines only if no goroutine mutates fields.
package object
