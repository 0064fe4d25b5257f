// Package transport defines the narrow surface the PIX object model needs
// from a live server connection.
//
// The object model never talks HTTP itself. Everything it does remotely goes
// through the three-method Transport interface, so any carrier that can
// exchange JSON with a PIX server (the production session in pkg/session, a
// fake in tests) can host the model. Retry, backoff, and authentication are
// Transport policy; callers treat a returned *Error as the final word on a
// request.
//
// Ref is the handle objects keep to their originating session. It is
// revocable: closing the session invalidates the Ref, and every later remote
// call through objects built from that session fails with ErrDetached.
package transport
