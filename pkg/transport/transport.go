package transport

import (
	"context"
	"encoding/json"
	"net/url"
)

// Transport carries requests for the object model.
//
// Implementations own connection state and request policy: authentication,
// rate limiting, retries, backoff. The object model performs no retries of
// its own and never interprets failures beyond passing them up.
type Transport interface {
	// Request performs one exchange with the service and returns the raw
	// response body. A non-success answer from the server surfaces as *Error.
	Request(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error)

	// CurrentProject returns the id of the active project, or "" when none
	// is active.
	CurrentProject() string

	// ActivateProject makes the given project active for subsequent requests.
	ActivateProject(ctx context.Context, id string) error
}

// Writer is the optional interface for transports that send JSON request
// bodies. The core never needs it; model helpers upgrade to it with a type
// assertion when an operation writes state server-side.
type Writer interface {
	Put(ctx context.Context, path string, payload any) (json.RawMessage, error)
	Post(ctx context.Context, path string, payload any) (json.RawMessage, error)
	Delete(ctx context.Context, path string, payload any) (json.RawMessage, error)
}

// RawGetter is the optional interface for fetches that return non-JSON
// bodies, such as media downloads with an Accept override.
type RawGetter interface {
	GetRaw(ctx context.Context, path, accept string) ([]byte, error)
}
