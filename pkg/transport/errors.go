package transport

import (
	"errors"
	"fmt"
)

// Common transport errors.
var (
	// ErrDetached is returned when an object or project guard outlives its
	// session. Once a session is closed the handle never comes back.
	ErrDetached = errors.New("session closed")
)

// Error describes a request the server answered with a non-success status.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Reason     string
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("pix: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Reason)
}

// IsStatus reports whether err carries a transport Error with the given
// HTTP status code.
func IsStatus(err error, code int) bool {
	var te *Error
	return errors.As(err, &te) && te.StatusCode == code
}
