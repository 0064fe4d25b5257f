package session

import "errors"

var (
	// ErrMissingCredentials indicates the configuration lacks one or more of
	// api_url, app_key, username, password. The wrapped message names the
	// missing keys.
	ErrMissingCredentials = errors.New("missing login credentials")

	// ErrLogin indicates the server rejected the login request.
	ErrLogin = errors.New("login failed")

	// ErrBadRequest indicates the server answered with a bad_request payload.
	// The wrapped message carries the server's user_message.
	ErrBadRequest = errors.New("bad request")

	// ErrProjectNotFound indicates no accessible project matched the
	// requested label or id.
	ErrProjectNotFound = errors.New("project not found")
)
