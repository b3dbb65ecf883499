package passport

import (
	"errors"
	"net/http"
)

// Chain control and terminal errors.
var (
	// ErrSkip is returned by serializer, deserializer, and info transformer
	// functions to pass the value to the next function in the chain.
	ErrSkip = errors.New("skip to next chain function")

	// ErrNoSerializer is returned when every registered serializer skipped.
	ErrNoSerializer = errors.New("Failed to serialize user into session")

	// ErrNoDeserializer is returned when every registered deserializer skipped.
	ErrNoDeserializer = errors.New("Failed to deserialize user out of session")

	// ErrMissingInitialize is returned when login is attempted on a request
	// that did not pass through the Initialize middleware.
	ErrMissingInitialize = errors.New("passport.initialize() middleware not in use")

	// ErrMissingSession is returned when session-backed operations run on a
	// request with no session middleware installed.
	ErrMissingSession = errors.New("Should use session middleware before passport middleware")

	// ErrUnnamedStrategy is returned when registering a strategy whose name
	// is empty.
	ErrUnnamedStrategy = errors.New("Authentication strategies must have a name")

	// ErrSessionRequired is raised by Initialize when no session middleware
	// ran before it.
	ErrSessionRequired = errors.New("Session middleware is needed with passport middleware!")
)

// AuthenticationError is raised instead of writing a failure response when
// authentication is dispatched with FailWithError. The message mirrors the
// HTTP status text so generic error handlers produce the expected body.
type AuthenticationError struct {
	Status int
}

func (e *AuthenticationError) Error() string {
	return http.StatusText(e.Status)
}

// HTTPStatus reports the response status this error maps to.
func (e *AuthenticationError) HTTPStatus() int { return e.Status }

// UnknownStrategyError is raised when a dispatch names a strategy that was
// never registered. Resolution is deliberately lazy: registration order and
// middleware construction order are independent, so the name is only checked
// when a request actually arrives.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return `Unknown authentication strategy "` + e.Name + `"`
}
