package oauth2

import "net/http"

// AuthorizationError represents an OAuth 2.0 error reply on the authorization
// leg, carried back from the provider in the redirect query. access_denied is
// not represented here: a user refusing consent is an authentication failure,
// not an error.
type AuthorizationError struct {
	Message string
	Code    string
	URI     string
	Status  int
}

// NewAuthorizationError fills conventional defaults: an empty code becomes
// server_error and an empty status is derived from the code. An explicit
// status always wins over the derivation.
func NewAuthorizationError(message, code, uri string, status int) *AuthorizationError {
	if code == "" {
		code = "server_error"
	}
	if status == 0 {
		switch code {
		case "access_denied":
			status = http.StatusForbidden
		case "server_error":
			status = http.StatusBadGateway
		case "temporarily_unavailable":
			status = http.StatusServiceUnavailable
		default:
			status = http.StatusInternalServerError
		}
	}
	return &AuthorizationError{Message: message, Code: code, URI: uri, Status: status}
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// HTTPStatus reports the response status this error maps to.
func (e *AuthorizationError) HTTPStatus() int { return e.Status }

// TokenError represents a structured OAuth 2.0 error reply from the token
// endpoint, per RFC 6749 section 5.2.
type TokenError struct {
	Message string
	Code    string
	URI     string
	Status  int
}

// NewTokenError fills conventional defaults for code (invalid_request) and
// status (500).
func NewTokenError(message, code, uri string, status int) *TokenError {
	if code == "" {
		code = "invalid_request"
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &TokenError{Message: message, Code: code, URI: uri, Status: status}
}

func (e *TokenError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// HTTPStatus reports the response status this error maps to.
func (e *TokenError) HTTPStatus() int { return e.Status }
