package oauth2client

import "fmt"

// Error is returned for HTTP-level failures against the provider: non-2xx
// responses (Message carries the raw response body) and token responses that
// lack an access token. Transport failures are returned as wrapped plain
// errors instead.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth2 provider returned status %d: %s", e.Status, e.Message)
}

// HTTPStatus reports the response status this error maps to.
func (e *Error) HTTPStatus() int { return e.Status }
