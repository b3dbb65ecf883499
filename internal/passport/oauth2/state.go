package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"vismooc/internal/passport"
)

// ErrStateSessionRequired is returned when a session-backed state store runs
// on a request without session middleware.
var ErrStateSessionRequired = errors.New("OAuth 2.0 authentication requires session support when using state. Did you forget to use session middleware?")

// Verify failure messages surfaced as authentication challenges.
const (
	msgStateMissing = "Unable to verify authorization request state."
	msgStateInvalid = "Invalid authorization request state."
)

// StateMeta describes the authorization request a state token belongs to.
// Stores may persist it alongside the token to bind the token to one flow.
type StateMeta struct {
	AuthorizationURL string
	TokenURL         string
	ClientID         string
}

// StateStore manages the CSRF state parameter of the authorization code flow.
// Store mints the value sent on the authorization redirect; Verify checks the
// value echoed back on the callback. A failed verification returns ok=false
// with a human-readable message; err is reserved for infrastructure problems.
type StateStore interface {
	Store(ctx *passport.Context, meta *StateMeta) (state string, err error)
	Verify(ctx *passport.Context, state string) (ok bool, message string, err error)
}

// NoneStore disables state checking. Store mints nothing and Verify accepts
// everything; use only when the provider enforces CSRF protection elsewhere.
type NoneStore struct{}

func (NoneStore) Store(*passport.Context, *StateMeta) (string, error) {
	return "", nil
}

func (NoneStore) Verify(*passport.Context, string) (bool, string, error) {
	return true, "", nil
}

// SessionStore keeps the state token in the session under a strategy-scoped
// key. Tokens are single-use: verification consumes the stored entry whether
// or not it matched.
type SessionStore struct {
	key string
}

// NewSessionStore builds a SessionStore writing under key.
func NewSessionStore(key string) *SessionStore {
	return &SessionStore{key: key}
}

func (s *SessionStore) Store(ctx *passport.Context, _ *StateMeta) (string, error) {
	if ctx.Session == nil {
		return "", ErrStateSessionRequired
	}
	token, err := newStateToken()
	if err != nil {
		return "", err
	}
	ctx.Session.Set(s.key, map[string]any{"state": token})
	return token, nil
}

func (s *SessionStore) Verify(ctx *passport.Context, state string) (bool, string, error) {
	if ctx.Session == nil {
		return false, "", ErrStateSessionRequired
	}
	entry := ctx.Session.Map(s.key)
	if entry == nil {
		return false, msgStateMissing, nil
	}
	stored, ok := entry["state"].(string)
	if !ok || stored == "" {
		return false, msgStateMissing, nil
	}

	s.consume(ctx, entry)

	if stored != state {
		return false, msgStateInvalid, nil
	}
	return true, "", nil
}

// consume removes the state field, dropping the whole entry once no sibling
// keys remain.
func (s *SessionStore) consume(ctx *passport.Context, entry map[string]any) {
	delete(entry, "state")
	if len(entry) == 0 {
		ctx.Session.Delete(s.key)
	} else {
		ctx.Session.Touch()
	}
}

// newStateToken returns a 32-character URL-safe random token.
func newStateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
