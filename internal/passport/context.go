package passport

import (
	"context"
	"net/http"

	"vismooc/internal/session"
)

type requestContextKey struct{}

// Context carries the per-request authentication state shared between the
// passport middleware, strategies, and downstream handlers. One Context lives
// for the duration of a request; it is not safe for concurrent use.
type Context struct {
	Request *http.Request
	Writer  http.ResponseWriter

	// Session is the request's session, or nil when no session middleware
	// is installed.
	Session *session.Session

	// State holds request-scoped values: the authenticated user under the
	// authenticator's user property, plus anything strategies or handlers
	// attach.
	State map[string]any

	// TrustProxy permits X-Forwarded-Proto and X-Forwarded-Host to override
	// the request's own scheme and host when resolving relative URLs.
	TrustProxy bool

	auth *Authenticator
}

// NewContext builds a detached Context for direct strategy invocation in
// tests. The session is taken from the request's context when present.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Request: r,
		Writer:  w,
		Session: session.FromContext(r.Context()),
		State:   make(map[string]any),
	}
}

// FromRequest returns the Context installed by the passport middleware, or
// nil when none ran.
func FromRequest(r *http.Request) *Context {
	pc, _ := r.Context().Value(requestContextKey{}).(*Context)
	return pc
}

// Install returns a copy of r whose context carries c, making it visible to
// FromRequest. Used by the middleware and by tests that assemble requests
// directly.
func (c *Context) Install(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestContextKey{}, c))
}

// Authenticator returns the Authenticator bound by Initialize, or nil.
func (c *Context) Authenticator() *Authenticator { return c.auth }

// User returns the authenticated user, or nil.
func (c *Context) User() any {
	if c.auth != nil {
		return c.State[c.auth.userProperty]
	}
	return c.State[DefaultUserProperty]
}

// IsAuthenticated reports whether a user is established on this request.
func (c *Context) IsAuthenticated() bool {
	return c.User() != nil
}

// IsUnauthenticated is the complement of IsAuthenticated.
func (c *Context) IsUnauthenticated() bool {
	return !c.IsAuthenticated()
}

// Login establishes a session for user: the user lands on the request state
// immediately and its serialized form is written to the session so subsequent
// requests restore it. A serialization failure clears the request state again
// and is returned to the caller.
func (c *Context) Login(user any) error {
	if c.auth == nil {
		return ErrMissingInitialize
	}

	property := c.auth.userProperty
	c.State[property] = user

	serialized, err := c.auth.SerializeUser(c, user)
	if err != nil {
		c.State[property] = nil
		return err
	}

	if c.Session == nil {
		return ErrMissingSession
	}

	pp := c.Session.Map("passport")
	if pp == nil {
		pp = make(map[string]any)
	}
	pp["user"] = serialized
	c.Session.Set("passport", pp)
	return nil
}

// Logout removes the user from the request state and the session. Calling it
// on an unauthenticated or session-less request is a no-op.
func (c *Context) Logout() {
	if c.auth == nil {
		return
	}
	delete(c.State, c.auth.userProperty)

	if c.Session == nil {
		return
	}
	if pp := c.Session.Map("passport"); pp != nil {
		delete(pp, "user")
		if len(pp) == 0 {
			c.Session.Delete("passport")
		} else {
			c.Session.Touch()
		}
	}
}

// sessionUser returns the serialized user stored in the session, with a
// presence flag so falsy-but-present values (empty string, zero) still count.
func (c *Context) sessionUser() (any, bool) {
	if c.Session == nil {
		return nil, false
	}
	pp := c.Session.Map("passport")
	if pp == nil {
		return nil, false
	}
	su, ok := pp["user"]
	if !ok || su == nil {
		return nil, false
	}
	return su, true
}

func (c *Context) clearSessionUser() {
	if c.Session == nil {
		return
	}
	if pp := c.Session.Map("passport"); pp != nil {
		delete(pp, "user")
		c.Session.Touch()
	}
}
