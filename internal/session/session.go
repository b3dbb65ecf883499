// Package session provides cookie-backed server-side sessions. The session ID
// travels in a signed JWT cookie; session state lives in a Store (Redis in
// production, in-memory for tests and local development).
package session

import "context"

type contextKey struct{}

// Session is the per-request view of one session's state. It is not safe for
// concurrent use; a session belongs to exactly one in-flight request.
type Session struct {
	id        string
	values    map[string]any
	isNew     bool
	dirty     bool
	destroyed bool
}

func newSession(id string, values map[string]any, isNew bool) *Session {
	if values == nil {
		values = make(map[string]any)
	}
	return &Session{id: id, values: values, isNew: isNew}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether this session was created for the current request.
func (s *Session) IsNew() bool { return s.isNew }

// Get returns the value stored under key, or nil.
func (s *Session) Get(key string) any {
	return s.values[key]
}

// Map returns the nested object stored under key, or nil when the key is
// absent or holds a non-object value. Nested objects round-trip through JSON
// as map[string]any, so callers mutate the returned map directly.
func (s *Session) Map(key string) map[string]any {
	m, _ := s.values[key].(map[string]any)
	return m
}

// Set stores a value and marks the session dirty.
func (s *Session) Set(key string, value any) {
	s.values[key] = value
	s.dirty = true
}

// Delete removes a key and marks the session dirty.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Touch marks the session dirty without changing a value. Callers that mutate
// a nested map obtained from Map must call Touch so the change is persisted.
func (s *Session) Touch() { s.dirty = true }

// Destroy marks the session for deletion. The middleware removes the stored
// state and expires the cookie when the response is written.
func (s *Session) Destroy() {
	s.values = make(map[string]any)
	s.destroyed = true
	s.dirty = true
}

// Destroyed reports whether Destroy has been called.
func (s *Session) Destroyed() bool { return s.destroyed }

// Values exposes the raw session state for persistence.
func (s *Session) Values() map[string]any { return s.values }

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session carried by ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Fake builds a detached session seeded with values. Intended for tests and
// for callers that need session semantics outside the HTTP middleware.
func Fake(values map[string]any) *Session {
	return newSession("test-session", values, false)
}
