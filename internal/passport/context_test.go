package passport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"vismooc/internal/session"
)

type ContextSuite struct {
	suite.Suite
}

func TestContextSuite(t *testing.T) {
	suite.Run(t, new(ContextSuite))
}

func (s *ContextSuite) boundContext(a *Authenticator, sess *session.Session) *Context {
	return &Context{
		Session: sess,
		State:   make(map[string]any),
		auth:    a,
	}
}

func (s *ContextSuite) TestLogin() {
	s.Run("requires the initialize middleware", func() {
		pc := &Context{State: make(map[string]any)}
		s.Require().ErrorIs(pc.Login("alice"), ErrMissingInitialize)
	})

	s.Run("establishes the user and persists the serialized form", func() {
		a := New()
		a.RegisterSerializer(func(_ *Context, user any) (any, error) {
			return user.(string) + ":serialized", nil
		})
		sess := session.Fake(nil)
		pc := s.boundContext(a, sess)

		s.Require().NoError(pc.Login("alice"))
		s.Equal("alice", pc.User())
		s.True(pc.IsAuthenticated())
		s.Equal("alice:serialized", sess.Map("passport")["user"])
	})

	s.Run("a serialization failure clears the request state", func() {
		a := New()
		boom := errors.New("no serializer matched")
		a.RegisterSerializer(func(*Context, any) (any, error) { return nil, boom })
		pc := s.boundContext(a, session.Fake(nil))

		s.Require().ErrorIs(pc.Login("alice"), boom)
		s.Nil(pc.User())
	})

	s.Run("serialization runs before the session check", func() {
		a := New()
		serialized := false
		a.RegisterSerializer(func(_ *Context, user any) (any, error) {
			serialized = true
			return user, nil
		})
		pc := s.boundContext(a, nil)

		s.Require().ErrorIs(pc.Login("alice"), ErrMissingSession)
		s.True(serialized)
		s.Equal("alice", pc.User(), "a missing session leaves the request login intact")
	})

	s.Run("respects a custom user property", func() {
		a := New(WithUserProperty("account"))
		a.RegisterSerializer(func(_ *Context, user any) (any, error) { return user, nil })
		pc := s.boundContext(a, session.Fake(nil))

		s.Require().NoError(pc.Login("alice"))
		s.Equal("alice", pc.State["account"])
		s.Equal("alice", pc.User())
	})
}

func (s *ContextSuite) TestLogout() {
	a := New()
	a.RegisterSerializer(func(_ *Context, user any) (any, error) { return user, nil })

	s.Run("removes the user from state and session", func() {
		sess := session.Fake(nil)
		pc := s.boundContext(a, sess)
		s.Require().NoError(pc.Login("alice"))

		pc.Logout()
		s.Nil(pc.User())
		s.True(pc.IsUnauthenticated())
		s.Nil(sess.Map("passport"), "an empty passport entry is dropped entirely")
	})

	s.Run("keeps unrelated passport session data", func() {
		sess := session.Fake(map[string]any{
			"passport": map[string]any{"user": "alice", "impersonator": "admin"},
		})
		pc := s.boundContext(a, sess)

		pc.Logout()
		s.Equal(map[string]any{"impersonator": "admin"}, sess.Map("passport"))
	})

	s.Run("is a no-op without initialize or session", func() {
		pc := &Context{State: map[string]any{"user": "alice"}}
		pc.Logout()
		s.Equal("alice", pc.State["user"], "nothing to do without an authenticator")

		pc2 := s.boundContext(a, nil)
		pc2.State["user"] = "alice"
		pc2.Logout()
		s.Nil(pc2.User())
	})
}

func (s *ContextSuite) TestAuthenticationState() {
	s.Run("unauthenticated by default", func() {
		pc := s.boundContext(New(), session.Fake(nil))
		s.False(pc.IsAuthenticated())
		s.True(pc.IsUnauthenticated())
		s.Nil(pc.User())
	})

	s.Run("user lookup falls back to the default property without an authenticator", func() {
		pc := &Context{State: map[string]any{DefaultUserProperty: "alice"}}
		s.Equal("alice", pc.User())
	})
}
