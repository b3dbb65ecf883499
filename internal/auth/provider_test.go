package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"vismooc/internal/mooc/models"
	"vismooc/internal/passport"
	"vismooc/internal/platform/config"
	"vismooc/pkg/oauth2client"
	"vismooc/pkg/platform/audit"
	"vismooc/pkg/platform/sentinel"
)

// fakeUsers is an in-memory UserService recording upserts.
type fakeUsers struct {
	byUsername map[string]*models.User
	upserted   []*models.User
	err        error
}

func (f *fakeUsers) UserByUsername(_ context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if user, ok := f.byUsername[username]; ok {
		return user, nil
	}
	return nil, sentinel.ErrNotFound
}

func (f *fakeUsers) UpsertUser(_ context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, user)
	return nil
}

type ProviderSuite struct {
	suite.Suite

	users  *fakeUsers
	events chan audit.Event
	p      *Provider
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.users = &fakeUsers{byUsername: make(map[string]*models.User)}
	s.events = make(chan audit.Event, 8)
	s.p = NewProvider(s.users, s.events, nil)
}

func (s *ProviderSuite) context() *passport.Context {
	r := httptest.NewRequest(http.MethodGet, "/oauth", nil)
	return passport.NewContext(httptest.NewRecorder(), r)
}

func (s *ProviderSuite) TestStrategy() {
	strat, err := s.p.Strategy(config.OAuth{
		ClientID:         "dashboard",
		ClientSecret:     "secret",
		AuthorizationURL: "https://mooc.example/oauth/authorize",
		TokenURL:         "https://mooc.example/oauth/token",
		CallbackURL:      "/auth/callback",
	})
	s.Require().NoError(err)
	s.Equal(StrategyName, strat.Name())
	s.True(strat.Client().UseAuthorizationHeaderForGET,
		"the provider rejects access tokens in the query string")
}

func (s *ProviderSuite) TestSerializationChain() {
	a := passport.New()
	strat, err := s.p.Strategy(config.OAuth{
		ClientID:         "dashboard",
		AuthorizationURL: "https://mooc.example/oauth/authorize",
		TokenURL:         "https://mooc.example/oauth/token",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.p.Register(a, strat))

	s.Run("serializes users down to their username", func() {
		serialized, err := a.SerializeUser(s.context(), &models.User{Username: "alice"})
		s.Require().NoError(err)
		s.Equal("alice", serialized)
	})

	s.Run("unknown user types are skipped", func() {
		_, err := a.SerializeUser(s.context(), 42)
		s.Require().ErrorIs(err, passport.ErrNoSerializer)
	})

	s.Run("deserializes usernames through the user service", func() {
		s.users.byUsername["alice"] = &models.User{ID: "1", Username: "alice"}
		user, err := a.DeserializeUser(s.context(), "alice")
		s.Require().NoError(err)
		s.Equal("1", user.(*models.User).ID)
	})

	s.Run("a vanished account is a stale session, not an error", func() {
		user, err := a.DeserializeUser(s.context(), "ghost")
		s.Require().NoError(err)
		s.Nil(user)
	})

	s.Run("service failures propagate", func() {
		s.users.err = errors.New("db down")
		_, err := a.DeserializeUser(s.context(), "alice")
		s.Require().ErrorIs(err, s.users.err)
		s.users.err = nil
	})
}

func (s *ProviderSuite) TestVerify() {
	s.Run("upserts the profile and reports success", func() {
		profile := &models.User{ID: "1", Username: "alice"}
		user, info, err := s.p.verify(s.context(), "at", "", nil, profile)
		s.Require().NoError(err)
		s.Same(profile, user)
		s.Equal("success", info.(*passport.Info).Type)
		s.Require().Len(s.users.upserted, 1)

		event := <-s.events
		s.Equal(audit.ActionLoginSucceeded, event.Action)
		s.Equal("alice", event.Username)
	})

	s.Run("an incomplete profile rejects the login", func() {
		user, info, err := s.p.verify(s.context(), "at", "", nil, &models.User{})
		s.Require().NoError(err)
		s.Nil(user)
		s.Equal("Profile is incomplete.", info.(*passport.Info).Message)

		event := <-s.events
		s.Equal(audit.ActionLoginFailed, event.Action)
	})

	s.Run("upsert failures abort the login", func() {
		s.users.err = errors.New("db down")
		_, _, err := s.p.verify(s.context(), "at", "", nil, &models.User{Username: "alice"})
		s.Require().ErrorIs(err, s.users.err)
	})
}

func (s *ProviderSuite) TestProfileFetcher() {
	s.Run("maps the userinfo document", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("Bearer at-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"sub":                7,
				"preferred_username": "alice",
				"name":               "Alice Au",
				"email":              "alice@mooc.example",
				"locale":             "zh-CN",
				"administrator":      true,
				"courses":            []string{"HKUST+COMP102x"},
			})
		}))
		defer srv.Close()

		client := oauth2client.New("id", "secret", srv.URL, "", "", nil)
		client.UseAuthorizationHeaderForGET = true

		profile, err := profileFetcher(srv.URL)(context.Background(), client, "at-123")
		s.Require().NoError(err)

		user := profile.(*models.User)
		s.Equal("7", user.ID)
		s.Equal("alice", user.Username)
		s.Equal("Alice Au", user.Name)
		s.Equal("zh-CN", user.Language)
		s.True(user.Administrator)
		s.Equal([]string{"HKUST+COMP102x"}, user.CourseIDs)
	})

	s.Run("an empty userinfo URL yields an empty profile", func() {
		profile, err := profileFetcher("")(context.Background(), nil, "at")
		s.Require().NoError(err)
		s.Equal(&models.User{}, profile)
	})
}
