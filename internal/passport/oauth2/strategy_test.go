package oauth2

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"vismooc/internal/passport"
	"vismooc/internal/session"
	"vismooc/pkg/oauth2client"
)

type StrategySuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategySuite))
}

func acceptAll(_ *passport.Context, accessToken, refreshToken string, params map[string]any, profile any) (any, any, error) {
	return map[string]any{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"params":       params,
		"profile":      profile,
	}, nil, nil
}

func (s *StrategySuite) newStrategy(cfg Config, verify VerifyFunc) *Strategy {
	if cfg.AuthorizationURL == "" {
		cfg.AuthorizationURL = "https://provider.example/oauth/authorize"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://provider.example/oauth/token"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "dashboard"
	}
	if verify == nil {
		verify = acceptAll
	}
	strat, err := New(cfg, verify)
	s.Require().NoError(err)
	return strat
}

func (s *StrategySuite) request(target string, sess *session.Session) *passport.Context {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if sess != nil {
		r = r.WithContext(session.NewContext(r.Context(), sess))
	}
	return passport.NewContext(httptest.NewRecorder(), r)
}

func (s *StrategySuite) TestNewValidation() {
	valid := Config{
		ClientID:         "dashboard",
		AuthorizationURL: "https://provider.example/oauth/authorize",
		TokenURL:         "https://provider.example/oauth/token",
	}

	_, err := New(valid, nil)
	s.Require().EqualError(err, "OAuth2Strategy requires a verify callback")

	cfg := valid
	cfg.AuthorizationURL = ""
	_, err = New(cfg, acceptAll)
	s.Require().EqualError(err, "OAuth2Strategy requires a authorizationURL option")

	cfg = valid
	cfg.TokenURL = ""
	_, err = New(cfg, acceptAll)
	s.Require().EqualError(err, "OAuth2Strategy requires a tokenURL option")

	cfg = valid
	cfg.ClientID = ""
	_, err = New(cfg, acceptAll)
	s.Require().EqualError(err, "OAuth2Strategy requires a clientID option")

	strat, err := New(valid, acceptAll)
	s.Require().NoError(err)
	s.Equal("oauth2", strat.Name())

	cfg = valid
	cfg.Name = "mooc"
	strat, err = New(cfg, acceptAll)
	s.Require().NoError(err)
	s.Equal("mooc", strat.Name())
}

func (s *StrategySuite) TestDefaultSessionKey() {
	cfg := Config{AuthorizationURL: "https://provider.example/oauth/authorize"}
	s.Equal("oauth2:provider.example", cfg.DefaultSessionKey())

	cfg.SessionKey = "custom"
	s.Equal("custom", cfg.DefaultSessionKey())
}

func (s *StrategySuite) TestErrorReply() {
	strat := s.newStrategy(Config{}, nil)

	s.Run("access_denied fails with the description", func() {
		pc := s.request("/callback?error=access_denied&error_description=user+said+no", nil)
		res, err := strat.Authenticate(pc, nil)
		s.Require().NoError(err)
		s.Equal(passport.KindFail, res.Kind)
		s.Equal("user said no", res.Challenge)
		s.Equal(http.StatusUnauthorized, res.Status)
	})

	s.Run("access_denied without a description fails bare", func() {
		pc := s.request("/callback?error=access_denied", nil)
		res, err := strat.Authenticate(pc, nil)
		s.Require().NoError(err)
		s.Equal(passport.KindFail, res.Kind)
		s.Nil(res.Challenge)
	})

	s.Run("other error codes become authorization errors", func() {
		pc := s.request("/callback?error=temporarily_unavailable&error_description=maintenance&error_uri=https%3A%2F%2Fprovider.example%2Fstatus", nil)
		_, err := strat.Authenticate(pc, nil)

		var authErr *AuthorizationError
		s.Require().ErrorAs(err, &authErr)
		s.Equal("temporarily_unavailable", authErr.Code)
		s.Equal("maintenance", authErr.Message)
		s.Equal("https://provider.example/status", authErr.URI)
		s.Equal(http.StatusServiceUnavailable, authErr.HTTPStatus())
	})
}

func (s *StrategySuite) TestRedirectToProvider() {
	s.Run("builds the authorization URL", func() {
		strat := s.newStrategy(Config{
			CallbackURL: "https://app.example/auth/callback",
			Scope:       []string{"openid", "profile"},
		}, nil)

		res, err := strat.Authenticate(s.request("/oauth", nil), nil)
		s.Require().NoError(err)
		s.Equal(passport.KindRedirect, res.Kind)
		s.Equal(http.StatusFound, res.Status)

		u, parseErr := url.Parse(res.URL)
		s.Require().NoError(parseErr)
		s.Equal("provider.example", u.Host)
		s.Equal("/oauth/authorize", u.Path)
		q := u.Query()
		s.Equal("code", q.Get("response_type"))
		s.Equal("dashboard", q.Get("client_id"))
		s.Equal("https://app.example/auth/callback", q.Get("redirect_uri"))
		s.Equal("openid profile", q.Get("scope"))
		s.Empty(q.Get("state"))
	})

	s.Run("custom scope separator and per-dispatch scope", func() {
		strat := s.newStrategy(Config{ScopeSeparator: ","}, nil)
		res, err := strat.Authenticate(s.request("/oauth", nil), &passport.Options{Scope: []string{"a", "b", "c"}})
		s.Require().NoError(err)

		u, parseErr := url.Parse(res.URL)
		s.Require().NoError(parseErr)
		s.Equal("a,b,c", u.Query().Get("scope"))
	})

	s.Run("a session store mints and records the state parameter", func() {
		strat := s.newStrategy(Config{Store: NewSessionStore("oauth2:provider.example")}, nil)
		sess := session.Fake(nil)

		res, err := strat.Authenticate(s.request("/oauth", sess), nil)
		s.Require().NoError(err)

		u, parseErr := url.Parse(res.URL)
		s.Require().NoError(parseErr)
		state := u.Query().Get("state")
		s.Len(state, 32)
		s.Equal(state, sess.Map("oauth2:provider.example")["state"])
	})

	s.Run("a literal state option is used when the store mints nothing", func() {
		strat := s.newStrategy(Config{}, nil)
		res, err := strat.Authenticate(s.request("/oauth", nil), &passport.Options{State: "literal-state"})
		s.Require().NoError(err)

		u, parseErr := url.Parse(res.URL)
		s.Require().NoError(parseErr)
		s.Equal("literal-state", u.Query().Get("state"))
	})

	s.Run("a session store without a session surfaces the error", func() {
		strat := s.newStrategy(Config{Store: NewSessionStore("k")}, nil)
		_, err := strat.Authenticate(s.request("/oauth", nil), nil)
		s.Require().ErrorIs(err, ErrStateSessionRequired)
	})
}

func (s *StrategySuite) TestCallbackURLResolution() {
	redirectURI := func(pc *passport.Context) string {
		strat := s.newStrategy(Config{CallbackURL: "/auth/callback"}, nil)
		res, err := strat.Authenticate(pc, nil)
		s.Require().NoError(err)
		u, parseErr := url.Parse(res.URL)
		s.Require().NoError(parseErr)
		return u.Query().Get("redirect_uri")
	}

	s.Run("plain http request", func() {
		pc := s.request("http://app.example/oauth", nil)
		s.Equal("http://app.example/auth/callback", redirectURI(pc))
	})

	s.Run("TLS request", func() {
		pc := s.request("http://app.example/oauth", nil)
		pc.Request.TLS = &tls.ConnectionState{}
		s.Equal("https://app.example/auth/callback", redirectURI(pc))
	})

	s.Run("forwarded headers are ignored by default", func() {
		pc := s.request("http://app.example/oauth", nil)
		pc.Request.Header.Set("X-Forwarded-Proto", "https")
		pc.Request.Header.Set("X-Forwarded-Host", "public.example")
		s.Equal("http://app.example/auth/callback", redirectURI(pc))
	})

	s.Run("forwarded headers win behind a trusted proxy", func() {
		pc := s.request("http://app.example/oauth", nil)
		pc.TrustProxy = true
		pc.Request.Header.Set("X-Forwarded-Proto", "https")
		pc.Request.Header.Set("X-Forwarded-Host", "public.example")
		s.Equal("https://public.example/auth/callback", redirectURI(pc))
	})
}

// tokenServer fakes the provider's token and userinfo endpoints.
func (s *StrategySuite) tokenServer(tokenHandler http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", tokenHandler)
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"username": "alice"})
	})
	return httptest.NewServer(mux)
}

func issueToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  "at-123",
		"refresh_token": "rt-456",
		"token_type":    "bearer",
	})
}

func (s *StrategySuite) TestExchange() {
	s.Run("exchanges the code and verifies the user", func() {
		var gotGrant, gotCode, gotRedirect string
		srv := s.tokenServer(func(w http.ResponseWriter, r *http.Request) {
			s.Require().NoError(r.ParseForm())
			gotGrant = r.PostForm.Get("grant_type")
			gotCode = r.PostForm.Get("code")
			gotRedirect = r.PostForm.Get("redirect_uri")
			issueToken(w, r)
		})
		defer srv.Close()

		strat := s.newStrategy(Config{
			TokenURL:    srv.URL + "/oauth/token",
			CallbackURL: "https://app.example/auth/callback",
			Profile: func(ctx context.Context, client *oauth2client.Client, accessToken string) (any, error) {
				var profile map[string]any
				body, err := client.Get(ctx, srv.URL+"/userinfo", accessToken)
				if err != nil {
					return nil, err
				}
				return profile, json.Unmarshal(body, &profile)
			},
		}, nil)

		res, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)
		s.Require().NoError(err)
		s.Equal(passport.KindSuccess, res.Kind)
		s.Equal("authorization_code", gotGrant)
		s.Equal("abc", gotCode)
		s.Equal("https://app.example/auth/callback", gotRedirect)

		user := res.User.(map[string]any)
		s.Equal("at-123", user["accessToken"])
		s.Equal("rt-456", user["refreshToken"])
		s.Equal(map[string]any{"username": "alice"}, user["profile"])
		s.Equal("bearer", user["params"].(map[string]any)["token_type"])
	})

	s.Run("skips the profile fetch when configured", func() {
		srv := s.tokenServer(issueToken)
		defer srv.Close()

		strat := s.newStrategy(Config{
			TokenURL:        srv.URL + "/oauth/token",
			SkipUserProfile: true,
			Profile: func(context.Context, *oauth2client.Client, string) (any, error) {
				s.Fail("profile fetch must be skipped")
				return nil, nil
			},
		}, nil)

		res, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)
		s.Require().NoError(err)
		s.Equal(passport.KindSuccess, res.Kind)
	})

	s.Run("a nil user from verify fails the login with the info", func() {
		srv := s.tokenServer(issueToken)
		defer srv.Close()

		verify := func(*passport.Context, string, string, map[string]any, any) (any, any, error) {
			return nil, "Account suspended.", nil
		}
		strat := s.newStrategy(Config{TokenURL: srv.URL + "/oauth/token", SkipUserProfile: true}, verify)

		res, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)
		s.Require().NoError(err)
		s.Equal(passport.KindFail, res.Kind)
		s.Equal("Account suspended.", res.Challenge)
		s.Equal(http.StatusUnauthorized, res.Status)
	})

	s.Run("verify errors propagate", func() {
		srv := s.tokenServer(issueToken)
		defer srv.Close()

		boom := errors.New("directory unavailable")
		verify := func(*passport.Context, string, string, map[string]any, any) (any, any, error) {
			return nil, nil, boom
		}
		strat := s.newStrategy(Config{TokenURL: srv.URL + "/oauth/token", SkipUserProfile: true}, verify)

		_, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)
		s.Require().ErrorIs(err, boom)
	})

	s.Run("a failed state check rejects with 403 before any exchange", func() {
		strat := s.newStrategy(Config{Store: NewSessionStore("k")}, nil)
		sess := session.Fake(map[string]any{"k": map[string]any{"state": "expected"}})

		res, err := strat.Authenticate(s.request("/callback?code=abc&state=forged", sess), nil)
		s.Require().NoError(err)
		s.Equal(passport.KindFail, res.Kind)
		s.Equal("Invalid authorization request state.", res.Challenge)
		s.Equal(http.StatusForbidden, res.Status)
	})

	s.Run("a matching state admits the exchange", func() {
		srv := s.tokenServer(issueToken)
		defer srv.Close()

		strat := s.newStrategy(Config{
			TokenURL:        srv.URL + "/oauth/token",
			SkipUserProfile: true,
			Store:           NewSessionStore("k"),
		}, nil)
		sess := session.Fake(map[string]any{"k": map[string]any{"state": "expected"}})

		res, err := strat.Authenticate(s.request("/callback?code=abc&state=expected", sess), nil)
		s.Require().NoError(err)
		s.Equal(passport.KindSuccess, res.Kind)
	})
}

func (s *StrategySuite) TestExchangeErrorClassification() {
	s.Run("structured token endpoint errors become TokenErrors", func() {
		srv := s.tokenServer(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"code expired","error_uri":"https://provider.example/docs"}`)
		})
		defer srv.Close()

		strat := s.newStrategy(Config{TokenURL: srv.URL + "/oauth/token", SkipUserProfile: true}, nil)
		_, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)

		var tokenErr *TokenError
		s.Require().ErrorAs(err, &tokenErr)
		s.Equal("invalid_grant", tokenErr.Code)
		s.Equal("Failed to obtain access token:code expired", tokenErr.Message)
		s.Equal("https://provider.example/docs", tokenErr.URI)
		s.Equal(http.StatusBadRequest, tokenErr.HTTPStatus())
	})

	s.Run("unstructured HTTP failures stay client errors with the prefix", func() {
		srv := s.tokenServer(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "upstream maintenance")
		})
		defer srv.Close()

		strat := s.newStrategy(Config{TokenURL: srv.URL + "/oauth/token", SkipUserProfile: true}, nil)
		_, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)

		var clientErr *oauth2client.Error
		s.Require().ErrorAs(err, &clientErr)
		s.Equal(http.StatusServiceUnavailable, clientErr.Status)
		s.Equal("Failed to obtain access token:upstream maintenance", clientErr.Message)
	})

	s.Run("transport errors are wrapped with the prefix", func() {
		strat := s.newStrategy(Config{TokenURL: "http://127.0.0.1:1/oauth/token", SkipUserProfile: true}, nil)
		_, err := strat.Authenticate(s.request("/callback?code=abc", nil), nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "Failed to obtain access token:")
	})
}
