// Package oauth2 implements the OAuth 2.0 authorization code grant as a
// passport strategy: it redirects unauthenticated users to the provider,
// then exchanges the returned code for tokens and resolves the user.
package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vismooc/internal/passport"
	"vismooc/pkg/oauth2client"
)

// VerifyFunc resolves the application user from the provider's tokens and
// profile. Returning a nil user (without an error) rejects the login; info
// then serves as the failure challenge.
type VerifyFunc func(ctx *passport.Context, accessToken, refreshToken string, params map[string]any, profile any) (user, info any, err error)

// ProfileFunc fetches the provider-specific user profile with the freshly
// issued access token.
type ProfileFunc func(ctx context.Context, client *oauth2client.Client, accessToken string) (any, error)

// Config assembles a Strategy. ClientID, AuthorizationURL, and TokenURL are
// required; everything else has workable defaults.
type Config struct {
	ClientID         string
	ClientSecret     string
	AuthorizationURL string
	TokenURL         string

	// CallbackURL is where the provider redirects after authorization. A
	// relative URL is resolved against the incoming request's origin.
	CallbackURL string

	// Scope is the default scope set, overridable per dispatch.
	Scope []string

	// ScopeSeparator joins multiple scopes; defaults to a space.
	ScopeSeparator string

	// SessionKey scopes session-backed state storage; defaults to
	// "oauth2:" plus the authorization endpoint's host.
	SessionKey string

	// SkipUserProfile disables the profile fetch after token exchange.
	SkipUserProfile bool

	// Profile fetches the user profile. Ignored with SkipUserProfile.
	Profile ProfileFunc

	// Store manages the CSRF state parameter. Nil disables state checking.
	Store StateStore

	// CustomHeaders are sent on every provider request.
	CustomHeaders http.Header

	// Name overrides the registration name; defaults to "oauth2".
	Name string
}

// Strategy drives the authorization code grant. Construct with New.
type Strategy struct {
	name            string
	client          *oauth2client.Client
	verify          VerifyFunc
	profile         ProfileFunc
	callbackURL     string
	scope           []string
	scopeSeparator  string
	skipUserProfile bool
	store           StateStore
}

// New validates cfg and builds a Strategy.
func New(cfg Config, verify VerifyFunc) (*Strategy, error) {
	if verify == nil {
		return nil, errors.New("OAuth2Strategy requires a verify callback")
	}
	if cfg.AuthorizationURL == "" {
		return nil, errors.New("OAuth2Strategy requires a authorizationURL option")
	}
	if cfg.TokenURL == "" {
		return nil, errors.New("OAuth2Strategy requires a tokenURL option")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("OAuth2Strategy requires a clientID option")
	}

	name := cfg.Name
	if name == "" {
		name = "oauth2"
	}
	separator := cfg.ScopeSeparator
	if separator == "" {
		separator = " "
	}
	store := cfg.Store
	if store == nil {
		store = NoneStore{}
	}

	return &Strategy{
		name:            name,
		client:          oauth2client.New(cfg.ClientID, cfg.ClientSecret, "", cfg.AuthorizationURL, cfg.TokenURL, cfg.CustomHeaders),
		verify:          verify,
		profile:         cfg.Profile,
		callbackURL:     cfg.CallbackURL,
		scope:           cfg.Scope,
		scopeSeparator:  separator,
		skipUserProfile: cfg.SkipUserProfile,
		store:           store,
	}, nil
}

// DefaultSessionKey derives the session key for cfg, for callers that build
// their own state store.
func (c Config) DefaultSessionKey() string {
	if c.SessionKey != "" {
		return c.SessionKey
	}
	host := ""
	if u, err := url.Parse(c.AuthorizationURL); err == nil {
		host = u.Host
	}
	return "oauth2:" + host
}

func (s *Strategy) Name() string { return s.name }

// Client exposes the underlying OAuth2 client so provider quirks
// (authorization header GETs, token field names) can be tuned.
func (s *Strategy) Client() *oauth2client.Client { return s.client }

// Authenticate inspects the request's query to decide which leg of the grant
// it is on: an error reply, a callback carrying a code, or the initial
// request that triggers the authorization redirect.
func (s *Strategy) Authenticate(pc *passport.Context, opts *passport.Options) (passport.Result, error) {
	query := pc.Request.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		description := query.Get("error_description")
		if errCode == "access_denied" {
			var challenge any
			if description != "" {
				challenge = description
			}
			return passport.Fail(challenge, 0), nil
		}
		return passport.Result{}, NewAuthorizationError(description, errCode, query.Get("error_uri"), 0)
	}

	callbackURL := s.callbackURL
	if opts != nil && opts.CallbackURL != "" {
		callbackURL = opts.CallbackURL
	}
	if callbackURL != "" {
		callbackURL = resolveAgainstOrigin(pc, callbackURL)
	}

	if code := query.Get("code"); code != "" {
		return s.exchange(pc, code, query.Get("state"), callbackURL)
	}
	return s.redirectToProvider(pc, opts, callbackURL)
}

func (s *Strategy) exchange(pc *passport.Context, code, state, callbackURL string) (passport.Result, error) {
	ok, message, err := s.store.Verify(pc, state)
	if err != nil {
		return passport.Result{}, err
	}
	if !ok {
		var challenge any
		if message != "" {
			challenge = message
		}
		return passport.Fail(challenge, http.StatusForbidden), nil
	}

	params := url.Values{}
	params.Set("grant_type", "authorization_code")
	if callbackURL != "" {
		params.Set("redirect_uri", callbackURL)
	}

	token, err := s.client.AccessToken(pc.Request.Context(), code, params)
	if err != nil {
		return passport.Result{}, classifyExchangeError(err)
	}

	var profile any = map[string]any{}
	if !s.skipUserProfile && s.profile != nil {
		profile, err = s.profile(pc.Request.Context(), s.client, token.AccessToken)
		if err != nil {
			return passport.Result{}, err
		}
	}

	user, info, err := s.verify(pc, token.AccessToken, token.RefreshToken, token.Params, profile)
	if err != nil {
		return passport.Result{}, err
	}
	if user == nil {
		return passport.Fail(info, 0), nil
	}
	return passport.Success(user, info), nil
}

func (s *Strategy) redirectToProvider(pc *passport.Context, opts *passport.Options, callbackURL string) (passport.Result, error) {
	params := url.Values{}
	params.Set("response_type", "code")
	if callbackURL != "" {
		params.Set("redirect_uri", callbackURL)
	}

	scope := s.scope
	if opts != nil && len(opts.Scope) > 0 {
		scope = opts.Scope
	}
	if len(scope) > 0 {
		params.Set("scope", strings.Join(scope, s.scopeSeparator))
	}

	state, err := s.store.Store(pc, &StateMeta{
		AuthorizationURL: s.client.AuthorizeURL(nil),
		ClientID:         s.client.ClientID(),
	})
	if err != nil {
		return passport.Result{}, err
	}
	if state != "" {
		params.Set("state", state)
	} else if opts != nil && opts.State != "" {
		params.Set("state", opts.State)
	}

	return passport.Redirect(s.client.AuthorizeURL(params), 0), nil
}

// classifyExchangeError maps token endpoint failures onto the protocol error
// taxonomy. A response body carrying a structured OAuth error becomes a
// TokenError; other HTTP failures stay *oauth2client.Error; transport errors
// are wrapped plain. Every variant keeps the common message prefix.
func classifyExchangeError(err error) error {
	var clientErr *oauth2client.Error
	if !errors.As(err, &clientErr) {
		return fmt.Errorf("Failed to obtain access token:%w", err)
	}

	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorURI         string `json:"error_uri"`
	}
	if jsonErr := json.Unmarshal([]byte(clientErr.Message), &body); jsonErr == nil && body.Error != "" {
		return NewTokenError("Failed to obtain access token:"+body.ErrorDescription, body.Error, body.ErrorURI, clientErr.Status)
	}
	return &oauth2client.Error{
		Status:  clientErr.Status,
		Message: "Failed to obtain access token:" + clientErr.Message,
	}
}

// resolveAgainstOrigin makes a relative callback URL absolute using the
// incoming request's effective origin. Forwarded headers participate only
// when the proxy is trusted.
func resolveAgainstOrigin(pc *passport.Context, callbackURL string) string {
	parsed, err := url.Parse(callbackURL)
	if err != nil || parsed.IsAbs() {
		return callbackURL
	}

	r := pc.Request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if pc.TrustProxy {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		if fwdHost := r.Header.Get("X-Forwarded-Host"); fwdHost != "" {
			host = fwdHost
		}
	}

	base := &url.URL{Scheme: scheme, Host: host}
	return base.ResolveReference(parsed).String()
}
