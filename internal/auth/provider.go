// Package auth wires the upstream MOOC identity provider into the passport
// layer: the OAuth2 strategy, the profile-to-user mapping, and the session
// serialization chain.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vismooc/internal/mooc/models"
	"vismooc/internal/passport"
	"vismooc/internal/passport/oauth2"
	"vismooc/internal/platform/config"
	"vismooc/internal/platform/metrics"
	"vismooc/pkg/oauth2client"
	"vismooc/pkg/platform/audit"
	"vismooc/pkg/platform/sentinel"
	"vismooc/pkg/requestcontext"
)

// StrategyName is the registration name of the provider strategy.
const StrategyName = "mooc"

// UserService is the slice of the course service the auth layer needs.
type UserService interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}

// Provider owns the login flow against the upstream identity provider.
type Provider struct {
	users   UserService
	events  chan<- audit.Event
	metrics *metrics.Metrics
}

func NewProvider(users UserService, events chan<- audit.Event, m *metrics.Metrics) *Provider {
	return &Provider{users: users, events: events, metrics: m}
}

// Strategy builds the OAuth2 strategy for cfg. The provider requires the
// access token in the Authorization header on profile requests.
func (p *Provider) Strategy(cfg config.OAuth) (*oauth2.Strategy, error) {
	strategyCfg := oauth2.Config{
		Name:             StrategyName,
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		AuthorizationURL: cfg.AuthorizationURL,
		TokenURL:         cfg.TokenURL,
		CallbackURL:      cfg.CallbackURL,
		Scope:            cfg.Scope,
		Profile:          profileFetcher(cfg.UserInfoURL),
	}
	strategyCfg.Store = oauth2.NewSessionStore(strategyCfg.DefaultSessionKey())

	strat, err := oauth2.New(strategyCfg, p.verify)
	if err != nil {
		return nil, fmt.Errorf("build provider strategy: %w", err)
	}
	strat.Client().UseAuthorizationHeaderForGET = true
	return strat, nil
}

// Register installs the strategy and the session serialization chain on the
// authenticator. Sessions store only the username; the deserializer resolves
// it back through the user service and treats a vanished account as a stale
// session rather than an error.
func (p *Provider) Register(a *passport.Authenticator, strat *oauth2.Strategy) error {
	if err := a.Use(strat); err != nil {
		return err
	}

	a.RegisterSerializer(func(_ *passport.Context, user any) (any, error) {
		u, ok := user.(*models.User)
		if !ok {
			return nil, passport.ErrSkip
		}
		return u.Username, nil
	})

	a.RegisterDeserializer(func(pc *passport.Context, serialized any) (any, error) {
		username, ok := serialized.(string)
		if !ok {
			return nil, passport.ErrSkip
		}
		user, err := p.users.UserByUsername(pc.Request.Context(), username)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return user, nil
	})

	return nil
}

// verify upserts the provider profile into the local user store and reports
// the outcome to the audit pipeline.
func (p *Provider) verify(pc *passport.Context, accessToken, _ string, _ map[string]any, profile any) (any, any, error) {
	user, ok := profile.(*models.User)
	if !ok || user.Username == "" {
		p.observe(pc, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.ActionLoginFailed,
			Reason:   "provider profile missing username",
		}, "failure")
		return nil, &passport.Info{Type: "failed", Message: "Profile is incomplete."}, nil
	}

	if err := p.users.UpsertUser(pc.Request.Context(), user); err != nil {
		return nil, nil, fmt.Errorf("upsert user %s: %w", user.Username, err)
	}

	p.observe(pc, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionLoginSucceeded,
		Username: user.Username,
	}, "success")
	return user, &passport.Info{Type: "success", Message: "Welcome back."}, nil
}

// Logout records a logout for the audit trail.
func (p *Provider) Logout(pc *passport.Context) {
	username := ""
	if user, ok := pc.User().(*models.User); ok {
		username = user.Username
	}
	p.observe(pc, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionLogout,
		Username: username,
	}, "logout")
}

func (p *Provider) observe(pc *passport.Context, event audit.Event, outcome string) {
	if p.metrics != nil {
		p.metrics.ObserveAuthAttempt(StrategyName, outcome)
	}
	if p.events == nil {
		return
	}
	event.Timestamp = time.Now()
	event.RequestID = requestcontext.RequestID(pc.Request.Context())
	event.ClientIP = requestcontext.ClientIP(pc.Request.Context())
	select {
	case p.events <- event:
	default:
		// Auditing must never block a login; the worker drains fast enough
		// that a full channel means something is already on fire.
	}
}

// profileFetcher retrieves the userinfo document and maps it onto the local
// user model.
func profileFetcher(userInfoURL string) oauth2.ProfileFunc {
	return func(ctx context.Context, client *oauth2client.Client, accessToken string) (any, error) {
		if userInfoURL == "" {
			return &models.User{}, nil
		}
		data, err := client.Get(ctx, userInfoURL, accessToken)
		if err != nil {
			return nil, fmt.Errorf("fetch user profile: %w", err)
		}

		var doc struct {
			Sub               json.Number `json:"sub"`
			PreferredUsername string      `json:"preferred_username"`
			Name              string      `json:"name"`
			Email             string      `json:"email"`
			Locale            string      `json:"locale"`
			Administrator     bool        `json:"administrator"`
			Courses           []string    `json:"courses"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode user profile: %w", err)
		}

		return &models.User{
			ID:            doc.Sub.String(),
			Username:      doc.PreferredUsername,
			Name:          doc.Name,
			Email:         doc.Email,
			Language:      doc.Locale,
			Administrator: doc.Administrator,
			CourseIDs:     doc.Courses,
		}, nil
	}
}
