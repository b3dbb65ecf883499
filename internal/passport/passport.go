// Package passport is a pluggable authentication layer for net/http. An
// Authenticator owns a registry of named strategies plus user serialization
// chains; middleware produced by Initialize, Session, and Authenticate wires
// them into a request pipeline.
//
// The package deliberately separates registration (Use, RegisterSerializer)
// from execution (Authenticate): applications configure one Authenticator at
// startup and mount its middleware wherever routes need protection.
package passport

import (
	"log/slog"
	"net/http"
	"sync"
)

// DefaultUserProperty is where the authenticated user lands on the request
// state unless the Authenticator is configured otherwise.
const DefaultUserProperty = "user"

// ErrorHandler receives protocol-level errors that escape the middleware:
// unknown strategies, serialization failures, upstream token endpoint
// failures. The default handler logs and writes a minimal response using the
// error's HTTP status when it carries one.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator is the registry and dispatcher for authentication strategies.
// All registration methods are safe for concurrent use, though the expected
// pattern is registration at startup and read-only use per request.
type Authenticator struct {
	mu               sync.RWMutex
	strategies       map[string]Strategy
	serializers      []SerializeFunc
	deserializers    []DeserializeFunc
	infoTransformers []TransformFunc

	userProperty string
	trustProxy   bool
	errorHandler ErrorHandler
	log          *slog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithUserProperty changes the request state key the authenticated user is
// stored under.
func WithUserProperty(property string) Option {
	return func(a *Authenticator) { a.userProperty = property }
}

// WithTrustProxy lets strategies honor X-Forwarded-Proto and X-Forwarded-Host
// when reconstructing absolute URLs. Enable only behind a trusted reverse
// proxy.
func WithTrustProxy() Option {
	return func(a *Authenticator) { a.trustProxy = true }
}

// WithErrorHandler replaces the default protocol error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *Authenticator) { a.errorHandler = h }
}

// WithLogger sets the logger used by the default error handler.
func WithLogger(log *slog.Logger) Option {
	return func(a *Authenticator) { a.log = log }
}

// New builds an Authenticator. The session strategy is registered out of the
// box so a.Session() works without further setup.
func New(opts ...Option) *Authenticator {
	a := &Authenticator{
		strategies:   make(map[string]Strategy),
		userProperty: DefaultUserProperty,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.errorHandler == nil {
		a.errorHandler = a.defaultErrorHandler
	}
	a.strategies["session"] = &SessionStrategy{}
	return a
}

// UserProperty returns the request state key for the authenticated user.
func (a *Authenticator) UserProperty() string { return a.userProperty }

// Use registers a strategy under its own name.
func (a *Authenticator) Use(s Strategy) error {
	return a.UseNamed(s.Name(), s)
}

// UseNamed registers a strategy under an explicit name, overriding the name
// the strategy reports about itself.
func (a *Authenticator) UseNamed(name string, s Strategy) error {
	if name == "" {
		return ErrUnnamedStrategy
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.strategies[name] = s
	return nil
}

// Unuse removes a strategy from the registry. Removing an unknown name is a
// no-op. In-flight dispatches that already resolved the strategy finish
// normally; subsequent requests fail with UnknownStrategyError.
func (a *Authenticator) Unuse(name string) *Authenticator {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.strategies, name)
	return a
}

func (a *Authenticator) strategy(name string) (Strategy, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.strategies[name]
	if !ok {
		return nil, &UnknownStrategyError{Name: name}
	}
	return s, nil
}

func (a *Authenticator) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if sc, ok := err.(interface{ HTTPStatus() int }); ok {
		status = sc.HTTPStatus()
	}
	a.log.Error("authentication error", "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, http.StatusText(status), status)
}
