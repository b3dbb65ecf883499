package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vismooc/internal/auth"
	"vismooc/internal/passport"
	"vismooc/internal/platform/metrics"
	platformredis "vismooc/internal/platform/redis"
	"vismooc/pkg/platform/audit"
)

// Deps collects everything the router needs wired in. Cache may be nil when
// Redis is not configured; the cache middleware then becomes a no-op.
type Deps struct {
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Sessions func(http.Handler) http.Handler
	Authn    *passport.Authenticator
	Provider *auth.Provider
	Data     DataService
	Cache    *platformredis.Client
	Events   chan<- audit.Event
}

// NewRouter wires all public endpoints. The session, passport initialize, and
// session-restore middleware run on every route; authentication enforcement
// and permissions are scoped to the data endpoints.
func NewRouter(deps Deps) http.Handler {
	authHandler := NewAuthHandler(deps.Provider)
	dataHandler := NewDataHandler(deps.Data)

	r := chi.NewRouter()
	r.Use(requestMeta(deps.Log, deps.Metrics))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions)
		r.Use(deps.Authn.Initialize())
		r.Use(deps.Authn.Session())

		r.Get("/login", authHandler.handleLogin)
		r.Get("/logout", authHandler.handleLogout)
		r.Get("/session", authHandler.handleSessionInfo)

		// Both grant legs land here: the first visit triggers the redirect
		// to the provider, the provider's callback carries code and state
		// back to the same route.
		oauthFlow := deps.Authn.Authenticate([]string{auth.StrategyName}, &passport.Options{
			SuccessReturnToOrRedirect: "/",
			SuccessMessage:            true,
			FailureRedirect:           "/login/failed",
			FailureMessage:            true,
		})
		r.With(oauthFlow).Get("/oauth", afterLogin)
		r.With(oauthFlow).Get("/oauth2", afterLogin)

		r.Get("/login/failed", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"login_failed"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/getCourseList", dataHandler.handleCourseList)

			r.Group(func(r chi.Router) {
				r.Use(requireCourseAccess(deps.Events))
				r.Use(cacheResponses(deps.Cache, deps.Metrics))

				r.Get("/getCourseInfo", dataHandler.handleCourseInfo)
				r.Get("/getVideoInfo", dataHandler.handleVideoInfo)
				r.Get("/getSentiment", dataHandler.handleSentiment)
				r.Get("/getActiveness", dataHandler.handleActiveness)
				r.Get("/getGrades", dataHandler.handleGrades)
			})
		})
	})

	return r
}

// afterLogin only runs if the authenticate middleware neither redirected nor
// failed, which does not happen in the normal grant flow. It exists so the
// route has a terminal handler.
func afterLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
