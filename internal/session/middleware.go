package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// Options configures the session middleware.
type Options struct {
	CookieName string        // defaults to "vismooc.sid"
	TTL        time.Duration // defaults to 24h, refreshed on every write
	SigningKey []byte        // HS256 key for the session cookie JWT
	Secure     bool          // mark the cookie Secure
}

type cookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Middleware loads the request's session from the store (creating one when the
// cookie is absent or invalid) and persists it before the response is written.
// The cookie carries only a signed session ID; all state stays server-side.
func Middleware(store Store, log *slog.Logger, opts Options) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "vismooc.sid"
	}
	if opts.TTL == 0 {
		opts.TTL = 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := load(store, r, opts)
			sw := &sessionWriter{
				ResponseWriter: w,
				request:        r,
				session:        sess,
				store:          store,
				log:            log,
				opts:           opts,
			}

			next.ServeHTTP(sw, r.WithContext(NewContext(r.Context(), sess)))
			sw.finalize()
		})
	}
}

func load(store Store, r *http.Request, opts Options) *Session {
	cookie, err := r.Cookie(opts.CookieName)
	if err == nil {
		if sid := verifyCookie(cookie.Value, opts.SigningKey); sid != "" {
			values, err := store.Get(r.Context(), sid)
			if err == nil {
				return newSession(sid, values, false)
			}
		}
	}

	sess := newSession(uuid.NewString(), nil, true)
	recordDevice(sess, r.UserAgent())
	return sess
}

// recordDevice captures coarse client metadata on first contact so operators
// can tell sessions apart in the store.
func recordDevice(s *Session, rawUA string) {
	if rawUA == "" {
		return
	}
	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	s.Set("device", map[string]any{
		"browser": browser,
		"version": version,
		"os":      ua.OS(),
		"mobile":  ua.Mobile(),
	})
}

func verifyCookie(value string, key []byte) string {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.SID
}

func signCookie(sid string, key []byte, ttl time.Duration) (string, error) {
	claims := cookieClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// sessionWriter defers session persistence until the response commits, so the
// Set-Cookie header can still be added and handler-side mutations are not lost.
type sessionWriter struct {
	http.ResponseWriter
	request   *http.Request
	session   *Session
	store     Store
	log       *slog.Logger
	opts      Options
	finalized bool
}

func (w *sessionWriter) WriteHeader(status int) {
	w.finalize()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.finalize()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) finalize() {
	if w.finalized {
		return
	}
	w.finalized = true

	ctx := w.request.Context()
	sess := w.session

	if sess.Destroyed() {
		if err := w.store.Destroy(ctx, sess.ID()); err != nil {
			w.log.Error("session destroy failed", "sid", sess.ID(), "error", err)
		}
		http.SetCookie(w.ResponseWriter, &http.Cookie{
			Name:     w.opts.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   w.opts.Secure,
		})
		return
	}

	if !sess.dirty && !sess.isNew {
		return
	}
	if sess.isNew && len(sess.values) == 0 {
		return
	}

	if err := w.store.Set(ctx, sess.ID(), sess.Values(), w.opts.TTL); err != nil {
		w.log.Error("session save failed", "sid", sess.ID(), "error", err)
		return
	}

	signed, err := signCookie(sess.ID(), w.opts.SigningKey, w.opts.TTL)
	if err != nil {
		w.log.Error("session cookie signing failed", "sid", sess.ID(), "error", err)
		return
	}
	http.SetCookie(w.ResponseWriter, &http.Cookie{
		Name:     w.opts.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(w.opts.TTL / time.Second),
		HttpOnly: true,
		Secure:   w.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
