package httptransport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vismooc/internal/mooc/models"
	"vismooc/internal/passport"
	"vismooc/internal/platform/config"
	"vismooc/internal/platform/metrics"
	platformredis "vismooc/internal/platform/redis"
	"vismooc/pkg/platform/audit"
	"vismooc/pkg/requestcontext"
)

// requestMeta tags each request with a correlation ID and client metadata,
// logs it, and records the Prometheus request metrics.
func requestMeta(log *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := requestcontext.WithRequestID(r.Context(), requestID)
			ctx = requestcontext.WithClientIP(ctx, clientIP(r))
			ctx = requestcontext.WithUserAgent(ctx, r.UserAgent())
			r = r.WithContext(ctx)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start)

			if m != nil {
				m.ObserveRequest(r.URL.Path, strconv.Itoa(recorder.status), elapsed.Seconds())
			}
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", requestID,
			)
		})
	}
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wrote {
		r.status = status
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

// requireAuth rejects requests without an established user. The dashboard
// frontend turns the 401 into a login redirect.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pc := passport.FromRequest(r)
		if pc == nil || !pc.IsAuthenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
			return
		}
		if user, ok := pc.User().(*models.User); ok {
			r = r.WithContext(requestcontext.WithUsername(r.Context(), user.Username))
		}
		next.ServeHTTP(w, r)
	})
}

// requireCourseAccess enforces per-course permissions on endpoints keyed by
// courseId. Denials are audited.
func requireCourseAccess(events chan<- audit.Event) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pc := passport.FromRequest(r)
			user, _ := pc.User().(*models.User)
			if user == nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			courseID, err := courseIDFromQuery(r)
			if err != nil {
				writeError(w, err)
				return
			}
			if !user.CanAccessCourse(courseID) {
				if events != nil {
					select {
					case events <- audit.Event{
						Category:  audit.CategorySecurity,
						Timestamp: time.Now(),
						Username:  user.Username,
						Action:    audit.ActionPermissionDenied,
						CourseID:  courseID,
						RequestID: requestcontext.RequestID(r.Context()),
					}:
					default:
					}
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cacheResponses serves repeated GETs of the expensive aggregation endpoints
// from Redis. Entries are keyed by the full request URI and user visibility
// is not part of the key, so only responses already gated by the permission
// middleware are cached.
func cacheResponses(client *platformredis.Client, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "vismooc:cache:" + r.URL.RequestURI()

			if cached, err := client.Get(r.Context(), key).Bytes(); err == nil {
				if m != nil {
					m.CacheHits.Inc()
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(cached)
				return
			}
			if m != nil {
				m.CacheMisses.Inc()
			}

			recorder := &captureRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.status == http.StatusOK && recorder.body.Len() > 0 {
				_ = client.Set(r.Context(), key, recorder.body.Bytes(), config.ResponseCacheTTL).Err()
			}
		})
	}
}

type captureRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *captureRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *captureRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
