package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"vismooc/internal/mooc/models"
	"vismooc/internal/passport"
	platformredis "vismooc/internal/platform/redis"
	"vismooc/pkg/platform/audit"
	"vismooc/pkg/requestcontext"
)

type MiddlewareSuite struct {
	suite.Suite
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

// authedRequest installs a passport context carrying user on the request, the
// way Initialize and the session strategy would have left it.
func authedRequest(target string, user *models.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	pc := passport.NewContext(httptest.NewRecorder(), r)
	if user != nil {
		pc.State[passport.DefaultUserProperty] = user
	}
	return pc.Install(r)
}

func (s *MiddlewareSuite) TestRequireAuth() {
	s.Run("rejects anonymous requests", func() {
		w := httptest.NewRecorder()
		requireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			s.Fail("next must not run")
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getCourseList", nil))

		s.Equal(http.StatusUnauthorized, w.Code)
		var body map[string]string
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("unauthenticated", body["error"])
	})

	s.Run("admits authenticated requests and tags the username", func() {
		var username string
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			username = requestcontext.Username(r.Context())
		})

		w := httptest.NewRecorder()
		requireAuth(next).ServeHTTP(w, authedRequest("/getCourseList", &models.User{Username: "alice"}))
		s.Equal(http.StatusOK, w.Code)
		s.Equal("alice", username)
	})
}

func (s *MiddlewareSuite) TestRequireCourseAccess() {
	instructor := &models.User{Username: "alice", CourseIDs: []string{"HKUST+COMP102x"}}

	s.Run("admits assigned courses", func() {
		nextRan := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { nextRan = true })

		w := httptest.NewRecorder()
		requireCourseAccess(nil)(next).ServeHTTP(w, authedRequest("/getCourseInfo?courseId=HKUST%20COMP102x", instructor))
		s.True(nextRan)
	})

	s.Run("admits administrators everywhere", func() {
		nextRan := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { nextRan = true })

		admin := &models.User{Username: "root", Administrator: true}
		w := httptest.NewRecorder()
		requireCourseAccess(nil)(next).ServeHTTP(w, authedRequest("/getCourseInfo?courseId=anything", admin))
		s.True(nextRan)
	})

	s.Run("denies and audits unassigned courses", func() {
		events := make(chan audit.Event, 1)
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			s.Fail("next must not run")
		})

		w := httptest.NewRecorder()
		requireCourseAccess(events)(next).ServeHTTP(w, authedRequest("/getCourseInfo?courseId=other", instructor))
		s.Equal(http.StatusForbidden, w.Code)

		select {
		case event := <-events:
			s.Equal(audit.ActionPermissionDenied, event.Action)
			s.Equal("alice", event.Username)
			s.Equal("other", event.CourseID)
			s.Equal(audit.CategorySecurity, event.Category)
		default:
			s.Fail("expected an audit event")
		}
	})

	s.Run("validates courseId", func() {
		w := httptest.NewRecorder()
		requireCourseAccess(nil)(http.NotFoundHandler()).ServeHTTP(w, authedRequest("/getCourseInfo", instructor))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("rejects missing users outright", func() {
		w := httptest.NewRecorder()
		requireCourseAccess(nil)(http.NotFoundHandler()).ServeHTTP(w, authedRequest("/getCourseInfo?courseId=c1", nil))
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *MiddlewareSuite) TestCacheResponses() {
	mr := miniredis.RunT(s.T())
	client := &platformredis.Client{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeJSON(w, map[string]string{"answer": "42"})
	})
	handler := cacheResponses(client, nil)(next)

	s.Run("first request misses and stores", func() {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getGrades?courseId=c1", nil))
		s.Equal(http.StatusOK, w.Code)
		s.Equal(1, calls)
		s.True(mr.Exists("vismooc:cache:/getGrades?courseId=c1"))
	})

	s.Run("second request hits without touching the handler", func() {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getGrades?courseId=c1", nil))
		s.Equal(http.StatusOK, w.Code)
		s.Equal(1, calls)
		s.Equal("HIT", w.Header().Get("X-Cache"))
		s.JSONEq(`{"answer":"42"}`, w.Body.String())
	})

	s.Run("different query strings cache separately", func() {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getGrades?courseId=c2", nil))
		s.Equal(2, calls)
	})

	s.Run("expired entries fall through to the handler again", func() {
		mr.FastForward(10 * time.Minute)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getGrades?courseId=c1", nil))
		s.Equal(3, calls)
	})

	s.Run("error responses are not cached", func() {
		failing := cacheResponses(client, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, errInvalidCourseID)
		}))
		w := httptest.NewRecorder()
		failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getGrades?courseId=bad", nil))
		s.Equal(http.StatusBadRequest, w.Code)
		s.False(mr.Exists("vismooc:cache:/getGrades?courseId=bad"))
	})

	s.Run("a nil client disables caching", func() {
		passthrough := cacheResponses(nil, nil)(next)
		w := httptest.NewRecorder()
		passthrough.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/getGrades?courseId=c1", nil))
		s.Equal(http.StatusOK, w.Code)
	})
}
