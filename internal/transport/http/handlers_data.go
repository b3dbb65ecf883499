package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"

	"vismooc/internal/mooc/models"
	"vismooc/internal/mooc/service"
	"vismooc/pkg/platform/sentinel"
)

//go:generate mockgen -source=handlers_data.go -destination=mocks/data_service.go -package=mocks

// DataService is the analytics surface the data handlers delegate to.
type DataService interface {
	CourseList(ctx context.Context) ([]models.CourseSummary, error)
	CourseInfo(ctx context.Context, courseID string) (*service.CourseInfo, error)
	VideoInfo(ctx context.Context, courseID string) ([]models.Video, error)
	Sentiment(ctx context.Context, courseID string) ([]service.SentimentDay, error)
	Activeness(ctx context.Context, courseID string) ([]models.ActivityDay, error)
	Grades(ctx context.Context, courseID string) ([]service.GradeBucket, error)
}

// DataHandler serves the dashboard's chart endpoints.
type DataHandler struct {
	data DataService
}

func NewDataHandler(data DataService) *DataHandler {
	return &DataHandler{data: data}
}

func (h *DataHandler) handleCourseList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.data.CourseList(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, courses)
}

func (h *DataHandler) handleCourseInfo(w http.ResponseWriter, r *http.Request) {
	courseID, err := courseIDFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.data.CourseInfo(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, info)
}

func (h *DataHandler) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	courseID, err := courseIDFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	videos, err := h.data.VideoInfo(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, videos)
}

func (h *DataHandler) handleSentiment(w http.ResponseWriter, r *http.Request) {
	courseID, err := courseIDFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := h.data.Sentiment(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, days)
}

func (h *DataHandler) handleActiveness(w http.ResponseWriter, r *http.Request) {
	courseID, err := courseIDFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := h.data.Activeness(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, days)
}

func (h *DataHandler) handleGrades(w http.ResponseWriter, r *http.Request) {
	courseID, err := courseIDFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	buckets, err := h.data.Grades(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, buckets)
}

// courseIDFromQuery extracts and validates the courseId parameter. Course IDs
// contain plus signs which standard query decoding turns into spaces, so the
// decoding is reversed here.
func courseIDFromQuery(r *http.Request) (string, error) {
	courseID := strings.ReplaceAll(r.URL.Query().Get("courseId"), " ", "+")
	if !govalidator.StringLength(courseID, "1", "255") {
		return "", errInvalidCourseID
	}
	return courseID, nil
}

var errInvalidCourseID = errors.New("invalid courseId")

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError centralizes domain error translation to HTTP responses so all
// handlers produce consistent JSON error envelopes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, errInvalidCourseID):
		status = http.StatusBadRequest
		code = "invalid_input"
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, sentinel.ErrUnavailable):
		status = http.StatusServiceUnavailable
		code = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
