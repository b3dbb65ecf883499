// Package service assembles chart-ready analytics from the course store.
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vismooc/internal/mooc/models"
	"vismooc/internal/mooc/store"
)

var tracer = otel.Tracer("vismooc/mooc")

// Service computes the aggregates behind the dashboard endpoints. All reads
// go through the Store; the service owns anonymization and bucketing.
type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// CourseInfo is the course detail view.
type CourseInfo struct {
	Course       models.Course `json:"course"`
	VideoCount   int           `json:"videoCount"`
	StudentCount int           `json:"studentCount"`
}

// SentimentDay is the average forum sentiment for one day.
type SentimentDay struct {
	Date      string  `json:"date"`
	Sentiment float64 `json:"sentiment"`
	Threads   int     `json:"threads"`
}

// GradeBucket counts students whose grade falls into one decile.
type GradeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func (s *Service) CourseList(ctx context.Context) ([]models.CourseSummary, error) {
	ctx, span := tracer.Start(ctx, "mooc.CourseList")
	defer span.End()

	return s.store.Courses(ctx)
}

func (s *Service) CourseInfo(ctx context.Context, courseID string) (*CourseInfo, error) {
	ctx, span := tracer.Start(ctx, "mooc.CourseInfo", trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	course, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("course info for %s: %w", courseID, err)
	}
	return &CourseInfo{
		Course:       *course,
		VideoCount:   len(course.VideoIDs),
		StudentCount: len(course.StudentIDs),
	}, nil
}

// VideoInfo returns the course's videos with student identifiers in the
// temporal hotness maps replaced by MD5 digests. The dashboard only needs to
// distinguish students, never to identify them.
func (s *Service) VideoInfo(ctx context.Context, courseID string) ([]models.Video, error) {
	ctx, span := tracer.Start(ctx, "mooc.VideoInfo", trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	videos, err := s.store.VideosByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("video info for %s: %w", courseID, err)
	}

	anonymized := make([]models.Video, len(videos))
	for i, video := range videos {
		anonymized[i] = video
		if video.TemporalHotness == nil {
			continue
		}
		hotness := make(map[string]map[string]int, len(video.TemporalHotness))
		for date, byStudent := range video.TemporalHotness {
			day := make(map[string]int, len(byStudent))
			for studentID, count := range byStudent {
				day[anonymize(studentID)] = count
			}
			hotness[date] = day
		}
		anonymized[i].TemporalHotness = hotness
	}
	return anonymized, nil
}

func (s *Service) Sentiment(ctx context.Context, courseID string) ([]SentimentDay, error) {
	ctx, span := tracer.Start(ctx, "mooc.Sentiment", trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	threads, err := s.store.ThreadsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("sentiment for %s: %w", courseID, err)
	}

	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, thread := range threads {
		day := thread.CreatedAt.Format("2006-01-02")
		totals[day] += thread.Sentiment
		counts[day]++
	}

	days := make([]SentimentDay, 0, len(totals))
	for day, total := range totals {
		days = append(days, SentimentDay{
			Date:      day,
			Sentiment: total / float64(counts[day]),
			Threads:   counts[day],
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

func (s *Service) Activeness(ctx context.Context, courseID string) ([]models.ActivityDay, error) {
	ctx, span := tracer.Start(ctx, "mooc.Activeness", trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	days, err := s.store.ActivityByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("activeness for %s: %w", courseID, err)
	}
	return days, nil
}

// Grades buckets the course's final grades into deciles.
func (s *Service) Grades(ctx context.Context, courseID string) ([]GradeBucket, error) {
	ctx, span := tracer.Start(ctx, "mooc.Grades", trace.WithAttributes(attribute.String("course.id", courseID)))
	defer span.End()

	grades, err := s.store.GradesByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("grades for %s: %w", courseID, err)
	}

	buckets := make([]GradeBucket, 10)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%d-%d%%", i*10, i*10+10)
	}
	for _, grade := range grades {
		idx := int(grade.Value * 10)
		if idx < 0 {
			idx = 0
		}
		if idx > 9 {
			idx = 9
		}
		buckets[idx].Count++
	}
	return buckets, nil
}

func (s *Service) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.UserByUsername(ctx, username)
}

func (s *Service) UpsertUser(ctx context.Context, user *models.User) error {
	return s.store.UpsertUser(ctx, user)
}

// anonymize replaces a student identifier with a stable digest. MD5 is fine
// here: the digest only needs to be consistent across charts, not resist
// attack.
func anonymize(studentID string) string {
	sum := md5.Sum([]byte(studentID))
	return hex.EncodeToString(sum[:])
}
