package store

import (
	"context"
	"sort"
	"sync"

	"vismooc/internal/mooc/models"
	"vismooc/pkg/platform/sentinel"
)

// InMemoryStore keeps the analytics dataset in process memory. It favors
// clarity over performance and backs tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	courses  map[string]models.Course
	videos   map[string][]models.Video
	threads  map[string][]models.ForumThread
	grades   map[string][]models.Grade
	activity map[string][]models.ActivityDay
	users    map[string]models.User
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		courses:  make(map[string]models.Course),
		videos:   make(map[string][]models.Video),
		threads:  make(map[string][]models.ForumThread),
		grades:   make(map[string][]models.Grade),
		activity: make(map[string][]models.ActivityDay),
		users:    make(map[string]models.User),
	}
}

// SeedCourse loads a course and its related records, replacing any previous
// data for the same course.
func (s *InMemoryStore) SeedCourse(course models.Course, videos []models.Video, threads []models.ForumThread, grades []models.Grade, activity []models.ActivityDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
	s.videos[course.ID] = videos
	s.threads[course.ID] = threads
	s.grades[course.ID] = grades
	s.activity[course.ID] = activity
}

func (s *InMemoryStore) CourseByID(_ context.Context, courseID string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if course, ok := s.courses[courseID]; ok {
		return &course, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Courses(_ context.Context) ([]models.CourseSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]models.CourseSummary, 0, len(s.courses))
	for _, course := range s.courses {
		summaries = append(summaries, models.CourseSummary{
			ID:        course.ID,
			Name:      course.Name,
			StartDate: course.StartDate,
			EndDate:   course.EndDate,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (s *InMemoryStore) VideosByCourse(_ context.Context, courseID string) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.courses[courseID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.videos[courseID], nil
}

func (s *InMemoryStore) ThreadsByCourse(_ context.Context, courseID string) ([]models.ForumThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.courses[courseID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.threads[courseID], nil
}

func (s *InMemoryStore) GradesByCourse(_ context.Context, courseID string) ([]models.Grade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.courses[courseID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.grades[courseID], nil
}

func (s *InMemoryStore) ActivityByCourse(_ context.Context, courseID string) ([]models.ActivityDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.courses[courseID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.activity[courseID], nil
}

func (s *InMemoryStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[username]; ok {
		return &user, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = *user
	return nil
}
