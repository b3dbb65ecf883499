// Package store defines persistence for the course analytics domain and its
// in-memory and Postgres implementations.
package store

import (
	"context"

	"vismooc/internal/mooc/models"
)

// Store is the persistence boundary for course analytics. Implementations
// return sentinel.ErrNotFound (optionally wrapped) for unknown identifiers.
type Store interface {
	CourseByID(ctx context.Context, courseID string) (*models.Course, error)
	Courses(ctx context.Context) ([]models.CourseSummary, error)
	VideosByCourse(ctx context.Context, courseID string) ([]models.Video, error)
	ThreadsByCourse(ctx context.Context, courseID string) ([]models.ForumThread, error)
	GradesByCourse(ctx context.Context, courseID string) ([]models.Grade, error)
	ActivityByCourse(ctx context.Context, courseID string) ([]models.ActivityDay, error)

	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}
