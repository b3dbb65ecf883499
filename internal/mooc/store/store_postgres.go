package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vismooc/internal/mooc/models"
	"vismooc/pkg/platform/sentinel"
)

// PostgresStore persists the analytics dataset in Postgres. Relations that
// arrive as documents from the data pipeline (video and student ID lists,
// temporal hotness maps) stay as JSONB columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CourseByID(ctx context.Context, courseID string) (*models.Course, error) {
	const q = `
		SELECT id, name, org, instructor, status, url, description,
		       start_date, end_date, video_ids, student_ids
		FROM courses WHERE id = $1`

	var course models.Course
	err := s.pool.QueryRow(ctx, q, courseID).Scan(
		&course.ID, &course.Name, &course.Org, &course.Instructor,
		&course.Status, &course.URL, &course.Description,
		&course.StartDate, &course.EndDate, &course.VideoIDs, &course.StudentIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query course %s: %w", courseID, err)
	}
	return &course, nil
}

func (s *PostgresStore) Courses(ctx context.Context) ([]models.CourseSummary, error) {
	const q = `
		SELECT id, name, COALESCE(substring(start_date FROM 1 FOR 4), ''),
		       start_date, end_date
		FROM courses ORDER BY id`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var summaries []models.CourseSummary
	for rows.Next() {
		var c models.CourseSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Year, &c.StartDate, &c.EndDate); err != nil {
			return nil, fmt.Errorf("scan course summary: %w", err)
		}
		summaries = append(summaries, c)
	}
	return summaries, rows.Err()
}

func (s *PostgresStore) VideosByCourse(ctx context.Context, courseID string) ([]models.Video, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return nil, err
	}

	const q = `
		SELECT id, course_id, name, section, url, duration, temporal_hotness
		FROM videos WHERE course_id = $1 ORDER BY section, id`

	rows, err := s.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("query videos for %s: %w", courseID, err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.CourseID, &v.Name, &v.Section, &v.URL, &v.Duration, &v.TemporalHotness); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *PostgresStore) ThreadsByCourse(ctx context.Context, courseID string) ([]models.ForumThread, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return nil, err
	}

	const q = `
		SELECT id, course_id, author_id, title, sentiment, created_at
		FROM forum_threads WHERE course_id = $1 ORDER BY created_at`

	rows, err := s.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("query threads for %s: %w", courseID, err)
	}
	defer rows.Close()

	var threads []models.ForumThread
	for rows.Next() {
		var t models.ForumThread
		if err := rows.Scan(&t.ID, &t.CourseID, &t.AuthorID, &t.Title, &t.Sentiment, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (s *PostgresStore) GradesByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return nil, err
	}

	const q = `SELECT user_id, course_id, grade FROM grades WHERE course_id = $1`

	rows, err := s.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("query grades for %s: %w", courseID, err)
	}
	defer rows.Close()

	var grades []models.Grade
	for rows.Next() {
		var g models.Grade
		if err := rows.Scan(&g.UserID, &g.CourseID, &g.Value); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

func (s *PostgresStore) ActivityByCourse(ctx context.Context, courseID string) ([]models.ActivityDay, error) {
	if err := s.courseExists(ctx, courseID); err != nil {
		return nil, err
	}

	const q = `
		SELECT date, clicks FROM course_activity
		WHERE course_id = $1 ORDER BY date`

	rows, err := s.pool.Query(ctx, q, courseID)
	if err != nil {
		return nil, fmt.Errorf("query activity for %s: %w", courseID, err)
	}
	defer rows.Close()

	var days []models.ActivityDay
	for rows.Next() {
		var d models.ActivityDay
		if err := rows.Scan(&d.Date, &d.Clicks); err != nil {
			return nil, fmt.Errorf("scan activity day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `
		SELECT id, username, name, email, language, administrator, course_ids
		FROM users WHERE username = $1`

	var user models.User
	err := s.pool.QueryRow(ctx, q, username).Scan(
		&user.ID, &user.Username, &user.Name, &user.Email,
		&user.Language, &user.Administrator, &user.CourseIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", username, err)
	}
	return &user, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (id, username, name, email, language, administrator, course_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO UPDATE SET
			id = EXCLUDED.id,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			language = EXCLUDED.language,
			administrator = EXCLUDED.administrator,
			course_ids = EXCLUDED.course_ids`

	_, err := s.pool.Exec(ctx, q,
		user.ID, user.Username, user.Name, user.Email,
		user.Language, user.Administrator, user.CourseIDs,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", user.Username, err)
	}
	return nil
}

func (s *PostgresStore) courseExists(ctx context.Context, courseID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check course %s: %w", courseID, err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return nil
}
