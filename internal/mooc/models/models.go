// Package models holds the course analytics domain types. They mirror the
// shapes served to the dashboard frontend, so JSON tags follow its camelCase
// contract.
package models

import "time"

// Course is one course run with the relations the dashboard charts hang off.
type Course struct {
	ID          string   `json:"courseId"`
	Name        string   `json:"name"`
	Org         string   `json:"org"`
	Instructor  string   `json:"instructor"`
	Status      string   `json:"status"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	VideoIDs    []string `json:"videoIds"`
	StudentIDs  []string `json:"studentIds"`
}

// CourseSummary is the list-view projection of a course.
type CourseSummary struct {
	ID        string `json:"courseId"`
	Name      string `json:"name"`
	Year      string `json:"year"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Video is one lecture video. TemporalHotness counts watch events per day per
// student; student identifiers are anonymized before the map leaves the
// service layer.
type Video struct {
	ID              string                    `json:"videoId"`
	CourseID        string                    `json:"courseId"`
	Name            string                    `json:"name"`
	Section         string                    `json:"section"`
	URL             string                    `json:"url"`
	Duration        int                       `json:"duration"`
	TemporalHotness map[string]map[string]int `json:"temporalHotness"`
}

// ForumThread is one discussion thread with its sentiment score in [-1, 1].
type ForumThread struct {
	ID        string    `json:"threadId"`
	CourseID  string    `json:"courseId"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Sentiment float64   `json:"sentiment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Grade is one student's final grade in a course, in [0, 1].
type Grade struct {
	UserID   string  `json:"userId"`
	CourseID string  `json:"courseId"`
	Value    float64 `json:"grade"`
}

// ActivityDay aggregates one day of click events for a course.
type ActivityDay struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

// User is a dashboard account mirrored from the identity provider on login.
type User struct {
	ID            string   `json:"userId"`
	Username      string   `json:"username"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Language      string   `json:"language"`
	Administrator bool     `json:"administrator"`
	CourseIDs     []string `json:"courseIds"`
}

// CanAccessCourse reports whether the user may read analytics for courseID.
// Administrators see everything; instructors see their assigned courses.
func (u *User) CanAccessCourse(courseID string) bool {
	if u.Administrator {
		return true
	}
	for _, id := range u.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}
