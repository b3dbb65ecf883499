package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring and forensics.
	// Examples: login failures, state verification failures, permission denials.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational visibility.
	// Examples: logins, logouts, data exports.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Username  string        `json:"username"`
	Action    Action        `json:"action"`
	Reason    string        `json:"reason,omitempty"`
	CourseID  string        `json:"courseId,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
	ClientIP  string        `json:"clientIp,omitempty"`
}

// Action names the audited operation.
type Action string

const (
	ActionLoginSucceeded   Action = "login_succeeded"
	ActionLoginFailed      Action = "login_failed"
	ActionLogout           Action = "logout"
	ActionStateRejected    Action = "oauth_state_rejected"
	ActionPermissionDenied Action = "permission_denied"
	ActionCourseAccessed   Action = "course_accessed"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
