package constants

// Context and session keys
const (
	ContextKeyUserID        = "user_id"
	ContextKeyProject       = "project"
	ContextKeyProjectMember = "project_member"
)

// Auth
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	SessionCookieName = "schedule_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Scheduling
const (
	// NearCriticalFloatDays is the float at or below which a non-critical
	// activity is reported as near-critical.
	NearCriticalFloatDays = 5

	DefaultPersistAttempts = 3
	MaxSuggestedActivities = 40
)
