package models

import (
	"sort"
	"time"
)

type ActivityStatus string

const (
	ActivityStatusNotStarted ActivityStatus = "not_started"
	ActivityStatusInProgress ActivityStatus = "in_progress"
	ActivityStatusCompleted  ActivityStatus = "completed"
	ActivityStatusDelayed    ActivityStatus = "delayed"
)

var activityTransitions = map[ActivityStatus][]ActivityStatus{
	ActivityStatusNotStarted: {ActivityStatusInProgress, ActivityStatusDelayed},
	ActivityStatusInProgress: {ActivityStatusCompleted, ActivityStatusDelayed},
	ActivityStatusDelayed:    {ActivityStatusInProgress},
	ActivityStatusCompleted:  nil,
}

// Valid reports whether s is a known activity status.
func (s ActivityStatus) Valid() bool {
	_, ok := activityTransitions[s]
	return ok
}

// CanTransitionTo reports whether an activity in status s may move to next.
// Staying in the same status is always allowed.
func (s ActivityStatus) CanTransitionTo(next ActivityStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, allowed := range activityTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Activity is one node of a project's schedule network. The CPM fields
// (EarlyStart through IsCritical) are written only by the schedule service.
type Activity struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	ProjectID       uint64         `gorm:"not null" json:"project_id"`
	ActivityCode    string         `gorm:"type:varchar(20);not null" json:"activity_code"`
	Name            string         `gorm:"type:varchar(200);not null" json:"name"`
	DurationDays    int            `gorm:"not null" json:"duration_days"`
	EarlyStart      int            `gorm:"not null" json:"early_start"`
	EarlyFinish     int            `gorm:"not null" json:"early_finish"`
	LateStart       int            `gorm:"not null" json:"late_start"`
	LateFinish      int            `gorm:"not null" json:"late_finish"`
	TotalFloat      int            `gorm:"not null" json:"total_float"`
	IsCritical      bool           `gorm:"not null" json:"is_critical"`
	Status          ActivityStatus `gorm:"type:varchar(20);not null" json:"status"`
	PercentComplete float64        `gorm:"not null" json:"percent_complete"`
	PlannedStart    *time.Time     `gorm:"type:date" json:"planned_start"`
	PlannedFinish   *time.Time     `gorm:"type:date" json:"planned_finish"`
	ActualStart     *time.Time     `gorm:"type:date" json:"actual_start"`
	ActualFinish    *time.Time     `gorm:"type:date" json:"actual_finish"`
	AssignedTo      *string        `gorm:"type:varchar(200)" json:"assigned_to"`
	Notes           string         `gorm:"type:text" json:"notes"`
	SortOrder       int            `gorm:"not null" json:"sort_order"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Relations
	Dependencies []ActivityDependency `gorm:"foreignKey:ActivityID" json:"-"`
}

// PredecessorIDs returns the ids of the preloaded dependencies, ascending.
func (a Activity) PredecessorIDs() []uint64 {
	ids := make([]uint64, 0, len(a.Dependencies))
	for _, d := range a.Dependencies {
		ids = append(ids, d.PredecessorID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
