package dto

import (
	"time"

	"github.com/yukikurage/construction-schedule-api/internal/models"
)

// ActivityDTO represents a schedule activity in API responses
type ActivityDTO struct {
	ID              uint64                `json:"id"`
	ProjectID       uint64                `json:"project_id"`
	ActivityCode    string                `json:"activity_code"`
	Name            string                `json:"name"`
	DurationDays    int                   `json:"duration_days"`
	PredecessorIDs  []uint64              `json:"predecessor_ids"`
	Status          models.ActivityStatus `json:"status"`
	PercentComplete float64               `json:"percent_complete"`
	PlannedStart    *time.Time            `json:"planned_start"`
	PlannedFinish   *time.Time            `json:"planned_finish"`
	ActualStart     *time.Time            `json:"actual_start"`
	ActualFinish    *time.Time            `json:"actual_finish"`
	AssignedTo      *string               `json:"assigned_to"`
	Notes           string                `json:"notes"`
	SortOrder       int                   `json:"sort_order"`
	EarlyStart      int                   `json:"early_start"`
	EarlyFinish     int                   `json:"early_finish"`
	LateStart       int                   `json:"late_start"`
	LateFinish      int                   `json:"late_finish"`
	TotalFloat      int                   `json:"total_float"`
	IsCritical      bool                  `json:"is_critical"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// CriticalPathDTO summarizes the critical path of a project
type CriticalPathDTO struct {
	CriticalPath    []string      `json:"critical_path"`
	NearCritical    []string      `json:"near_critical"`
	ProjectDuration int           `json:"project_duration"`
	Activities      []ActivityDTO `json:"activities"`
}

// DelayImpactDTO describes the effect of delaying one activity
type DelayImpactDTO struct {
	ActivityID         uint64   `json:"activity_id"`
	Activity           string   `json:"activity"`
	IsCritical         bool     `json:"is_critical"`
	TotalFloat         int      `json:"total_float"`
	DelayDays          int      `json:"delay_days"`
	AbsorbedByFloat    int      `json:"absorbed_by_float"`
	ProjectImpactDays  int      `json:"project_impact_days"`
	AffectedActivities []string `json:"affected_activities"`
	OriginalDuration   int      `json:"original_duration"`
	NewDuration        int      `json:"new_duration"`
}

// TemplateLoadResponse is returned after seeding a project from a template
type TemplateLoadResponse struct {
	ActivitiesCreated int           `json:"activities_created"`
	Activities        []ActivityDTO `json:"activities"`
}

// SuggestedActivityDTO is an activity proposed from free text; it is not persisted
type SuggestedActivityDTO struct {
	ActivityCode     string   `json:"activity_code"`
	Name             string   `json:"name"`
	DurationDays     int      `json:"duration_days"`
	PredecessorCodes []string `json:"predecessor_codes"`
}

// MilestoneDTO represents a milestone in API responses
type MilestoneDTO struct {
	ID         uint64                 `json:"id"`
	ProjectID  uint64                 `json:"project_id"`
	Name       string                 `json:"name"`
	TargetDate *time.Time             `json:"target_date"`
	ActualDate *time.Time             `json:"actual_date"`
	Status     models.MilestoneStatus `json:"status"`
	Notes      string                 `json:"notes"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ToActivityDTO converts an Activity model to ActivityDTO
func ToActivityDTO(a models.Activity) ActivityDTO {
	return ActivityDTO{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		ActivityCode:    a.ActivityCode,
		Name:            a.Name,
		DurationDays:    a.DurationDays,
		PredecessorIDs:  a.PredecessorIDs(),
		Status:          a.Status,
		PercentComplete: a.PercentComplete,
		PlannedStart:    a.PlannedStart,
		PlannedFinish:   a.PlannedFinish,
		ActualStart:     a.ActualStart,
		ActualFinish:    a.ActualFinish,
		AssignedTo:      a.AssignedTo,
		Notes:           a.Notes,
		SortOrder:       a.SortOrder,
		EarlyStart:      a.EarlyStart,
		EarlyFinish:     a.EarlyFinish,
		LateStart:       a.LateStart,
		LateFinish:      a.LateFinish,
		TotalFloat:      a.TotalFloat,
		IsCritical:      a.IsCritical,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ToActivityDTOs converts a slice of activities
func ToActivityDTOs(activities []models.Activity) []ActivityDTO {
	out := make([]ActivityDTO, len(activities))
	for i, a := range activities {
		out[i] = ToActivityDTO(a)
	}
	return out
}

// ToMilestoneDTO converts a Milestone model to MilestoneDTO
func ToMilestoneDTO(m models.Milestone) MilestoneDTO {
	return MilestoneDTO{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		Name:       m.Name,
		TargetDate: m.TargetDate,
		ActualDate: m.ActualDate,
		Status:     m.Status,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}
