package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-schedule-api/internal/dto"
	apierrors "github.com/yukikurage/construction-schedule-api/internal/errors"
	"github.com/yukikurage/construction-schedule-api/internal/middleware"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/services"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
)

// ScheduleHandler serves the activity network and CPM endpoints of a project.
type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	aiService       *services.AIService
}

// NewScheduleHandler creates a new ScheduleHandler. aiService may be nil.
func NewScheduleHandler(scheduleService *services.ScheduleService, aiService *services.AIService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		aiService:       aiService,
	}
}

type activityRequest struct {
	ActivityCode    *string                `json:"activity_code"`
	Name            *string                `json:"name"`
	DurationDays    *int                   `json:"duration_days"`
	PredecessorIDs  *[]uint64              `json:"predecessor_ids"`
	Status          *models.ActivityStatus `json:"status"`
	PercentComplete *float64               `json:"percent_complete"`
	PlannedStart    *string                `json:"planned_start"`
	PlannedFinish   *string                `json:"planned_finish"`
	ActualStart     *string                `json:"actual_start"`
	ActualFinish    *string                `json:"actual_finish"`
	AssignedTo      *string                `json:"assigned_to"`
	Notes           *string                `json:"notes"`
	SortOrder       *int                   `json:"sort_order"`
}

// ListActivities returns the project's activities with their schedule
func (h *ScheduleHandler) ListActivities(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	activities, err := h.scheduleService.ListActivities(c.Request.Context(), project.ID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTOs(activities))
}

// CreateActivity adds an activity and recomputes the schedule
func (h *ScheduleHandler) CreateActivity(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}
	if req.ActivityCode == nil || req.Name == nil || req.DurationDays == nil {
		apierrors.RespondWithDomainError(c, apierrors.Validationf("activity_code, name and duration_days are required"))
		return
	}

	plannedStart, plannedFinish, err := parseDatePair(req.PlannedStart, req.PlannedFinish)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	input := services.CreateActivityInput{
		ActivityCode:  *req.ActivityCode,
		Name:          *req.Name,
		DurationDays:  *req.DurationDays,
		PlannedStart:  plannedStart,
		PlannedFinish: plannedFinish,
		AssignedTo:    req.AssignedTo,
		SortOrder:     req.SortOrder,
	}
	if req.PredecessorIDs != nil {
		input.PredecessorIDs = *req.PredecessorIDs
	}
	if req.Status != nil {
		input.Status = *req.Status
	}
	if req.PercentComplete != nil {
		input.PercentComplete = *req.PercentComplete
	}
	if req.Notes != nil {
		input.Notes = *req.Notes
	}

	activity, err := h.scheduleService.CreateActivity(c.Request.Context(), project.ID, input)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToActivityDTO(*activity))
}

// UpdateActivity applies a partial update and returns the recomputed schedule
func (h *ScheduleHandler) UpdateActivity(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	activityID, ok := parseIDParam(c, "activityId")
	if !ok {
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	plannedStart, plannedFinish, err := parseDatePair(req.PlannedStart, req.PlannedFinish)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}
	actualStart, actualFinish, err := parseDatePair(req.ActualStart, req.ActualFinish)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	activities, err := h.scheduleService.UpdateActivity(c.Request.Context(), project.ID, activityID, services.UpdateActivityInput{
		ActivityCode:    req.ActivityCode,
		Name:            req.Name,
		DurationDays:    req.DurationDays,
		PredecessorIDs:  req.PredecessorIDs,
		Status:          req.Status,
		PercentComplete: req.PercentComplete,
		PlannedStart:    plannedStart,
		PlannedFinish:   plannedFinish,
		ActualStart:     actualStart,
		ActualFinish:    actualFinish,
		AssignedTo:      req.AssignedTo,
		Notes:           req.Notes,
		SortOrder:       req.SortOrder,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTOs(activities))
}

// SetPredecessors replaces an activity's predecessor set
func (h *ScheduleHandler) SetPredecessors(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	activityID, ok := parseIDParam(c, "activityId")
	if !ok {
		return
	}

	var req struct {
		PredecessorIDs *[]uint64 `json:"predecessor_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}
	if req.PredecessorIDs == nil {
		apierrors.RespondWithDomainError(c, apierrors.Validationf("predecessor_ids is required"))
		return
	}

	activities, err := h.scheduleService.SetPredecessors(c.Request.Context(), project.ID, activityID, *req.PredecessorIDs)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTOs(activities))
}

// AddDependency adds one finish-to-start edge
func (h *ScheduleHandler) AddDependency(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	activityID, ok := parseIDParam(c, "activityId")
	if !ok {
		return
	}

	var req struct {
		PredecessorID *uint64 `json:"predecessor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}
	if req.PredecessorID == nil {
		apierrors.RespondWithDomainError(c, apierrors.Validationf("predecessor_id is required"))
		return
	}

	activities, err := h.scheduleService.AddDependency(c.Request.Context(), project.ID, activityID, *req.PredecessorID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToActivityDTOs(activities))
}

// DeleteActivity removes an activity and returns the recomputed schedule
func (h *ScheduleHandler) DeleteActivity(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	activityID, ok := parseIDParam(c, "activityId")
	if !ok {
		return
	}

	activities, err := h.scheduleService.DeleteActivity(c.Request.Context(), project.ID, activityID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTOs(activities))
}

// LoadTemplate seeds an empty project with the residential template
func (h *ScheduleHandler) LoadTemplate(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	activities, err := h.scheduleService.LoadTemplate(c.Request.Context(), project.ID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TemplateLoadResponse{
		ActivitiesCreated: len(activities),
		Activities:        dto.ToActivityDTOs(activities),
	})
}

// Recalculate recomputes the schedule without changing the network
func (h *ScheduleHandler) Recalculate(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	activities, err := h.scheduleService.Recalculate(c.Request.Context(), project.ID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityDTOs(activities))
}

// CriticalPath returns the critical and near-critical activities
func (h *ScheduleHandler) CriticalPath(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	report, err := h.scheduleService.CriticalPath(c.Request.Context(), project.ID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CriticalPathDTO{
		CriticalPath:    activityCodes(report.Critical),
		NearCritical:    activityCodes(report.NearCritical),
		ProjectDuration: report.ProjectFinish,
		Activities:      dto.ToActivityDTOs(report.Activities),
	})
}

// DelayImpact reports what delaying one activity would do to the finish date
func (h *ScheduleHandler) DelayImpact(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	var req struct {
		ActivityID *uint64 `json:"activity_id"`
		DelayDays  *int    `json:"delay_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}
	if req.ActivityID == nil || req.DelayDays == nil {
		apierrors.RespondWithDomainError(c, apierrors.Validationf("activity_id and delay_days are required"))
		return
	}

	report, err := h.scheduleService.AnalyzeDelay(c.Request.Context(), project.ID, *req.ActivityID, *req.DelayDays)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	impact := report.Impact
	c.JSON(http.StatusOK, dto.DelayImpactDTO{
		ActivityID:         impact.ActivityID,
		Activity:           report.Activity.ActivityCode,
		IsCritical:         impact.IsCritical,
		TotalFloat:         impact.AvailableFloat,
		DelayDays:          impact.DelayDays,
		AbsorbedByFloat:    impact.AbsorbedByFloat,
		ProjectImpactDays:  impact.ProjectDelay,
		AffectedActivities: activityCodes(report.Affected),
		OriginalDuration:   impact.OriginalDuration,
		NewDuration:        impact.NewDuration,
	})
}

// SuggestActivities proposes activities for a free-text scope; nothing is saved
func (h *ScheduleHandler) SuggestActivities(c *gin.Context) {
	if h.aiService == nil {
		apierrors.ServiceUnavailable(c, "AI service is not configured")
		return
	}

	project, _ := middleware.GetProject(c)

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	activities, err := h.scheduleService.ListActivities(c.Request.Context(), project.ID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	suggested, err := h.aiService.SuggestActivities(c.Request.Context(), req.Text, activityCodes(activities))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSuggestTextRequired):
			apierrors.RespondWithDomainError(c, apierrors.Validationf("%s", err.Error()))
		case errors.Is(err, services.ErrAINoActivitiesSuggested):
			c.JSON(http.StatusOK, []dto.SuggestedActivityDTO{})
		default:
			apierrors.ServiceUnavailable(c, "Failed to generate suggestions")
		}
		return
	}

	out := make([]dto.SuggestedActivityDTO, len(suggested))
	for i, s := range suggested {
		out[i] = dto.SuggestedActivityDTO{
			ActivityCode:     s.ActivityCode,
			Name:             s.Name,
			DurationDays:     s.DurationDays,
			PredecessorCodes: s.PredecessorCodes,
		}
	}
	c.JSON(http.StatusOK, out)
}

func respondInvalidBody(c *gin.Context, err error) {
	apierrors.RespondWithDomainError(c, apierrors.Validationf("invalid request body: %v", err))
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.RespondWithDomainError(c, apierrors.Validationf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func parseDatePair(start, finish *string) (*time.Time, *time.Time, error) {
	s, err := utils.ParseDate(start)
	if err != nil {
		return nil, nil, apierrors.Validationf("%v", err)
	}
	f, err := utils.ParseDate(finish)
	if err != nil {
		return nil, nil, apierrors.Validationf("%v", err)
	}
	if s != nil && f != nil && f.Before(*s) {
		return nil, nil, apierrors.Validationf("finish date cannot be before start date")
	}
	return s, f, nil
}

func activityCodes(activities []models.Activity) []string {
	codes := make([]string, len(activities))
	for i, a := range activities {
		codes[i] = a.ActivityCode
	}
	return codes
}
