package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-schedule-api/internal/dto"
	apierrors "github.com/yukikurage/construction-schedule-api/internal/errors"
	"github.com/yukikurage/construction-schedule-api/internal/middleware"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/services"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
)

type MilestoneHandler struct {
	milestoneService *services.MilestoneService
}

func NewMilestoneHandler(milestoneService *services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneService: milestoneService,
	}
}

type milestoneRequest struct {
	Name       *string                 `json:"name"`
	TargetDate *string                 `json:"target_date"`
	ActualDate *string                 `json:"actual_date"`
	Status     *models.MilestoneStatus `json:"status"`
	Notes      *string                 `json:"notes"`
}

func (r milestoneRequest) toInput() (services.MilestoneInput, error) {
	target, err := utils.ParseDate(r.TargetDate)
	if err != nil {
		return services.MilestoneInput{}, err
	}
	actual, err := utils.ParseDate(r.ActualDate)
	if err != nil {
		return services.MilestoneInput{}, err
	}

	return services.MilestoneInput{
		Name:       r.Name,
		TargetDate: target,
		ActualDate: actual,
		Status:     r.Status,
		Notes:      r.Notes,
	}, nil
}

func (h *MilestoneHandler) ListMilestones(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	milestones, err := h.milestoneService.ListMilestones(project.ID)
	if err != nil {
		respondMilestoneError(c, err)
		return
	}

	out := make([]dto.MilestoneDTO, len(milestones))
	for i, m := range milestones {
		out[i] = dto.ToMilestoneDTO(m)
	}
	c.JSON(http.StatusOK, out)
}

func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestoneService.CreateMilestone(project.ID, input)
	if err != nil {
		respondMilestoneError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMilestoneDTO(*milestone))
}

func (h *MilestoneHandler) UpdateMilestone(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	milestoneID, ok := parseIDParam(c, "milestoneId")
	if !ok {
		return
	}

	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestoneService.UpdateMilestone(project.ID, milestoneID, input)
	if err != nil {
		respondMilestoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMilestoneDTO(*milestone))
}

func (h *MilestoneHandler) DeleteMilestone(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	milestoneID, ok := parseIDParam(c, "milestoneId")
	if !ok {
		return
	}

	if err := h.milestoneService.DeleteMilestone(project.ID, milestoneID); err != nil {
		respondMilestoneError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Milestone deleted successfully"})
}

func respondMilestoneError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMilestoneNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidMilestoneName),
		errors.Is(err, services.ErrInvalidMilestoneStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
