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

// ProjectHandler serves project CRUD and membership endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

type projectRequest struct {
	Name          *string               `json:"name"`
	Address       *string               `json:"address"`
	City          *string               `json:"city"`
	State         *string               `json:"state"`
	ZipCode       *string               `json:"zip_code"`
	StartDate     *string               `json:"start_date"`
	TargetEndDate *string               `json:"target_end_date"`
	Status        *models.ProjectStatus `json:"status"`
	Notes         *string               `json:"notes"`
}

func (r projectRequest) toInput() (services.ProjectInput, error) {
	start, err := utils.ParseDate(r.StartDate)
	if err != nil {
		return services.ProjectInput{}, err
	}
	end, err := utils.ParseDate(r.TargetEndDate)
	if err != nil {
		return services.ProjectInput{}, err
	}

	return services.ProjectInput{
		Name:          r.Name,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		ZipCode:       r.ZipCode,
		StartDate:     start,
		TargetEndDate: end,
		Status:        r.Status,
		Notes:         r.Notes,
	}, nil
}

// CreateProject creates a project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.CreateProject(userID, input)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project, true))
}

// ListProjects returns a page of the current user's projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	memberships, total, err := h.projectService.ListProjectsForUser(userID, params)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(memberships, params.Page, params.Limit, total))
}

// GetProject returns a project with its members
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	member, _ := middleware.GetProjectMember(c)

	loaded, members, err := h.projectService.GetProjectWithMembers(project.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*loaded, members, member.Role))
}

// UpdateProject applies a partial update to a project
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.projectService.UpdateProject(project.ID, input)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*updated, true))
}

// DeleteProject removes a project and its schedule
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	if err := h.projectService.DeleteProject(project.ID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// JoinProject adds the current user to a project via invite code
func (h *ProjectHandler) JoinProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	project, err := h.projectService.JoinProjectByInvite(userID, req.InviteCode)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectWithRoleDTO(models.ProjectMember{
		Project: *project,
		Role:    models.RoleMember,
	}))
}

// RegenerateInviteCode issues a new invite code for a project
func (h *ProjectHandler) RegenerateInviteCode(c *gin.Context) {
	project, _ := middleware.GetProject(c)

	updated, err := h.projectService.RegenerateInviteCode(project.ID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite_code": updated.InviteCode})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrInvalidProjectStatus),
		errors.Is(err, services.ErrInvalidProjectDates):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyProjectMember):
		apierrors.AlreadyExists(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
