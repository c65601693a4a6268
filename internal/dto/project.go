package dto

import (
	"time"

	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID            uint64               `json:"id"`
	Name          string               `json:"name"`
	Address       string               `json:"address"`
	City          string               `json:"city"`
	State         string               `json:"state"`
	ZipCode       string               `json:"zip_code"`
	StartDate     *time.Time           `json:"start_date"`
	TargetEndDate *time.Time           `json:"target_end_date"`
	Status        models.ProjectStatus `json:"status"`
	Notes         string               `json:"notes"`
	InviteCode    string               `json:"invite_code,omitempty"`
}

// ProjectWithRoleDTO represents a project with the user's role
type ProjectWithRoleDTO struct {
	ProjectDTO
	Role models.ProjectRole `json:"role"`
}

// ProjectMemberDTO represents a member of a project
type ProjectMemberDTO struct {
	User     UserDTO            `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectDetailDTO represents detailed project information
type ProjectDetailDTO struct {
	ProjectDTO
	Members  []ProjectMemberDTO `json:"members"`
	YourRole models.ProjectRole `json:"your_role"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectWithRoleDTO `json:"projects"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int64                `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(p models.Project, includeInviteCode bool) ProjectDTO {
	dto := ProjectDTO{
		ID:            p.ID,
		Name:          p.Name,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		ZipCode:       p.ZipCode,
		StartDate:     p.StartDate,
		TargetEndDate: p.TargetEndDate,
		Status:        p.Status,
		Notes:         p.Notes,
	}
	if includeInviteCode {
		dto.InviteCode = p.InviteCode
	}
	return dto
}

// ToProjectWithRoleDTO converts a membership with its preloaded project
func ToProjectWithRoleDTO(member models.ProjectMember) ProjectWithRoleDTO {
	return ProjectWithRoleDTO{
		ProjectDTO: ToProjectDTO(member.Project, false),
		Role:       member.Role,
	}
}

// ToProjectDetailDTO converts a project with members to the detailed DTO
func ToProjectDetailDTO(p models.Project, members []models.ProjectMember, yourRole models.ProjectRole) ProjectDetailDTO {
	memberDTOs := make([]ProjectMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = ProjectMemberDTO{
			User:     ToUserDTO(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(p, yourRole == models.RoleOwner),
		Members:    memberDTOs,
		YourRole:   yourRole,
	}
}

// ToProjectListResponse converts memberships to a paginated response
func ToProjectListResponse(members []models.ProjectMember, page, pageSize int, totalCount int64) ProjectListResponse {
	items := make([]ProjectWithRoleDTO, len(members))
	for i, m := range members {
		items[i] = ToProjectWithRoleDTO(m)
	}

	return ProjectListResponse{
		Projects:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: utils.TotalPages(totalCount, pageSize),
	}
}
