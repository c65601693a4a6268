package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/repository"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound            = errors.New("project not found")
	ErrInvalidProjectName         = errors.New("project name cannot be empty")
	ErrInvalidProjectStatus       = errors.New("project status must be active, on_hold or completed")
	ErrInvalidProjectDates        = errors.New("target end date cannot be before start date")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = errors.New("invalid invite code")
	ErrAlreadyProjectMember       = errors.New("user is already a member of this project")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
	}
}

// ProjectInput holds the editable project fields. On update, nil fields are
// left unchanged.
type ProjectInput struct {
	Name          *string
	Address       *string
	City          *string
	State         *string
	ZipCode       *string
	StartDate     *time.Time
	TargetEndDate *time.Time
	Status        *models.ProjectStatus
	Notes         *string
}

// CreateProject creates a new project owned by ownerID.
func (s *ProjectService) CreateProject(ownerID uint64, input ProjectInput) (*models.Project, error) {
	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	project := &models.Project{
		Status:     models.ProjectStatusActive,
		InviteCode: inviteCode,
	}
	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if project.Name == "" {
		return nil, ErrInvalidProjectName
	}

	if err := s.projectRepo.CreateWithOwner(project, ownerID); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjectsForUser returns a page of the projects the user belongs to.
func (s *ProjectService) ListProjectsForUser(userID uint64, params utils.PaginationParams) ([]models.ProjectMember, int64, error) {
	memberships, total, err := s.projectRepo.ListMembersByUserID(userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return memberships, total, nil
}

// GetProjectWithMembers returns a project and all of its members.
func (s *ProjectService) GetProjectWithMembers(projectID uint64) (*models.Project, []models.ProjectMember, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return project, members, nil
}

// UpdateProject applies a partial update to a project.
func (s *ProjectService) UpdateProject(projectID uint64, input ProjectInput) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if err := applyProjectInput(project, input); err != nil {
		return nil, err
	}
	if project.Name == "" {
		return nil, ErrInvalidProjectName
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project with its schedule and milestones.
func (s *ProjectService) DeleteProject(projectID uint64) error {
	if _, err := s.findProject(projectID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// JoinProjectByInvite adds a user to a project via invite code.
func (s *ProjectService) JoinProjectByInvite(userID uint64, inviteCode string) (*models.Project, error) {
	project, err := s.projectRepo.FindByInviteCode(utils.NormalizeInviteCode(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find project by invite code: %w", err)
	}

	if _, err := s.projectRepo.FindMember(project.ID, userID); err == nil {
		return nil, ErrAlreadyProjectMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    userID,
		Role:      models.RoleMember,
		JoinedAt:  time.Now(),
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to project: %w", err)
	}

	return project, nil
}

// RegenerateInviteCode generates a new invite code for the project.
func (s *ProjectService) RegenerateInviteCode(projectID uint64) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	project.InviteCode = code
	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return project, nil
}

func (s *ProjectService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func applyProjectInput(p *models.Project, input ProjectInput) error {
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		p.Address = *input.Address
	}
	if input.City != nil {
		p.City = *input.City
	}
	if input.State != nil {
		p.State = *input.State
	}
	if input.ZipCode != nil {
		p.ZipCode = *input.ZipCode
	}
	if input.StartDate != nil {
		p.StartDate = input.StartDate
	}
	if input.TargetEndDate != nil {
		p.TargetEndDate = input.TargetEndDate
	}
	if input.Status != nil {
		switch *input.Status {
		case models.ProjectStatusActive, models.ProjectStatusOnHold, models.ProjectStatusCompleted:
			p.Status = *input.Status
		default:
			return ErrInvalidProjectStatus
		}
	}
	if input.Notes != nil {
		p.Notes = *input.Notes
	}

	if p.StartDate != nil && p.TargetEndDate != nil && p.TargetEndDate.Before(*p.StartDate) {
		return ErrInvalidProjectDates
	}
	return nil
}
