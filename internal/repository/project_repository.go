package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/construction-schedule-api/internal/database"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrCreateProject is returned when creating a project fails inside the create transaction.
	ErrCreateProject = errors.New("project repository: create project failed")
	// ErrCreateProjectOwner is returned when creating the owner membership fails inside the create transaction.
	ErrCreateProjectOwner = errors.New("project repository: create owner membership failed")
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithOwner creates a project and the owner membership atomically.
func (r *GormProjectRepository) CreateWithOwner(project *models.Project, ownerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProject, err)
		}

		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      models.RoleOwner,
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProjectOwner, err)
		}

		return nil
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByInviteCode finds a project by invite code
func (r *GormProjectRepository) FindByInviteCode(code string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("invite_code = ?", code).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit("Members", "Activities", "Milestones").Save(project).Error
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		activityIDs := tx.Model(&models.Activity{}).Select("id").Where("project_id = ?", id)

		// Dependencies only ever connect activities of the same project
		if err := tx.Where("activity_id IN (?)", activityIDs).Delete(&models.ActivityDependency{}).Error; err != nil {
			return err
		}

		if err := tx.Scopes(database.ForProject(id)).Delete(&models.Activity{}).Error; err != nil {
			return err
		}

		if err := tx.Scopes(database.ForProject(id)).Delete(&models.Milestone{}).Error; err != nil {
			return err
		}

		if err := tx.Scopes(database.ForProject(id)).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists a page of the projects a user is a member of,
// most recently joined first
func (r *GormProjectRepository) ListMembersByUserID(userID uint64, params utils.PaginationParams) ([]models.ProjectMember, int64, error) {
	query := r.db.Model(&models.ProjectMember{}).
		Joins("JOIN projects ON projects.id = project_members.project_id AND projects.deleted_at IS NULL").
		Where("project_members.user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var memberships []models.ProjectMember
	if err := query.Scopes(database.Paginate(params)).
		Preload("Project").
		Order("project_members.joined_at DESC, project_members.project_id DESC").
		Find(&memberships).Error; err != nil {
		return nil, 0, err
	}
	return memberships, total, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Scopes(database.ForProject(projectID)).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
