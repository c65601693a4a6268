package repository

import (
	"github.com/yukikurage/construction-schedule-api/internal/database"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"gorm.io/gorm"
)

// GormMilestoneRepository is a GORM implementation of MilestoneRepository
type GormMilestoneRepository struct {
	db *gorm.DB
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &GormMilestoneRepository{db: db}
}

// Create creates a new milestone
func (r *GormMilestoneRepository) Create(milestone *models.Milestone) error {
	return r.db.Create(milestone).Error
}

// FindByID finds a milestone of a project
func (r *GormMilestoneRepository) FindByID(projectID, id uint64) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := r.db.Scopes(database.ForProject(projectID)).First(&milestone, id).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

// List lists a project's milestones, undated ones last
func (r *GormMilestoneRepository) List(projectID uint64) ([]models.Milestone, error) {
	var milestones []models.Milestone
	if err := r.db.Scopes(database.ForProject(projectID)).
		Order("CASE WHEN target_date IS NULL THEN 1 ELSE 0 END, target_date ASC, id ASC").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// Update updates a milestone
func (r *GormMilestoneRepository) Update(milestone *models.Milestone) error {
	return r.db.Save(milestone).Error
}

// Delete deletes a milestone
func (r *GormMilestoneRepository) Delete(projectID, id uint64) error {
	return r.db.Scopes(database.ForProject(projectID)).Delete(&models.Milestone{}, id).Error
}
