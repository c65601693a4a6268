package repository

import (
	"context"

	"github.com/yukikurage/construction-schedule-api/internal/cpm"
	"github.com/yukikurage/construction-schedule-api/internal/database"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activityEditableColumns are the columns UpdateActivity writes. The CPM
// columns are owned by UpdateDerived.
var activityEditableColumns = []string{
	"activity_code", "name", "duration_days", "status", "percent_complete",
	"planned_start", "planned_finish", "actual_start", "actual_finish",
	"assigned_to", "notes", "sort_order", "updated_at",
}

// GormScheduleRepository is a GORM implementation of ScheduleRepository
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// Transaction runs fn inside a database transaction
func (r *GormScheduleRepository) Transaction(ctx context.Context, fn func(tx ScheduleRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormScheduleRepository{db: tx})
	})
}

// LockProject loads the project row with SELECT ... FOR UPDATE. Dialects
// without row locks (sqlite) ignore the clause.
func (r *GormScheduleRepository) LockProject(projectID uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListActivities lists a project's activities with their dependencies
func (r *GormScheduleRepository) ListActivities(projectID uint64) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.
		Preload("Dependencies", func(db *gorm.DB) *gorm.DB {
			return db.Order("predecessor_id ASC")
		}).
		Scopes(database.ForProject(projectID)).
		Order("sort_order ASC, id ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// CountActivities counts a project's activities
func (r *GormScheduleRepository) CountActivities(projectID uint64) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Activity{}).Scopes(database.ForProject(projectID)).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateActivity inserts an activity without its dependencies
func (r *GormScheduleRepository) CreateActivity(activity *models.Activity) error {
	return r.db.Omit(clause.Associations).Create(activity).Error
}

// UpdateActivity saves the user-editable columns of an activity, zero values included
func (r *GormScheduleRepository) UpdateActivity(activity *models.Activity) error {
	return r.db.Model(activity).
		Select(activityEditableColumns).
		Omit(clause.Associations).
		Updates(activity).Error
}

// ReplacePredecessors replaces the dependency rows of an activity
func (r *GormScheduleRepository) ReplacePredecessors(activityID uint64, predecessorIDs []uint64) error {
	if err := r.db.Where("activity_id = ?", activityID).Delete(&models.ActivityDependency{}).Error; err != nil {
		return err
	}
	if len(predecessorIDs) == 0 {
		return nil
	}

	deps := make([]models.ActivityDependency, len(predecessorIDs))
	for i, p := range predecessorIDs {
		deps[i] = models.ActivityDependency{ActivityID: activityID, PredecessorID: p}
	}
	return r.db.Create(&deps).Error
}

// AddDependency inserts a single dependency row; an existing row is left as is
func (r *GormScheduleRepository) AddDependency(activityID, predecessorID uint64) error {
	dep := models.ActivityDependency{ActivityID: activityID, PredecessorID: predecessorID}
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "predecessor_id"}},
			DoNothing: true,
		}).
		Create(&dep).Error
}

// DeleteActivity deletes an activity and strips it from every predecessor set
func (r *GormScheduleRepository) DeleteActivity(activityID uint64) error {
	if err := r.db.Where("activity_id = ? OR predecessor_id = ?", activityID, activityID).
		Delete(&models.ActivityDependency{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Activity{}, activityID).Error
}

// UpdateDerived writes the CPM fields of one activity
func (r *GormScheduleRepository) UpdateDerived(activityID uint64, times cpm.Times) error {
	return r.db.Model(&models.Activity{}).
		Where("id = ?", activityID).
		Updates(map[string]interface{}{
			"early_start":  times.EarlyStart,
			"early_finish": times.EarlyFinish,
			"late_start":   times.LateStart,
			"late_finish":  times.LateFinish,
			"total_float":  times.TotalFloat,
			"is_critical":  times.IsCritical,
		}).Error
}

// SavePoint creates a named savepoint
func (r *GormScheduleRepository) SavePoint(name string) error {
	return r.db.SavePoint(name).Error
}

// RollbackTo rolls back to a named savepoint
func (r *GormScheduleRepository) RollbackTo(name string) error {
	return r.db.RollbackTo(name).Error
}
