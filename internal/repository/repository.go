package repository

import (
	"context"

	"github.com/yukikurage/construction-schedule-api/internal/cpm"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
)

// ScheduleRepository defines data access for a project's activity network.
// Mutations are expected to run inside Transaction so that the structural
// change and the derived CPM fields commit together.
type ScheduleRepository interface {
	// Transaction runs fn in a database transaction. The repository passed to
	// fn is bound to that transaction.
	Transaction(ctx context.Context, fn func(tx ScheduleRepository) error) error

	// LockProject loads the project row with an exclusive row lock
	LockProject(projectID uint64) (*models.Project, error)

	// ListActivities lists a project's activities with their dependencies,
	// ordered by sort order then id
	ListActivities(projectID uint64) ([]models.Activity, error)

	// CountActivities counts a project's activities
	CountActivities(projectID uint64) (int64, error)

	// CreateActivity inserts an activity without its dependencies
	CreateActivity(activity *models.Activity) error

	// UpdateActivity saves the user-editable columns of an activity
	UpdateActivity(activity *models.Activity) error

	// ReplacePredecessors replaces the dependency rows of an activity
	ReplacePredecessors(activityID uint64, predecessorIDs []uint64) error

	// AddDependency inserts a single dependency row if it does not exist
	AddDependency(activityID, predecessorID uint64) error

	// DeleteActivity deletes an activity and every dependency row naming it
	DeleteActivity(activityID uint64) error

	// UpdateDerived writes the CPM fields of one activity
	UpdateDerived(activityID uint64, times cpm.Times) error

	// SavePoint creates a named savepoint in the current transaction
	SavePoint(name string) error

	// RollbackTo rolls the current transaction back to a named savepoint
	RollbackTo(name string) error
}

// MilestoneRepository defines the interface for milestone data access
type MilestoneRepository interface {
	// Create creates a new milestone
	Create(milestone *models.Milestone) error

	// FindByID finds a milestone of a project
	FindByID(projectID, id uint64) (*models.Milestone, error)

	// List lists a project's milestones ordered by target date
	List(projectID uint64) ([]models.Milestone, error)

	// Update updates a milestone
	Update(milestone *models.Milestone) error

	// Delete deletes a milestone
	Delete(projectID, id uint64) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithOwner creates a project and its owner membership in a transaction
	CreateWithOwner(project *models.Project, ownerID uint64) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByInviteCode finds a project by invite code
	FindByInviteCode(code string) (*models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and all of its schedule data
	Delete(id uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembersByUserID lists a page of the projects a user belongs to
	ListMembersByUserID(userID uint64, params utils.PaginationParams) ([]models.ProjectMember, int64, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a live user by username
	FindByUsername(username string) (*models.User, error)

	// UsernameTaken reports whether any user, deleted or not, holds the name
	UsernameTaken(username string) (bool, error)
}
