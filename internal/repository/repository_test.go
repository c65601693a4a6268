package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/construction-schedule-api/internal/cpm"
	"github.com/yukikurage/construction-schedule-api/internal/database"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RepositoryTestSuite runs the gorm repositories against in-memory SQLite
type RepositoryTestSuite struct {
	suite.Suite
	db *gorm.DB
}

// SetupTest runs before each test
func (suite *RepositoryTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Every connection to :memory: is a separate database
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(database.Models()...))
}

// TearDownTest runs after each test
func (suite *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *RepositoryTestSuite) createProject(name string) *models.Project {
	project := &models.Project{
		Name:       name,
		Status:     models.ProjectStatusActive,
		InviteCode: name + "_CODE",
	}
	suite.Require().NoError(suite.db.Create(project).Error)
	return project
}

func (suite *RepositoryTestSuite) createUser(username string) *models.User {
	user := &models.User{Username: username, PasswordHash: "hashedpassword"}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *RepositoryTestSuite) createActivity(repo ScheduleRepository, projectID uint64, code string, sortOrder int) *models.Activity {
	activity := &models.Activity{
		ProjectID:    projectID,
		ActivityCode: code,
		Name:         "Activity " + code,
		DurationDays: 2,
		Status:       models.ActivityStatusNotStarted,
		SortOrder:    sortOrder,
	}
	suite.Require().NoError(repo.CreateActivity(activity))
	return activity
}

func (suite *RepositoryTestSuite) TestListActivities_OrderAndDependencies() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	other := suite.createProject("other")

	b := suite.createActivity(repo, project.ID, "B", 20)
	a := suite.createActivity(repo, project.ID, "A", 10)
	c := suite.createActivity(repo, project.ID, "C", 20)
	suite.createActivity(repo, other.ID, "X", 0)

	suite.Require().NoError(repo.ReplacePredecessors(c.ID, []uint64{b.ID, a.ID}))

	activities, err := repo.ListActivities(project.ID)
	suite.Require().NoError(err)
	suite.Require().Len(activities, 3)

	suite.Equal([]string{"A", "B", "C"}, []string{activities[0].ActivityCode, activities[1].ActivityCode, activities[2].ActivityCode})
	// ids ascend regardless of the order they were given in
	suite.Equal([]uint64{b.ID, a.ID}, activities[2].PredecessorIDs())
	suite.Empty(activities[0].PredecessorIDs())

	count, err := repo.CountActivities(project.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(3), count)
}

func (suite *RepositoryTestSuite) TestReplacePredecessors_ReplacesAndClears() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	a := suite.createActivity(repo, project.ID, "A", 10)
	b := suite.createActivity(repo, project.ID, "B", 20)
	c := suite.createActivity(repo, project.ID, "C", 30)

	suite.Require().NoError(repo.ReplacePredecessors(c.ID, []uint64{a.ID, b.ID}))
	suite.Require().NoError(repo.ReplacePredecessors(c.ID, []uint64{b.ID}))

	var deps []models.ActivityDependency
	suite.Require().NoError(suite.db.Where("activity_id = ?", c.ID).Find(&deps).Error)
	suite.Require().Len(deps, 1)
	suite.Equal(b.ID, deps[0].PredecessorID)

	suite.Require().NoError(repo.ReplacePredecessors(c.ID, nil))
	var count int64
	suite.db.Model(&models.ActivityDependency{}).Where("activity_id = ?", c.ID).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *RepositoryTestSuite) TestAddDependency_Idempotent() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	a := suite.createActivity(repo, project.ID, "A", 10)
	b := suite.createActivity(repo, project.ID, "B", 20)

	suite.Require().NoError(repo.AddDependency(b.ID, a.ID))
	suite.Require().NoError(repo.AddDependency(b.ID, a.ID))

	var count int64
	suite.db.Model(&models.ActivityDependency{}).Where("activity_id = ?", b.ID).Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *RepositoryTestSuite) TestDeleteActivity_PrunesDependencies() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	a := suite.createActivity(repo, project.ID, "A", 10)
	b := suite.createActivity(repo, project.ID, "B", 20)
	c := suite.createActivity(repo, project.ID, "C", 30)
	suite.Require().NoError(repo.ReplacePredecessors(b.ID, []uint64{a.ID}))
	suite.Require().NoError(repo.ReplacePredecessors(c.ID, []uint64{b.ID}))

	suite.Require().NoError(repo.DeleteActivity(b.ID))

	activities, err := repo.ListActivities(project.ID)
	suite.Require().NoError(err)
	suite.Require().Len(activities, 2)
	for _, activity := range activities {
		suite.Empty(activity.PredecessorIDs(), activity.ActivityCode)
	}
}

func (suite *RepositoryTestSuite) TestUpdateDerived_WritesZeroValues() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	a := suite.createActivity(repo, project.ID, "A", 10)

	suite.Require().NoError(repo.UpdateDerived(a.ID, cpm.Times{EarlyStart: 3, EarlyFinish: 5, LateStart: 4, LateFinish: 6, TotalFloat: 1}))
	suite.Require().NoError(repo.UpdateDerived(a.ID, cpm.Times{EarlyStart: 0, EarlyFinish: 2, LateStart: 0, LateFinish: 2, TotalFloat: 0, IsCritical: true}))

	var stored models.Activity
	suite.Require().NoError(suite.db.First(&stored, a.ID).Error)
	suite.Equal(0, stored.EarlyStart)
	suite.Equal(2, stored.EarlyFinish)
	suite.Equal(0, stored.TotalFloat)
	suite.True(stored.IsCritical)

	suite.Require().NoError(repo.UpdateDerived(a.ID, cpm.Times{EarlyFinish: 2, LateFinish: 2}))
	suite.Require().NoError(suite.db.First(&stored, a.ID).Error)
	suite.False(stored.IsCritical)
}

func (suite *RepositoryTestSuite) TestUpdateActivity_LeavesDerivedFields() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	a := suite.createActivity(repo, project.ID, "A", 10)
	suite.Require().NoError(repo.UpdateDerived(a.ID, cpm.Times{EarlyStart: 7, EarlyFinish: 9, LateStart: 7, LateFinish: 9, IsCritical: true}))

	a.Name = "Renamed"
	a.Notes = ""
	a.PercentComplete = 0
	a.EarlyStart = 0
	suite.Require().NoError(repo.UpdateActivity(a))

	var stored models.Activity
	suite.Require().NoError(suite.db.First(&stored, a.ID).Error)
	suite.Equal("Renamed", stored.Name)
	suite.Equal(7, stored.EarlyStart)
	suite.True(stored.IsCritical)
}

func (suite *RepositoryTestSuite) TestTransaction_SavepointRollback() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	a := suite.createActivity(repo, project.ID, "A", 10)

	err := repo.Transaction(context.Background(), func(tx ScheduleRepository) error {
		if _, err := tx.LockProject(project.ID); err != nil {
			return err
		}
		if err := tx.SavePoint("derived"); err != nil {
			return err
		}
		if err := tx.UpdateDerived(a.ID, cpm.Times{EarlyStart: 99}); err != nil {
			return err
		}
		return tx.RollbackTo("derived")
	})
	suite.Require().NoError(err)

	var stored models.Activity
	suite.Require().NoError(suite.db.First(&stored, a.ID).Error)
	suite.Equal(0, stored.EarlyStart)
}

func (suite *RepositoryTestSuite) TestTransaction_RollsBackOnError() {
	repo := NewScheduleRepository(suite.db)
	project := suite.createProject("site")
	boom := errors.New("boom")

	err := repo.Transaction(context.Background(), func(tx ScheduleRepository) error {
		suite.createActivity(tx, project.ID, "A", 10)
		return boom
	})
	suite.ErrorIs(err, boom)

	count, err := repo.CountActivities(project.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(0), count)
}

func (suite *RepositoryTestSuite) TestLockProject_NotFound() {
	repo := NewScheduleRepository(suite.db)

	_, err := repo.LockProject(404)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *RepositoryTestSuite) TestProjectRepository_CreateListAndDelete() {
	repo := NewProjectRepository(suite.db)
	schedules := NewScheduleRepository(suite.db)
	milestones := NewMilestoneRepository(suite.db)
	owner := suite.createUser("owner")

	var projects []*models.Project
	for _, name := range []string{"first", "second", "third"} {
		project := &models.Project{Name: name, Status: models.ProjectStatusActive, InviteCode: name + "_CODE"}
		suite.Require().NoError(repo.CreateWithOwner(project, owner.ID))
		projects = append(projects, project)
	}

	page, total, err := repo.ListMembersByUserID(owner.ID, utils.PaginationParams{Page: 1, Limit: 2, Offset: 0})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(page, 2)
	suite.Equal("third", page[0].Project.Name)
	suite.Equal(models.RoleOwner, page[0].Role)

	// Deleting a project removes its schedule and milestones
	doomed := projects[0]
	a := suite.createActivity(schedules, doomed.ID, "A", 10)
	b := suite.createActivity(schedules, doomed.ID, "B", 20)
	suite.Require().NoError(schedules.AddDependency(b.ID, a.ID))
	suite.Require().NoError(milestones.Create(&models.Milestone{ProjectID: doomed.ID, Name: "Framing done", Status: models.MilestoneStatusUpcoming}))

	suite.Require().NoError(repo.Delete(doomed.ID))

	_, err = repo.FindByID(doomed.ID)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	var count int64
	suite.db.Model(&models.Activity{}).Where("project_id = ?", doomed.ID).Count(&count)
	suite.Equal(int64(0), count)
	suite.db.Model(&models.ActivityDependency{}).Count(&count)
	suite.Equal(int64(0), count)
	suite.db.Model(&models.Milestone{}).Where("project_id = ?", doomed.ID).Count(&count)
	suite.Equal(int64(0), count)

	_, total, err = repo.ListMembersByUserID(owner.ID, utils.PaginationParams{Page: 1, Limit: 10})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
}

func (suite *RepositoryTestSuite) TestMilestoneRepository_ScopedToProject() {
	repo := NewMilestoneRepository(suite.db)
	project := suite.createProject("site")
	other := suite.createProject("other")

	later := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, m := range []*models.Milestone{
		{ProjectID: project.ID, Name: "Undated", Status: models.MilestoneStatusUpcoming},
		{ProjectID: project.ID, Name: "Later", TargetDate: &later, Status: models.MilestoneStatusUpcoming},
		{ProjectID: project.ID, Name: "Sooner", TargetDate: &sooner, Status: models.MilestoneStatusUpcoming},
		{ProjectID: other.ID, Name: "Elsewhere", Status: models.MilestoneStatusUpcoming},
	} {
		suite.Require().NoError(repo.Create(m))
	}

	list, err := repo.List(project.ID)
	suite.Require().NoError(err)
	suite.Require().Len(list, 3)
	suite.Equal([]string{"Sooner", "Later", "Undated"}, []string{list[0].Name, list[1].Name, list[2].Name})

	elsewhere, err := repo.List(other.ID)
	suite.Require().NoError(err)
	_, err = repo.FindByID(project.ID, elsewhere[0].ID)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

// TestRepositoryTestSuite runs the test suite
func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
