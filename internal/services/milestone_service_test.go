package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/repository"
)

func TestMilestoneService(t *testing.T) {
	db := newTestDB(t)
	service := NewMilestoneService(repository.NewMilestoneRepository(db))
	project := newTestProject(t, db, "site")
	other := newTestProject(t, db, "other")

	_, err := service.CreateMilestone(project.ID, MilestoneInput{})
	assert.ErrorIs(t, err, ErrInvalidMilestoneName)

	target := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	milestone, err := service.CreateMilestone(project.ID, MilestoneInput{Name: strPtr("Dried in"), TargetDate: &target})
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusUpcoming, milestone.Status)

	achieved := models.MilestoneStatusAchieved
	updated, err := service.UpdateMilestone(project.ID, milestone.ID, MilestoneInput{Status: &achieved, Notes: strPtr("passed inspection")})
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusAchieved, updated.Status)
	assert.Equal(t, "Dried in", updated.Name)

	invalid := models.MilestoneStatus("late")
	_, err = service.UpdateMilestone(project.ID, milestone.ID, MilestoneInput{Status: &invalid})
	assert.ErrorIs(t, err, ErrInvalidMilestoneStatus)

	_, err = service.UpdateMilestone(other.ID, milestone.ID, MilestoneInput{Name: strPtr("hijack")})
	assert.ErrorIs(t, err, ErrMilestoneNotFound)

	list, err := service.ListMilestones(project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, service.DeleteMilestone(other.ID, milestone.ID), ErrMilestoneNotFound)
	require.NoError(t, service.DeleteMilestone(project.ID, milestone.ID))
	list, err = service.ListMilestones(project.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
