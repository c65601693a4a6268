package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/construction-schedule-api/internal/models"
	"github.com/yukikurage/construction-schedule-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMilestoneNotFound      = errors.New("milestone not found")
	ErrInvalidMilestoneName   = errors.New("milestone name cannot be empty")
	ErrInvalidMilestoneStatus = errors.New("milestone status must be upcoming, achieved or missed")
)

// MilestoneService manages project milestones. Milestones are dated
// checkpoints and take no part in the activity network.
type MilestoneService struct {
	milestoneRepo repository.MilestoneRepository
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(milestoneRepo repository.MilestoneRepository) *MilestoneService {
	return &MilestoneService{
		milestoneRepo: milestoneRepo,
	}
}

// MilestoneInput holds the editable milestone fields. On update, nil fields
// are left unchanged.
type MilestoneInput struct {
	Name       *string
	TargetDate *time.Time
	ActualDate *time.Time
	Status     *models.MilestoneStatus
	Notes      *string
}

// ListMilestones returns a project's milestones.
func (s *MilestoneService) ListMilestones(projectID uint64) ([]models.Milestone, error) {
	milestones, err := s.milestoneRepo.List(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

// CreateMilestone creates a milestone in a project.
func (s *MilestoneService) CreateMilestone(projectID uint64, input MilestoneInput) (*models.Milestone, error) {
	milestone := &models.Milestone{
		ProjectID: projectID,
		Status:    models.MilestoneStatusUpcoming,
	}
	if err := applyMilestoneInput(milestone, input); err != nil {
		return nil, err
	}

	if err := s.milestoneRepo.Create(milestone); err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}
	return milestone, nil
}

// UpdateMilestone applies a partial update to a milestone.
func (s *MilestoneService) UpdateMilestone(projectID, milestoneID uint64, input MilestoneInput) (*models.Milestone, error) {
	milestone, err := s.milestoneRepo.FindByID(projectID, milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("failed to find milestone: %w", err)
	}

	if err := applyMilestoneInput(milestone, input); err != nil {
		return nil, err
	}

	if err := s.milestoneRepo.Update(milestone); err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}
	return milestone, nil
}

// DeleteMilestone removes a milestone.
func (s *MilestoneService) DeleteMilestone(projectID, milestoneID uint64) error {
	if _, err := s.milestoneRepo.FindByID(projectID, milestoneID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMilestoneNotFound
		}
		return fmt.Errorf("failed to find milestone: %w", err)
	}

	if err := s.milestoneRepo.Delete(projectID, milestoneID); err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return nil
}

func applyMilestoneInput(m *models.Milestone, input MilestoneInput) error {
	if input.Name != nil {
		m.Name = strings.TrimSpace(*input.Name)
	}
	if input.TargetDate != nil {
		m.TargetDate = input.TargetDate
	}
	if input.ActualDate != nil {
		m.ActualDate = input.ActualDate
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return ErrInvalidMilestoneStatus
		}
		m.Status = *input.Status
	}
	if input.Notes != nil {
		m.Notes = *input.Notes
	}

	if m.Name == "" {
		return ErrInvalidMilestoneName
	}
	return nil
}
