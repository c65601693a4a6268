package models

import "time"

type MilestoneStatus string

const (
	MilestoneStatusUpcoming MilestoneStatus = "upcoming"
	MilestoneStatusAchieved MilestoneStatus = "achieved"
	MilestoneStatusMissed   MilestoneStatus = "missed"
)

// Valid reports whether s is a known milestone status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusUpcoming, MilestoneStatusAchieved, MilestoneStatusMissed:
		return true
	}
	return false
}

// Milestone is a dated checkpoint. It is not part of the CPM network.
type Milestone struct {
	ID         uint64          `gorm:"primarykey" json:"id"`
	ProjectID  uint64          `gorm:"not null;index" json:"project_id"`
	Name       string          `gorm:"type:varchar(200);not null" json:"name"`
	TargetDate *time.Time      `gorm:"type:date" json:"target_date"`
	ActualDate *time.Time      `gorm:"type:date" json:"actual_date"`
	Status     MilestoneStatus `gorm:"type:varchar(20);not null" json:"status"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
