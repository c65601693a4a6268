package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is a construction job. It exclusively owns its activities and
// milestones.
type Project struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`
	Address       string         `gorm:"type:varchar(500)" json:"address"`
	City          string         `gorm:"type:varchar(100)" json:"city"`
	State         string         `gorm:"type:varchar(50)" json:"state"`
	ZipCode       string         `gorm:"type:varchar(20)" json:"zip_code"`
	StartDate     *time.Time     `gorm:"type:date" json:"start_date"`
	TargetEndDate *time.Time     `gorm:"type:date" json:"target_end_date"`
	Status        ProjectStatus  `gorm:"type:varchar(20);not null" json:"status"`
	Notes         string         `gorm:"type:text" json:"notes"`
	InviteCode    string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members    []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Activities []Activity      `gorm:"foreignKey:ProjectID" json:"activities,omitempty"`
	Milestones []Milestone     `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
}
