package models

import "time"

// ActivityDependency is a finish-to-start edge: PredecessorID must finish
// before ActivityID starts.
type ActivityDependency struct {
	ActivityID    uint64    `gorm:"primarykey" json:"activity_id"`
	PredecessorID uint64    `gorm:"primarykey;index" json:"predecessor_id"`
	CreatedAt     time.Time `json:"created_at"`
}
