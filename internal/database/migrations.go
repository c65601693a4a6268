package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type tableIndex struct {
	table   string
	name    string
	columns string
}

// scheduleIndexes are the lookups the schedule and project screens depend on
var scheduleIndexes = []tableIndex{
	// Activity list order within a project
	{"activities", "idx_activities_project_sort", "project_id, sort_order, id"},
	{"activities", "idx_activities_project_critical", "project_id, is_critical"},

	// Project membership lookups
	{"project_members", "idx_project_members_user_id", "user_id"},

	// Milestone list order within a project
	{"milestones", "idx_milestones_project_target", "project_id, target_date"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range scheduleIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Printf("Index %s already exists, skipping", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}

// MigrateDatabase runs the steps that follow AutoMigrate
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
