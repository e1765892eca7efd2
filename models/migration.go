package models

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateTable creates/updates the tables this service owns.
func MigrateTable(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}
	return db.AutoMigrate(
		&WeeklyReport{}, &ReportInsight{}, &ReportTrend{},
	)
}

// MigrateSourceTables creates the planner-owned tables the report reads from.
// Production schemas are managed by the planner; this exists for local dev and integration tests.
func MigrateSourceTables(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}
	return db.AutoMigrate(
		&MealPlanEntry{}, &MealTemplate{}, &Recipe{}, &FoodNutrition{},
		&GroceryItem{},
		&Child{}, &MealVote{}, &ChildAchievement{}, &RecipeVoteSummary{},
	)
}
