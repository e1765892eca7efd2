package models

import "time"

// MealPlanEntry is a scheduled meal on a date/slot, optionally linked to a recipe or a food.
// Owned by the planner; read-only here.
type MealPlanEntry struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	HouseholdId string    `gorm:"size:64;not null;index:idx_mpe_household_date,priority:1" json:"household_id"`
	PlanDate    time.Time `gorm:"type:date;not null;index:idx_mpe_household_date,priority:2" json:"plan_date"`
	MealSlot    MealSlot  `gorm:"size:20;not null" json:"meal_slot"`
	RecipeId    *string   `gorm:"size:64;index" json:"recipe_id"`
	FoodId      *string   `gorm:"size:64;index" json:"food_id"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MealTemplate is a reusable week/day layout; TimesUsed is bumped by the planner on apply.
type MealTemplate struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	HouseholdId string    `gorm:"size:64;not null;index" json:"household_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	TimesUsed   int       `gorm:"not null;default:0" json:"times_used"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Recipe struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	HouseholdId string    `gorm:"size:64;not null;index" json:"household_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FoodNutrition holds per-serving nutrition for a food. Foods are a shared catalog.
type FoodNutrition struct {
	FoodId    string    `gorm:"primaryKey;size:64" json:"food_id"`
	Calories  float64   `gorm:"not null;default:0" json:"calories"`
	ProteinG  float64   `gorm:"not null;default:0" json:"protein_g"`
	CarbsG    float64   `gorm:"not null;default:0" json:"carbs_g"`
	FatG      float64   `gorm:"not null;default:0" json:"fat_g"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FoodNutrition) TableName() string {
	return "food_nutrition"
}
