package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TopMeal is one row of a report's top-N lists (most used, most loved, least loved).
type TopMeal struct {
	RecipeId   string  `json:"recipe_id"`
	RecipeName string  `json:"recipe_name"`
	Score      float64 `json:"score,omitempty"`
	TimesUsed  int     `json:"times_used,omitempty"`
	TotalVotes int     `json:"total_votes,omitempty"`
}

// WeeklyReport is the stored result of one report run.
//
// Natural key: (household_id, week_start_date). week_end_date is always start + 6 days.
// A recomputation updates the row in place.
type WeeklyReport struct {
	ID            int       `gorm:"primary_key" json:"id"`
	HouseholdId   string    `gorm:"size:64;not null;index:uniq_weekly_report,unique,priority:1" json:"household_id"`
	WeekStartDate time.Time `gorm:"type:date;not null;index:uniq_weekly_report,unique,priority:2" json:"week_start_date"`
	WeekEndDate   time.Time `gorm:"type:date;not null" json:"week_end_date"`

	// planning
	MealsPlanned           int     `gorm:"not null;default:0" json:"meals_planned"`
	MealsCompleted         int     `gorm:"not null;default:0" json:"meals_completed"`
	PlanningCompletionRate float64 `gorm:"not null;default:0" json:"planning_completion_rate"`
	TemplateUses           int     `gorm:"not null;default:0" json:"template_uses"`
	TimeSavedMinutes       int     `gorm:"not null;default:0" json:"time_saved_minutes"`

	// nutrition
	AvgDailyCalories    float64 `gorm:"not null;default:0" json:"avg_daily_calories"`
	AvgDailyProtein     float64 `gorm:"not null;default:0" json:"avg_daily_protein"`
	AvgDailyCarbs       float64 `gorm:"not null;default:0" json:"avg_daily_carbs"`
	AvgDailyFat         float64 `gorm:"not null;default:0" json:"avg_daily_fat"`
	NutritionScore      float64 `gorm:"not null;default:0" json:"nutrition_score"`
	NutritionGoalsMet   int     `gorm:"not null;default:0" json:"nutrition_goals_met"`
	NutritionGoalsTotal int     `gorm:"not null;default:0" json:"nutrition_goals_total"`

	// grocery
	GroceryItemsAdded     int             `gorm:"not null;default:0" json:"grocery_items_added"`
	GroceryItemsPurchased int             `gorm:"not null;default:0" json:"grocery_items_purchased"`
	GroceryCompletionRate float64         `gorm:"not null;default:0" json:"grocery_completion_rate"`
	EstimatedGroceryCost  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"estimated_grocery_cost"`

	// recipes
	UniqueRecipesUsed    int                           `gorm:"not null;default:0" json:"unique_recipes_used"`
	RecipeRepeats        int                           `gorm:"not null;default:0" json:"recipe_repeats"`
	NewRecipesTried      int                           `gorm:"not null;default:0" json:"new_recipes_tried"`
	RecipeDiversityScore float64                       `gorm:"not null;default:0" json:"recipe_diversity_score"`
	MostUsedRecipes      datatypes.JSONType[[]TopMeal] `json:"most_used_recipes"`

	// child engagement
	KidsVoting              int                           `gorm:"not null;default:0" json:"kids_voting"`
	VotingParticipationRate float64                       `gorm:"not null;default:0" json:"voting_participation_rate"`
	TotalVotesCast          int                           `gorm:"not null;default:0" json:"total_votes_cast"`
	AvgMealApprovalScore    float64                       `gorm:"not null;default:0" json:"avg_meal_approval_score"`
	AchievementsUnlocked    int                           `gorm:"not null;default:0" json:"achievements_unlocked"`
	MostLovedMeals          datatypes.JSONType[[]TopMeal] `json:"most_loved_meals"`
	LeastLovedMeals         datatypes.JSONType[[]TopMeal] `json:"least_loved_meals"`

	Status      ReportStatus `gorm:"type:enum('generated');default:'generated';size:20;not null" json:"status"`
	GeneratedAt time.Time    `gorm:"not null" json:"generated_at"`
	ViewedAt    *time.Time   `json:"viewed_at"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Insights []ReportInsight `gorm:"foreignKey:ReportId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"insights,omitempty"`
}

// reportRecomputeColumns are overwritten when an existing report is recomputed.
// id, created_at and viewed_at survive a recomputation.
var reportRecomputeColumns = []string{
	"week_end_date",
	"meals_planned", "meals_completed", "planning_completion_rate", "template_uses", "time_saved_minutes",
	"avg_daily_calories", "avg_daily_protein", "avg_daily_carbs", "avg_daily_fat",
	"nutrition_score", "nutrition_goals_met", "nutrition_goals_total",
	"grocery_items_added", "grocery_items_purchased", "grocery_completion_rate", "estimated_grocery_cost",
	"unique_recipes_used", "recipe_repeats", "new_recipes_tried", "recipe_diversity_score", "most_used_recipes",
	"kids_voting", "voting_participation_rate", "total_votes_cast", "avg_meal_approval_score",
	"achievements_unlocked", "most_loved_meals", "least_loved_meals",
	"status", "generated_at", "updated_at",
}

// TrendValue returns the report's value for a tracked trend metric.
func (r *WeeklyReport) TrendValue(metric TrendMetric) float64 {
	switch metric {
	case TrendMetricMealsPlanned:
		return float64(r.MealsPlanned)
	case TrendMetricPlanningCompletionRate:
		return r.PlanningCompletionRate
	case TrendMetricNutritionScore:
		return r.NutritionScore
	case TrendMetricVotingParticipationRate:
		return r.VotingParticipationRate
	case TrendMetricAvgApprovalScore:
		return r.AvgMealApprovalScore
	case TrendMetricDiversityScore:
		return r.RecipeDiversityScore
	case TrendMetricGroceryCompletionRate:
		return r.GroceryCompletionRate
	}
	return 0
}
