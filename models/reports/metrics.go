package reports

import (
	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/shopspring/decimal"
)

// Metrics is the flat vector computed for one household and week.
// Rate fields are 0 whenever their denominator is 0.
type Metrics struct {
	// planning
	MealsPlanned           int     `json:"meals_planned"`
	MealsCompleted         int     `json:"meals_completed"`
	PlanningCompletionRate float64 `json:"planning_completion_rate"`
	TemplateUses           int     `json:"template_uses"`
	TimeSavedMinutes       int     `json:"time_saved_minutes"`

	// nutrition
	AvgDailyCalories    float64 `json:"avg_daily_calories"`
	AvgDailyProtein     float64 `json:"avg_daily_protein"`
	AvgDailyCarbs       float64 `json:"avg_daily_carbs"`
	AvgDailyFat         float64 `json:"avg_daily_fat"`
	NutritionScore      float64 `json:"nutrition_score"`
	NutritionGoalsMet   int     `json:"nutrition_goals_met"`
	NutritionGoalsTotal int     `json:"nutrition_goals_total"`

	// grocery
	GroceryItemsAdded     int             `json:"grocery_items_added"`
	GroceryItemsPurchased int             `json:"grocery_items_purchased"`
	GroceryCompletionRate float64         `json:"grocery_completion_rate"`
	EstimatedGroceryCost  decimal.Decimal `json:"estimated_grocery_cost"`

	// recipes
	UniqueRecipesUsed    int              `json:"unique_recipes_used"`
	RecipeRepeats        int              `json:"recipe_repeats"`
	NewRecipesTried      int              `json:"new_recipes_tried"`
	RecipeDiversityScore float64          `json:"recipe_diversity_score"`
	MostUsedRecipes      []models.TopMeal `json:"most_used_recipes"`

	// child engagement
	KidsVoting              int              `json:"kids_voting"`
	VotingParticipationRate float64          `json:"voting_participation_rate"`
	TotalVotesCast          int              `json:"total_votes_cast"`
	AvgMealApprovalScore    float64          `json:"avg_meal_approval_score"`
	AchievementsUnlocked    int              `json:"achievements_unlocked"`
	MostLovedMeals          []models.TopMeal `json:"most_loved_meals"`
	LeastLovedMeals         []models.TopMeal `json:"least_loved_meals"`
}
