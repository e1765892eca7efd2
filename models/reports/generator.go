package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"gorm.io/datatypes"
)

// Result is what one generation run returns to its caller.
type Result struct {
	Report   *models.WeeklyReport
	Insights []models.ReportInsight
	Metrics  Metrics
	Created  bool
	Warnings []string
}

// Generator runs collect, score, rules and persist for one household and week.
type Generator struct {
	Collector *Collector
	Persister *Persister
	Policy    Policy
	Now       func() time.Time
}

func NewGenerator(collector *Collector, persister *Persister, policy Policy) *Generator {
	return &Generator{
		Collector: collector,
		Persister: persister,
		Policy:    policy,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate computes and stores the report for the week starting at weekStart.
// A zero weekStart means the Monday of the current week.
func (g *Generator) Generate(ctx context.Context, householdId string, weekStart time.Time) (*Result, error) {
	householdId = strings.TrimSpace(householdId)
	if householdId == "" {
		return nil, errors.New("household id is required")
	}
	now := g.Now()
	if weekStart.IsZero() {
		weekStart = utils.StartOfWeek(now)
	}
	weekStart = utils.DateOnly(weekStart)
	weekEnd := utils.WeekEnd(weekStart)

	metrics, err := g.Collector.Collect(ctx, householdId, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	metrics = ApplyScores(metrics, g.Policy)
	insights := EvaluateInsights(metrics)

	report := BuildReport(householdId, weekStart, metrics, now)
	saved, err := g.Persister.Save(ctx, report, insights)
	if err != nil {
		return nil, err
	}

	return &Result{
		Report:   saved.Report,
		Insights: insights,
		Metrics:  metrics,
		Created:  saved.Created,
		Warnings: saved.Warnings,
	}, nil
}

// BuildReport maps a metrics vector onto a report row.
func BuildReport(householdId string, weekStart time.Time, m Metrics, generatedAt time.Time) *models.WeeklyReport {
	return &models.WeeklyReport{
		HouseholdId:   householdId,
		WeekStartDate: weekStart,
		WeekEndDate:   utils.WeekEnd(weekStart),

		MealsPlanned:           m.MealsPlanned,
		MealsCompleted:         m.MealsCompleted,
		PlanningCompletionRate: m.PlanningCompletionRate,
		TemplateUses:           m.TemplateUses,
		TimeSavedMinutes:       m.TimeSavedMinutes,

		AvgDailyCalories:    m.AvgDailyCalories,
		AvgDailyProtein:     m.AvgDailyProtein,
		AvgDailyCarbs:       m.AvgDailyCarbs,
		AvgDailyFat:         m.AvgDailyFat,
		NutritionScore:      m.NutritionScore,
		NutritionGoalsMet:   m.NutritionGoalsMet,
		NutritionGoalsTotal: m.NutritionGoalsTotal,

		GroceryItemsAdded:     m.GroceryItemsAdded,
		GroceryItemsPurchased: m.GroceryItemsPurchased,
		GroceryCompletionRate: m.GroceryCompletionRate,
		EstimatedGroceryCost:  m.EstimatedGroceryCost,

		UniqueRecipesUsed:    m.UniqueRecipesUsed,
		RecipeRepeats:        m.RecipeRepeats,
		NewRecipesTried:      m.NewRecipesTried,
		RecipeDiversityScore: m.RecipeDiversityScore,
		MostUsedRecipes:      datatypes.NewJSONType(nonNilMeals(m.MostUsedRecipes)),

		KidsVoting:              m.KidsVoting,
		VotingParticipationRate: m.VotingParticipationRate,
		TotalVotesCast:          m.TotalVotesCast,
		AvgMealApprovalScore:    m.AvgMealApprovalScore,
		AchievementsUnlocked:    m.AchievementsUnlocked,
		MostLovedMeals:          datatypes.NewJSONType(nonNilMeals(m.MostLovedMeals)),
		LeastLovedMeals:         datatypes.NewJSONType(nonNilMeals(m.LeastLovedMeals)),

		Status:      models.ReportStatusGenerated,
		GeneratedAt: generatedAt,
	}
}

func nonNilMeals(meals []models.TopMeal) []models.TopMeal {
	if meals == nil {
		return []models.TopMeal{}
	}
	return meals
}
