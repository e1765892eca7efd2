package reports

import (
	"fmt"
	"math"

	"github.com/mmdatafocus/mealplan_backend/models"
)

// StartingPriority is the priority of the first emitted insight; each further insight gets one less.
const StartingPriority = 100

const (
	perfectWeekMinMeals      = 21
	perfectWeekMinCompletion = 95.0
	highParticipationRate    = 80.0
	highApprovalScore        = 75.0
	lowApprovalScore         = 50.0
	lowApprovalMinVotes      = 5
	newRecipesMin            = 3
	highDiversityScore       = 70.0
	lowDiversityScore        = 40.0
	highNutritionScore       = 85.0
	highGroceryCompletion    = 90.0
)

// ruleBranch pairs a predicate with the insight it produces.
type ruleBranch struct {
	when  func(m *Metrics) bool
	build func(m *Metrics) models.ReportInsight
}

// insightRule is one slot of the rule list. Its branches are mutually exclusive:
// the first one whose predicate holds emits, the rest are skipped.
type insightRule struct {
	name     string
	branches []ruleBranch
}

// insightRules is evaluated in order; the order decides priorities.
var insightRules = []insightRule{
	{name: "perfect_week", branches: []ruleBranch{{
		when: func(m *Metrics) bool {
			return m.MealsPlanned >= perfectWeekMinMeals && m.PlanningCompletionRate >= perfectWeekMinCompletion
		},
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeAchievement, "Perfect Week!",
				fmt.Sprintf("You planned %d meals and completed %s of them. Amazing consistency!", m.MealsPlanned, percent(m.PlanningCompletionRate)),
				"trophy", models.ColorSchemeGreen, m.PlanningCompletionRate, "completion rate")
		},
	}}},
	{name: "time_saved", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.TimeSavedMinutes > 0 },
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeEfficiencyWin, "Time Saved with Templates",
				fmt.Sprintf("Meal templates saved you about %d minutes (%.1f hours) of planning.", m.TimeSavedMinutes, float64(m.TimeSavedMinutes)/60),
				"clock", models.ColorSchemeBlue, float64(m.TimeSavedMinutes), "minutes saved")
		},
	}}},
	{name: "voting_participation", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.VotingParticipationRate >= highParticipationRate },
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeEngagementWin, "Great Family Participation",
				fmt.Sprintf("%s of your kids voted on meals this week.", percent(m.VotingParticipationRate)),
				"users", models.ColorSchemePurple, m.VotingParticipationRate, "participation")
		},
	}}},
	{name: "meal_approval", branches: []ruleBranch{
		{
			when: func(m *Metrics) bool { return m.AvgMealApprovalScore >= highApprovalScore },
			build: func(m *Metrics) models.ReportInsight {
				return newInsight(models.InsightTypeEngagementWin, "Meals Were a Hit",
					fmt.Sprintf("Your family gave this week's meals an average approval of %s.", percent(m.AvgMealApprovalScore)),
					"heart", models.ColorSchemeGreen, m.AvgMealApprovalScore, "approval")
			},
		},
		{
			when: func(m *Metrics) bool {
				return m.AvgMealApprovalScore < lowApprovalScore && m.TotalVotesCast > lowApprovalMinVotes
			},
			build: func(m *Metrics) models.ReportInsight {
				return newInsight(models.InsightTypeConcern, "Low Meal Approval",
					fmt.Sprintf("Average approval was %s across %d votes. Try mixing in a few family favorites next week.", percent(m.AvgMealApprovalScore), m.TotalVotesCast),
					"alert-triangle", models.ColorSchemeRed, m.AvgMealApprovalScore, "approval")
			},
		},
	}},
	{name: "new_recipes", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.NewRecipesTried >= newRecipesMin },
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeVarietyWin, "Adventurous Eaters",
				fmt.Sprintf("You tried %d new recipes this week.", m.NewRecipesTried),
				"sparkles", models.ColorSchemePurple, float64(m.NewRecipesTried), "new recipes")
		},
	}}},
	{name: "recipe_diversity", branches: []ruleBranch{
		{
			when: func(m *Metrics) bool { return m.RecipeDiversityScore >= highDiversityScore },
			build: func(m *Metrics) models.ReportInsight {
				return newInsight(models.InsightTypeVarietyWin, "Great Variety",
					fmt.Sprintf("Your menu had a diversity score of %s with %d different recipes.", percent(m.RecipeDiversityScore), m.UniqueRecipesUsed),
					"shuffle", models.ColorSchemeGreen, m.RecipeDiversityScore, "diversity")
			},
		},
		{
			when: func(m *Metrics) bool { return m.RecipeDiversityScore < lowDiversityScore },
			build: func(m *Metrics) models.ReportInsight {
				return newInsight(models.InsightTypeSuggestion, "Mix Things Up",
					fmt.Sprintf("Recipe diversity was %s this week. Adding a couple of new recipes keeps meals interesting.", percent(m.RecipeDiversityScore)),
					"lightbulb", models.ColorSchemeYellow, m.RecipeDiversityScore, "diversity")
			},
		},
	}},
	{name: "nutrition", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.NutritionScore >= highNutritionScore },
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeNutritionWin, "Balanced Nutrition",
				fmt.Sprintf("Your meals scored %d/100 on macro balance.", int(math.Round(m.NutritionScore))),
				"apple", models.ColorSchemeGreen, m.NutritionScore, "nutrition score")
		},
	}}},
	{name: "grocery_completion", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.GroceryCompletionRate >= highGroceryCompletion },
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeEfficiencyWin, "Grocery Pro",
				fmt.Sprintf("You checked off %s of your grocery list (%d of %d items).", percent(m.GroceryCompletionRate), m.GroceryItemsPurchased, m.GroceryItemsAdded),
				"shopping-cart", models.ColorSchemeBlue, m.GroceryCompletionRate, "list completed")
		},
	}}},
	{name: "grocery_cost", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.EstimatedGroceryCost.IsPositive() },
		build: func(m *Metrics) models.ReportInsight {
			return newInsight(models.InsightTypeCostSavings, "Grocery Budget",
				fmt.Sprintf("Your estimated grocery spend this week was $%s.", m.EstimatedGroceryCost.StringFixed(2)),
				"dollar-sign", models.ColorSchemeYellow, m.EstimatedGroceryCost.InexactFloat64(), "estimated cost")
		},
	}}},
	{name: "achievements", branches: []ruleBranch{{
		when: func(m *Metrics) bool { return m.AchievementsUnlocked > 0 },
		build: func(m *Metrics) models.ReportInsight {
			noun := "achievements"
			if m.AchievementsUnlocked == 1 {
				noun = "achievement"
			}
			return newInsight(models.InsightTypeAchievement, "New Achievements Unlocked",
				fmt.Sprintf("Your kids unlocked %d %s this week.", m.AchievementsUnlocked, noun),
				"award", models.ColorSchemePurple, float64(m.AchievementsUnlocked), "achievements")
		},
	}}},
}

// EvaluateInsights runs every rule once, in order. Priorities start at StartingPriority and
// drop by one per emitted insight; rules that emit nothing don't use up a priority.
func EvaluateInsights(m Metrics) []models.ReportInsight {
	insights := make([]models.ReportInsight, 0, len(insightRules))
	priority := StartingPriority
	for _, rule := range insightRules {
		for _, branch := range rule.branches {
			if !branch.when(&m) {
				continue
			}
			insight := branch.build(&m)
			insight.Priority = priority
			priority--
			insights = append(insights, insight)
			break
		}
	}
	return insights
}

func newInsight(insightType models.InsightType, title, description, icon string, color models.ColorScheme, value float64, label string) models.ReportInsight {
	return models.ReportInsight{
		InsightType: insightType,
		Title:       title,
		Description: description,
		MetricValue: &value,
		MetricLabel: &label,
		IconName:    icon,
		ColorScheme: color,
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v)))
}
