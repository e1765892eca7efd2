package models

type InsightType string

const (
	InsightTypeAchievement   InsightType = "achievement"
	InsightTypeEfficiencyWin InsightType = "efficiency_win"
	InsightTypeEngagementWin InsightType = "engagement_win"
	InsightTypeConcern       InsightType = "concern"
	InsightTypeVarietyWin    InsightType = "variety_win"
	InsightTypeSuggestion    InsightType = "suggestion"
	InsightTypeNutritionWin  InsightType = "nutrition_win"
	InsightTypeCostSavings   InsightType = "cost_savings"
)

func (t InsightType) IsValid() bool {
	switch t {
	case InsightTypeAchievement, InsightTypeEfficiencyWin, InsightTypeEngagementWin, InsightTypeConcern,
		InsightTypeVarietyWin, InsightTypeSuggestion, InsightTypeNutritionWin, InsightTypeCostSavings:
		return true
	}
	return false
}

type ColorScheme string

const (
	ColorSchemeGreen  ColorScheme = "green"
	ColorSchemeBlue   ColorScheme = "blue"
	ColorSchemeYellow ColorScheme = "yellow"
	ColorSchemePurple ColorScheme = "purple"
	ColorSchemeRed    ColorScheme = "red"
)

func (c ColorScheme) IsValid() bool {
	switch c {
	case ColorSchemeGreen, ColorSchemeBlue, ColorSchemeYellow, ColorSchemePurple, ColorSchemeRed:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportStatusGenerated ReportStatus = "generated"
)

// VoteValue is what a child answered for a meal.
type VoteValue string

const (
	VoteValueLoves    VoteValue = "loves"
	VoteValueNeutral  VoteValue = "neutral"
	VoteValueDislikes VoteValue = "dislikes"
)

type MealSlot string

const (
	MealSlotBreakfast MealSlot = "breakfast"
	MealSlotLunch     MealSlot = "lunch"
	MealSlotDinner    MealSlot = "dinner"
	MealSlotSnack     MealSlot = "snack"
	MealSlotTryBite   MealSlot = "try_bite"
)

// TrendMetric names one tracked series in report_trends.
type TrendMetric string

const (
	TrendMetricMealsPlanned            TrendMetric = "meals_planned"
	TrendMetricPlanningCompletionRate  TrendMetric = "planning_completion_rate"
	TrendMetricNutritionScore          TrendMetric = "nutrition_score"
	TrendMetricVotingParticipationRate TrendMetric = "voting_participation_rate"
	TrendMetricAvgApprovalScore        TrendMetric = "avg_approval_score"
	TrendMetricDiversityScore          TrendMetric = "diversity_score"
	TrendMetricGroceryCompletionRate   TrendMetric = "grocery_completion_rate"
)

// TrackedTrendMetrics is the fixed, ordered set written on every report run.
var TrackedTrendMetrics = []TrendMetric{
	TrendMetricMealsPlanned,
	TrendMetricPlanningCompletionRate,
	TrendMetricNutritionScore,
	TrendMetricVotingParticipationRate,
	TrendMetricAvgApprovalScore,
	TrendMetricDiversityScore,
	TrendMetricGroceryCompletionRate,
}

func (m TrendMetric) IsValid() bool {
	for _, t := range TrackedTrendMetrics {
		if t == m {
			return true
		}
	}
	return false
}
