package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/xuri/excelize/v2"
)

const (
	ReportSheetName   = "Report"
	InsightsSheetName = "Insights"
	TrendsSheetName   = "Trends"
)

// ExportFilename is the attachment name for a report workbook. Characters outside
// [A-Za-z0-9_-] in the household id are replaced with '_'.
func ExportFilename(report *models.WeeklyReport) string {
	return fmt.Sprintf("weekly-report-%s-%s.xlsx", safeFilenamePart(report.HouseholdId), utils.FormatDate(report.WeekStartDate))
}

func safeFilenamePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// NewWorkbook lays out a report, its insights and the household's trend points on three sheets.
func NewWorkbook(report *models.WeeklyReport, trends []models.ReportTrend) (*excelize.File, error) {
	f := excelize.NewFile()

	// rename the default sheet instead of leaving an empty Sheet1 behind
	if err := f.SetSheetName(f.GetSheetName(0), ReportSheetName); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, ReportSheetName, []any{"Metric", "Value"}, reportRows(report)); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(InsightsSheetName); err != nil {
		f.Close()
		return nil, err
	}
	insightRows := make([][]any, 0, len(report.Insights))
	for _, in := range report.Insights {
		insightRows = append(insightRows, []any{
			in.Priority,
			string(in.InsightType),
			in.Title,
			in.Description,
			utils.DereferencePtr(in.MetricValue, 0),
			utils.DereferencePtr(in.MetricLabel, ""),
		})
	}
	if err := writeRows(f, InsightsSheetName, []any{"Priority", "Type", "Title", "Description", "Value", "Label"}, insightRows); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(TrendsSheetName); err != nil {
		f.Close()
		return nil, err
	}
	trendRows := make([][]any, 0, len(trends))
	for _, t := range trends {
		trendRows = append(trendRows, []any{utils.FormatDate(t.WeekStart), string(t.MetricName), t.MetricValue})
	}
	if err := writeRows(f, TrendsSheetName, []any{"Week Start", "Metric", "Value"}, trendRows); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// WriteWorkbook streams the workbook as xlsx.
func WriteWorkbook(w io.Writer, report *models.WeeklyReport, trends []models.ReportTrend) error {
	f, err := NewWorkbook(report, trends)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, headings []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &headings); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func reportRows(r *models.WeeklyReport) [][]any {
	rows := [][]any{
		{"Household", r.HouseholdId},
		{"Week Start", utils.FormatDate(r.WeekStartDate)},
		{"Week End", utils.FormatDate(r.WeekEndDate)},
		{"Meals Planned", r.MealsPlanned},
		{"Meals Completed", r.MealsCompleted},
		{"Planning Completion Rate", utils.RoundTo(r.PlanningCompletionRate, 2)},
		{"Template Uses", r.TemplateUses},
		{"Time Saved (minutes)", r.TimeSavedMinutes},
		{"Avg Daily Calories", utils.RoundTo(r.AvgDailyCalories, 2)},
		{"Avg Daily Protein (g)", utils.RoundTo(r.AvgDailyProtein, 2)},
		{"Avg Daily Carbs (g)", utils.RoundTo(r.AvgDailyCarbs, 2)},
		{"Avg Daily Fat (g)", utils.RoundTo(r.AvgDailyFat, 2)},
		{"Nutrition Score", utils.RoundTo(r.NutritionScore, 2)},
		{"Nutrition Goals Met", fmt.Sprintf("%d/%d", r.NutritionGoalsMet, r.NutritionGoalsTotal)},
		{"Grocery Items Added", r.GroceryItemsAdded},
		{"Grocery Items Purchased", r.GroceryItemsPurchased},
		{"Grocery Completion Rate", utils.RoundTo(r.GroceryCompletionRate, 2)},
		{"Estimated Grocery Cost", r.EstimatedGroceryCost.StringFixed(2)},
		{"Unique Recipes Used", r.UniqueRecipesUsed},
		{"Recipe Repeats", r.RecipeRepeats},
		{"New Recipes Tried", r.NewRecipesTried},
		{"Recipe Diversity Score", utils.RoundTo(r.RecipeDiversityScore, 2)},
		{"Kids Voting", r.KidsVoting},
		{"Voting Participation Rate", utils.RoundTo(r.VotingParticipationRate, 2)},
		{"Total Votes Cast", r.TotalVotesCast},
		{"Avg Meal Approval Score", utils.RoundTo(r.AvgMealApprovalScore, 2)},
		{"Achievements Unlocked", r.AchievementsUnlocked},
	}
	for _, list := range []struct {
		label string
		meals []models.TopMeal
	}{
		{"Most Used", r.MostUsedRecipes.Data()},
		{"Most Loved", r.MostLovedMeals.Data()},
		{"Least Loved", r.LeastLovedMeals.Data()},
	} {
		for i, meal := range list.meals {
			name := meal.RecipeName
			if name == "" {
				name = meal.RecipeId
			}
			rows = append(rows, []any{fmt.Sprintf("%s #%d", list.label, i+1), name})
		}
	}
	return rows
}
