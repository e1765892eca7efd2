package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeSource struct {
	entries      []models.MealPlanEntry
	templateUses int
	nutrition    map[string]models.FoodNutrition
	groceries    []models.GroceryItem
	usedBefore   map[string]bool
	recipeNames  map[string]string
	children     []models.Child
	votes        []models.MealVote
	achievements int
	approvals    []models.RecipeApproval

	nutritionCalls   int
	achievementCalls int
	err              error
}

func (f *fakeSource) PlanEntries(ctx context.Context, householdId string, from, to time.Time) ([]models.MealPlanEntry, error) {
	return f.entries, f.err
}

func (f *fakeSource) TemplateUses(ctx context.Context, householdId string) (int, error) {
	return f.templateUses, nil
}

func (f *fakeSource) FoodNutrition(ctx context.Context, foodIds []string) (map[string]models.FoodNutrition, error) {
	f.nutritionCalls++
	out := make(map[string]models.FoodNutrition)
	for _, id := range foodIds {
		if n, ok := f.nutrition[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeSource) GroceryItems(ctx context.Context, householdId string, from, to time.Time) ([]models.GroceryItem, error) {
	return f.groceries, nil
}

func (f *fakeSource) RecipesUsedBefore(ctx context.Context, householdId string, before time.Time, recipeIds []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range recipeIds {
		if f.usedBefore[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeSource) RecipeNames(ctx context.Context, recipeIds []string) (map[string]string, error) {
	return f.recipeNames, nil
}

func (f *fakeSource) Children(ctx context.Context, householdId string) ([]models.Child, error) {
	return f.children, nil
}

func (f *fakeSource) Votes(ctx context.Context, householdId string, from, to time.Time) ([]models.MealVote, error) {
	return f.votes, nil
}

func (f *fakeSource) AchievementsUnlocked(ctx context.Context, childIds []string, from, to time.Time) (int, error) {
	f.achievementCalls++
	return f.achievements, nil
}

func (f *fakeSource) RecipeApprovals(ctx context.Context, householdId string) ([]models.RecipeApproval, error) {
	return f.approvals, nil
}

type reportKey struct {
	household string
	week      string
}

// fakeStore mimics the unique key on weekly_reports and the trend upsert.
type fakeStore struct {
	reports  map[reportKey]*models.WeeklyReport
	insights map[int][]models.ReportInsight
	trends   map[string]float64
	nextId   int

	insertCalls int
	updateCalls int
	insightsErr error
	trendsErr   error
	insertErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports:  make(map[reportKey]*models.WeeklyReport),
		insights: make(map[int][]models.ReportInsight),
		trends:   make(map[string]float64),
	}
}

func keyOf(r *models.WeeklyReport) reportKey {
	return reportKey{household: r.HouseholdId, week: r.WeekStartDate.Format("2006-01-02")}
}

func (s *fakeStore) InsertReport(ctx context.Context, report *models.WeeklyReport) error {
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.reports[keyOf(report)]; ok {
		return gorm.ErrDuplicatedKey
	}
	s.nextId++
	report.ID = s.nextId
	stored := *report
	s.reports[keyOf(report)] = &stored
	return nil
}

func (s *fakeStore) UpdateReportByKey(ctx context.Context, report *models.WeeklyReport) error {
	s.updateCalls++
	existing, ok := s.reports[keyOf(report)]
	if !ok {
		return errors.New("record not found")
	}
	report.ID = existing.ID
	report.ViewedAt = existing.ViewedAt
	report.CreatedAt = existing.CreatedAt
	stored := *report
	s.reports[keyOf(report)] = &stored
	return nil
}

func (s *fakeStore) ReplaceInsights(ctx context.Context, reportId int, insights []models.ReportInsight) error {
	if s.insightsErr != nil {
		return s.insightsErr
	}
	s.insights[reportId] = append([]models.ReportInsight(nil), insights...)
	return nil
}

func (s *fakeStore) UpsertTrends(ctx context.Context, points []models.ReportTrend) error {
	if s.trendsErr != nil {
		return s.trendsErr
	}
	for _, p := range points {
		s.trends[p.HouseholdId+"|"+string(p.MetricName)+"|"+p.WeekStart.Format("2006-01-02")] = p.MetricValue
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func entry(id string, recipe, food string, completed bool) models.MealPlanEntry {
	e := models.MealPlanEntry{ID: id, IsCompleted: completed}
	if recipe != "" {
		e.RecipeId = strPtr(recipe)
	}
	if food != "" {
		e.FoodId = strPtr(food)
	}
	return e
}
