package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mealplan_backend/utils"
	"gorm.io/gorm"
)

// ReportSource reads the planner-owned tables a weekly report is computed from.
//
// Date windows are calendar days, both ends inclusive. Date columns are compared with
// BETWEEN; timestamp columns with [from, to+1day).
type ReportSource struct {
	db *gorm.DB
}

func NewReportSource(db *gorm.DB) *ReportSource {
	return &ReportSource{db: db}
}

func dayAfter(t time.Time) time.Time {
	return utils.DateOnly(t).AddDate(0, 0, 1)
}

func (s *ReportSource) PlanEntries(ctx context.Context, householdId string, from, to time.Time) ([]MealPlanEntry, error) {
	var entries []MealPlanEntry
	if err := s.db.WithContext(ctx).
		Where("household_id = ? AND plan_date BETWEEN ? AND ?", householdId, from, to).
		Order("plan_date ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// TemplateUses sums times_used over all of the household's templates (lifetime counter, not windowed).
func (s *ReportSource) TemplateUses(ctx context.Context, householdId string) (int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&MealTemplate{}).
		Where("household_id = ?", householdId).
		Select("COALESCE(SUM(times_used), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *ReportSource) FoodNutrition(ctx context.Context, foodIds []string) (map[string]FoodNutrition, error) {
	result := make(map[string]FoodNutrition)
	ids := utils.UniqueSlice(foodIds)
	if len(ids) == 0 {
		return result, nil
	}
	var rows []FoodNutrition
	if err := s.db.WithContext(ctx).Where("food_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.FoodId] = row
	}
	return result, nil
}

func (s *ReportSource) GroceryItems(ctx context.Context, householdId string, from, to time.Time) ([]GroceryItem, error) {
	var items []GroceryItem
	if err := s.db.WithContext(ctx).
		Where("household_id = ? AND created_at >= ? AND created_at < ?", householdId, utils.DateOnly(from), dayAfter(to)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// RecipesUsedBefore returns which of recipeIds appear in any plan entry dated before the given day.
func (s *ReportSource) RecipesUsedBefore(ctx context.Context, householdId string, before time.Time, recipeIds []string) (map[string]bool, error) {
	used := make(map[string]bool)
	ids := utils.UniqueSlice(recipeIds)
	if len(ids) == 0 {
		return used, nil
	}
	var found []string
	if err := s.db.WithContext(ctx).Model(&MealPlanEntry{}).
		Distinct("recipe_id").
		Where("household_id = ? AND plan_date < ? AND recipe_id IN ?", householdId, before, ids).
		Pluck("recipe_id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		used[id] = true
	}
	return used, nil
}

func (s *ReportSource) RecipeNames(ctx context.Context, recipeIds []string) (map[string]string, error) {
	names := make(map[string]string)
	ids := utils.UniqueSlice(recipeIds)
	if len(ids) == 0 {
		return names, nil
	}
	var recipes []Recipe
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, err
	}
	for _, r := range recipes {
		names[r.ID] = r.Name
	}
	return names, nil
}

func (s *ReportSource) Children(ctx context.Context, householdId string) ([]Child, error) {
	var children []Child
	if err := s.db.WithContext(ctx).Where("household_id = ?", householdId).Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

func (s *ReportSource) Votes(ctx context.Context, householdId string, from, to time.Time) ([]MealVote, error) {
	var votes []MealVote
	if err := s.db.WithContext(ctx).
		Where("household_id = ? AND voted_at >= ? AND voted_at < ?", householdId, utils.DateOnly(from), dayAfter(to)).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (s *ReportSource) AchievementsUnlocked(ctx context.Context, childIds []string, from, to time.Time) (int, error) {
	if len(childIds) == 0 {
		return 0, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&ChildAchievement{}).
		Where("child_id IN ? AND unlocked_at >= ? AND unlocked_at < ?", childIds, utils.DateOnly(from), dayAfter(to)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *ReportSource) RecipeApprovals(ctx context.Context, householdId string) ([]RecipeApproval, error) {
	var rows []RecipeApproval
	if err := s.db.WithContext(ctx).
		Table("recipe_vote_summaries AS rvs").
		Select("rvs.recipe_id, r.name AS recipe_name, rvs.approval_score, rvs.total_votes").
		Joins("JOIN recipes r ON r.id = rvs.recipe_id").
		Where("rvs.household_id = ?", householdId).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ActiveHouseholdIds lists households with at least one plan entry in the window.
func (s *ReportSource) ActiveHouseholdIds(ctx context.Context, from, to time.Time) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&MealPlanEntry{}).
		Distinct("household_id").
		Where("plan_date BETWEEN ? AND ?", from, to).
		Order("household_id ASC").
		Pluck("household_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
