package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/shopspring/decimal"
)

// Source is the read side a report is computed from. Date windows are inclusive calendar days.
type Source interface {
	PlanEntries(ctx context.Context, householdId string, from, to time.Time) ([]models.MealPlanEntry, error)
	TemplateUses(ctx context.Context, householdId string) (int, error)
	FoodNutrition(ctx context.Context, foodIds []string) (map[string]models.FoodNutrition, error)
	GroceryItems(ctx context.Context, householdId string, from, to time.Time) ([]models.GroceryItem, error)
	RecipesUsedBefore(ctx context.Context, householdId string, before time.Time, recipeIds []string) (map[string]bool, error)
	RecipeNames(ctx context.Context, recipeIds []string) (map[string]string, error)
	Children(ctx context.Context, householdId string) ([]models.Child, error)
	Votes(ctx context.Context, householdId string, from, to time.Time) ([]models.MealVote, error)
	AchievementsUnlocked(ctx context.Context, childIds []string, from, to time.Time) (int, error)
	RecipeApprovals(ctx context.Context, householdId string) ([]models.RecipeApproval, error)
}

// Collector reduces a household's week of activity into Metrics.
type Collector struct {
	Source Source
	Policy Policy
}

func NewCollector(source Source, policy Policy) *Collector {
	return &Collector{Source: source, Policy: policy}
}

// Collect never fails on missing data (no rows means zeros); any read error is returned.
func (c *Collector) Collect(ctx context.Context, householdId string, weekStart, weekEnd time.Time) (Metrics, error) {
	m := Metrics{
		EstimatedGroceryCost: decimal.Zero,
		MostUsedRecipes:      []models.TopMeal{},
		MostLovedMeals:       []models.TopMeal{},
		LeastLovedMeals:      []models.TopMeal{},
	}

	entries, err := c.Source.PlanEntries(ctx, householdId, weekStart, weekEnd)
	if err != nil {
		return m, fmt.Errorf("load plan entries: %w", err)
	}

	c.collectPlanning(&m, entries)
	if err := c.collectTemplates(ctx, &m, householdId); err != nil {
		return m, err
	}
	if err := c.collectNutrition(ctx, &m, entries); err != nil {
		return m, err
	}
	if err := c.collectGrocery(ctx, &m, householdId, weekStart, weekEnd); err != nil {
		return m, err
	}
	if err := c.collectRecipes(ctx, &m, householdId, weekStart, entries); err != nil {
		return m, err
	}
	if err := c.collectEngagement(ctx, &m, householdId, weekStart, weekEnd); err != nil {
		return m, err
	}
	if err := c.collectTopPerformers(ctx, &m, householdId); err != nil {
		return m, err
	}
	return m, nil
}

func (c *Collector) collectPlanning(m *Metrics, entries []models.MealPlanEntry) {
	m.MealsPlanned = len(entries)
	for _, e := range entries {
		if e.IsCompleted {
			m.MealsCompleted++
		}
	}
	m.PlanningCompletionRate = utils.Percentage(float64(m.MealsCompleted), float64(m.MealsPlanned))
}

func (c *Collector) collectTemplates(ctx context.Context, m *Metrics, householdId string) error {
	uses, err := c.Source.TemplateUses(ctx, householdId)
	if err != nil {
		return fmt.Errorf("load template usage: %w", err)
	}
	m.TemplateUses = uses
	m.TimeSavedMinutes = uses * c.Policy.MinutesSavedPerTemplateUse
	return nil
}

// collectNutrition sums nutrition over every entry with a linked food and divides by
// the 7 calendar days of the week, not by the number of entries with data.
func (c *Collector) collectNutrition(ctx context.Context, m *Metrics, entries []models.MealPlanEntry) error {
	var foodIds []string
	for _, e := range entries {
		if e.FoodId != nil && *e.FoodId != "" {
			foodIds = append(foodIds, *e.FoodId)
		}
	}
	if len(foodIds) == 0 {
		return nil
	}
	nutrition, err := c.Source.FoodNutrition(ctx, utils.UniqueSlice(foodIds))
	if err != nil {
		return fmt.Errorf("load food nutrition: %w", err)
	}

	var calories, protein, carbs, fat float64
	for _, id := range foodIds {
		n, ok := nutrition[id]
		if !ok {
			continue
		}
		calories += n.Calories
		protein += n.ProteinG
		carbs += n.CarbsG
		fat += n.FatG
	}
	m.AvgDailyCalories = calories / utils.DaysPerWeek
	m.AvgDailyProtein = protein / utils.DaysPerWeek
	m.AvgDailyCarbs = carbs / utils.DaysPerWeek
	m.AvgDailyFat = fat / utils.DaysPerWeek
	return nil
}

func (c *Collector) collectGrocery(ctx context.Context, m *Metrics, householdId string, weekStart, weekEnd time.Time) error {
	items, err := c.Source.GroceryItems(ctx, householdId, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("load grocery items: %w", err)
	}
	cost := decimal.Zero
	for _, item := range items {
		if item.IsPurchased {
			m.GroceryItemsPurchased++
		}
		if item.EstimatedPrice != nil {
			cost = cost.Add(*item.EstimatedPrice)
		}
	}
	m.GroceryItemsAdded = len(items)
	m.GroceryCompletionRate = utils.Percentage(float64(m.GroceryItemsPurchased), float64(m.GroceryItemsAdded))
	m.EstimatedGroceryCost = cost
	return nil
}

func (c *Collector) collectRecipes(ctx context.Context, m *Metrics, householdId string, weekStart time.Time, entries []models.MealPlanEntry) error {
	counts := make(map[string]int)
	var recipeIds []string
	for _, e := range entries {
		if e.RecipeId == nil || *e.RecipeId == "" {
			continue
		}
		if counts[*e.RecipeId] == 0 {
			recipeIds = append(recipeIds, *e.RecipeId)
		}
		counts[*e.RecipeId]++
	}

	m.UniqueRecipesUsed = len(recipeIds)
	for _, n := range counts {
		if n > 1 {
			m.RecipeRepeats++
		}
	}
	denominator := m.MealsPlanned
	if denominator == 0 {
		denominator = 1
	}
	m.RecipeDiversityScore = float64(m.UniqueRecipesUsed) / float64(denominator) * 100

	if len(recipeIds) == 0 {
		return nil
	}

	usedBefore, err := c.Source.RecipesUsedBefore(ctx, householdId, weekStart, recipeIds)
	if err != nil {
		return fmt.Errorf("load recipe history: %w", err)
	}
	for _, id := range recipeIds {
		if !usedBefore[id] {
			m.NewRecipesTried++
		}
	}

	sort.SliceStable(recipeIds, func(i, j int) bool {
		if counts[recipeIds[i]] != counts[recipeIds[j]] {
			return counts[recipeIds[i]] > counts[recipeIds[j]]
		}
		return recipeIds[i] < recipeIds[j]
	})
	top := recipeIds
	if c.Policy.MostUsedLimit >= 0 && len(top) > c.Policy.MostUsedLimit {
		top = top[:c.Policy.MostUsedLimit]
	}
	names, err := c.Source.RecipeNames(ctx, top)
	if err != nil {
		return fmt.Errorf("load recipe names: %w", err)
	}
	for _, id := range top {
		m.MostUsedRecipes = append(m.MostUsedRecipes, models.TopMeal{
			RecipeId:   id,
			RecipeName: names[id],
			TimesUsed:  counts[id],
		})
	}
	return nil
}

func (c *Collector) collectEngagement(ctx context.Context, m *Metrics, householdId string, weekStart, weekEnd time.Time) error {
	children, err := c.Source.Children(ctx, householdId)
	if err != nil {
		return fmt.Errorf("load children: %w", err)
	}
	votes, err := c.Source.Votes(ctx, householdId, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("load votes: %w", err)
	}

	voters := make(map[string]bool)
	var scoreSum float64
	for _, v := range votes {
		voters[v.ChildId] = true
		scoreSum += c.Policy.VoteScore(v.Vote)
	}
	m.KidsVoting = len(voters)
	m.VotingParticipationRate = utils.Percentage(float64(m.KidsVoting), float64(len(children)))
	m.TotalVotesCast = len(votes)
	if len(votes) > 0 {
		m.AvgMealApprovalScore = scoreSum / float64(len(votes))
	}

	if len(children) == 0 {
		return nil
	}
	childIds := make([]string, 0, len(children))
	for _, child := range children {
		childIds = append(childIds, child.ID)
	}
	unlocked, err := c.Source.AchievementsUnlocked(ctx, childIds, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}
	m.AchievementsUnlocked = unlocked
	return nil
}

func (c *Collector) collectTopPerformers(ctx context.Context, m *Metrics, householdId string) error {
	approvals, err := c.Source.RecipeApprovals(ctx, householdId)
	if err != nil {
		return fmt.Errorf("load vote summaries: %w", err)
	}
	m.MostLovedMeals = MostLoved(approvals, c.Policy)
	m.LeastLovedMeals = LeastLoved(approvals, c.Policy)
	return nil
}

// MostLoved returns approvals at or above the loved threshold, highest first, capped at MostLovedLimit.
func MostLoved(approvals []models.RecipeApproval, p Policy) []models.TopMeal {
	loved := filterApprovals(approvals, func(a models.RecipeApproval) bool {
		return a.ApprovalScore >= p.LovedThreshold
	})
	sortApprovalsDesc(loved)
	if p.MostLovedLimit >= 0 && len(loved) > p.MostLovedLimit {
		loved = loved[:p.MostLovedLimit]
	}
	return toTopMeals(loved)
}

// LeastLoved returns approvals below the least-loved threshold sorted highest first and keeps the
// LAST LeastLovedLimit of them, i.e. the ones closest to the threshold rather than the lowest.
func LeastLoved(approvals []models.RecipeApproval, p Policy) []models.TopMeal {
	disliked := filterApprovals(approvals, func(a models.RecipeApproval) bool {
		return a.ApprovalScore < p.LeastLovedThreshold
	})
	sortApprovalsDesc(disliked)
	if p.LeastLovedLimit >= 0 && len(disliked) > p.LeastLovedLimit {
		disliked = disliked[len(disliked)-p.LeastLovedLimit:]
	}
	return toTopMeals(disliked)
}

func filterApprovals(approvals []models.RecipeApproval, keep func(models.RecipeApproval) bool) []models.RecipeApproval {
	out := make([]models.RecipeApproval, 0, len(approvals))
	for _, a := range approvals {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func sortApprovalsDesc(approvals []models.RecipeApproval) {
	sort.SliceStable(approvals, func(i, j int) bool {
		return approvals[i].ApprovalScore > approvals[j].ApprovalScore
	})
}

func toTopMeals(approvals []models.RecipeApproval) []models.TopMeal {
	out := make([]models.TopMeal, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, models.TopMeal{
			RecipeId:   a.RecipeId,
			RecipeName: a.RecipeName,
			Score:      a.ApprovalScore,
			TotalVotes: a.TotalVotes,
		})
	}
	return out
}
