package reports

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mmdatafocus/mealplan_backend/models"
)

var (
	testWeekStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testWeekEnd   = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
)

func TestCollect_EmptyHouseholdHasZeroRates(t *testing.T) {
	src := &fakeSource{}
	m, err := NewCollector(src, DefaultPolicy()).Collect(context.Background(), "h1", testWeekStart, testWeekEnd)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	rates := map[string]float64{
		"planning_completion_rate":  m.PlanningCompletionRate,
		"grocery_completion_rate":   m.GroceryCompletionRate,
		"voting_participation_rate": m.VotingParticipationRate,
		"avg_meal_approval_score":   m.AvgMealApprovalScore,
		"recipe_diversity_score":    m.RecipeDiversityScore,
		"avg_daily_calories":        m.AvgDailyCalories,
	}
	for name, v := range rates {
		if v != 0 || math.IsNaN(v) {
			t.Fatalf("%s expected 0, got %v", name, v)
		}
	}
	if m.MostUsedRecipes == nil || m.MostLovedMeals == nil || m.LeastLovedMeals == nil {
		t.Fatalf("expected empty, non-nil top lists")
	}
	if !m.EstimatedGroceryCost.IsZero() {
		t.Fatalf("expected zero grocery cost, got %s", m.EstimatedGroceryCost)
	}
	if src.achievementCalls != 0 {
		t.Fatalf("achievements should not be read for a household without children")
	}
	if src.nutritionCalls != 0 {
		t.Fatalf("nutrition should not be read when no entry links a food")
	}
}

func TestCollect_PlanningAndNutrition(t *testing.T) {
	src := &fakeSource{
		entries: []models.MealPlanEntry{
			entry("e1", "", "f1", true),
			entry("e2", "", "f1", true),
			entry("e3", "", "f2", false),
			entry("e4", "", "missing", false),
		},
		templateUses: 4,
		nutrition: map[string]models.FoodNutrition{
			"f1": {FoodId: "f1", Calories: 700, ProteinG: 35, CarbsG: 70, FatG: 14},
			"f2": {FoodId: "f2", Calories: 700, ProteinG: 0, CarbsG: 70, FatG: 42},
		},
	}
	m, err := NewCollector(src, DefaultPolicy()).Collect(context.Background(), "h1", testWeekStart, testWeekEnd)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if m.MealsPlanned != 4 || m.MealsCompleted != 2 || m.PlanningCompletionRate != 50 {
		t.Fatalf("unexpected planning metrics: %+v", m)
	}
	if m.TemplateUses != 4 || m.TimeSavedMinutes != 100 {
		t.Fatalf("expected 4 template uses saving 100 minutes, got %d/%d", m.TemplateUses, m.TimeSavedMinutes)
	}
	if src.nutritionCalls != 1 {
		t.Fatalf("expected one batched nutrition read, got %d", src.nutritionCalls)
	}
	// three entries with data, 2100 kcal over the week, averaged over seven days
	if m.AvgDailyCalories != 300 {
		t.Fatalf("expected 300 avg daily calories, got %v", m.AvgDailyCalories)
	}
	if m.AvgDailyProtein != 10 || m.AvgDailyCarbs != 30 || m.AvgDailyFat != 10 {
		t.Fatalf("unexpected macro averages: %v/%v/%v", m.AvgDailyProtein, m.AvgDailyCarbs, m.AvgDailyFat)
	}
}

func TestCollect_GroceryTotals(t *testing.T) {
	src := &fakeSource{
		groceries: []models.GroceryItem{
			{ID: "g1", IsPurchased: true, EstimatedPrice: decPtr("10.50")},
			{ID: "g2", IsPurchased: true, EstimatedPrice: decPtr("4.25")},
			{ID: "g3", IsPurchased: true},
			{ID: "g4"},
		},
	}
	m, err := NewCollector(src, DefaultPolicy()).Collect(context.Background(), "h1", testWeekStart, testWeekEnd)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if m.GroceryItemsAdded != 4 || m.GroceryItemsPurchased != 3 || m.GroceryCompletionRate != 75 {
		t.Fatalf("unexpected grocery metrics: %d/%d/%v", m.GroceryItemsAdded, m.GroceryItemsPurchased, m.GroceryCompletionRate)
	}
	if m.EstimatedGroceryCost.StringFixed(2) != "14.75" {
		t.Fatalf("expected cost 14.75, got %s", m.EstimatedGroceryCost.StringFixed(2))
	}
}

func TestCollect_RecipesRepeatsAndNewRecipes(t *testing.T) {
	src := &fakeSource{
		entries: []models.MealPlanEntry{
			entry("e1", "r1", "", false),
			entry("e2", "r1", "", false),
			entry("e3", "r3", "", false),
			entry("e4", "r2", "", false),
		},
		usedBefore:  map[string]bool{"r2": true},
		recipeNames: map[string]string{"r1": "Tacos", "r2": "Soup", "r3": "Pasta"},
	}
	m, err := NewCollector(src, DefaultPolicy()).Collect(context.Background(), "h1", testWeekStart, testWeekEnd)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if m.UniqueRecipesUsed != 3 || m.RecipeRepeats != 1 || m.NewRecipesTried != 2 {
		t.Fatalf("unexpected recipe metrics: unique=%d repeats=%d new=%d", m.UniqueRecipesUsed, m.RecipeRepeats, m.NewRecipesTried)
	}
	if m.RecipeDiversityScore != 75 {
		t.Fatalf("expected diversity 75, got %v", m.RecipeDiversityScore)
	}
	want := []string{"r1", "r2", "r3"}
	if len(m.MostUsedRecipes) != len(want) {
		t.Fatalf("expected %d most used recipes, got %+v", len(want), m.MostUsedRecipes)
	}
	for i, id := range want {
		if m.MostUsedRecipes[i].RecipeId != id {
			t.Fatalf("most used order expected %v, got %+v", want, m.MostUsedRecipes)
		}
	}
	if m.MostUsedRecipes[0].TimesUsed != 2 || m.MostUsedRecipes[0].RecipeName != "Tacos" {
		t.Fatalf("unexpected top recipe: %+v", m.MostUsedRecipes[0])
	}
}

func TestCollect_Engagement(t *testing.T) {
	src := &fakeSource{
		children: []models.Child{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}, {ID: "c4"}},
		votes: []models.MealVote{
			{ChildId: "c1", Vote: models.VoteValueLoves},
			{ChildId: "c1", Vote: models.VoteValueNeutral},
			{ChildId: "c2", Vote: models.VoteValueDislikes},
			{ChildId: "c2", Vote: models.VoteValueLoves},
		},
		achievements: 2,
	}
	m, err := NewCollector(src, DefaultPolicy()).Collect(context.Background(), "h1", testWeekStart, testWeekEnd)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if m.KidsVoting != 2 || m.VotingParticipationRate != 50 || m.TotalVotesCast != 4 {
		t.Fatalf("unexpected participation: %d/%v/%d", m.KidsVoting, m.VotingParticipationRate, m.TotalVotesCast)
	}
	if m.AvgMealApprovalScore != 62.5 {
		t.Fatalf("expected approval 62.5, got %v", m.AvgMealApprovalScore)
	}
	if m.AchievementsUnlocked != 2 {
		t.Fatalf("expected 2 achievements, got %d", m.AchievementsUnlocked)
	}
}

func TestCollect_PropagatesSourceErrors(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewCollector(&fakeSource{err: boom}, DefaultPolicy()).Collect(context.Background(), "h1", testWeekStart, testWeekEnd)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestMostLoved_ThresholdAndLimit(t *testing.T) {
	p := DefaultPolicy()
	p.MostLovedLimit = 2
	got := MostLoved([]models.RecipeApproval{
		{RecipeId: "a", ApprovalScore: 80},
		{RecipeId: "b", ApprovalScore: 79.9},
		{RecipeId: "c", ApprovalScore: 95},
		{RecipeId: "d", ApprovalScore: 85},
	}, p)
	if len(got) != 2 || got[0].RecipeId != "c" || got[1].RecipeId != "d" {
		t.Fatalf("unexpected most loved: %+v", got)
	}
}

func TestLeastLoved_KeepsTailClosestToThreshold(t *testing.T) {
	got := LeastLoved([]models.RecipeApproval{
		{RecipeId: "a", ApprovalScore: 10},
		{RecipeId: "b", ApprovalScore: 45},
		{RecipeId: "c", ApprovalScore: 50},
		{RecipeId: "d", ApprovalScore: 30},
		{RecipeId: "e", ApprovalScore: 20},
		{RecipeId: "f", ApprovalScore: 40},
	}, DefaultPolicy())

	// below 50 sorted desc: b(45) f(40) d(30) e(20) a(10); the last three are kept
	want := []string{"d", "e", "a"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %+v", want, got)
	}
	for i, id := range want {
		if got[i].RecipeId != id {
			t.Fatalf("expected %v, got %+v", want, got)
		}
	}
}

func TestTopPerformers_NegativeLimitKeepsEveryMatch(t *testing.T) {
	approvals := []models.RecipeApproval{
		{RecipeId: "a", ApprovalScore: 90},
		{RecipeId: "b", ApprovalScore: 85},
		{RecipeId: "c", ApprovalScore: 30},
		{RecipeId: "d", ApprovalScore: 20},
	}
	p := DefaultPolicy()
	p.MostLovedLimit = -1
	p.LeastLovedLimit = -1

	if got := MostLoved(approvals, p); len(got) != 2 {
		t.Fatalf("expected both loved recipes, got %+v", got)
	}
	if got := LeastLoved(approvals, p); len(got) != 2 || got[0].RecipeId != "c" || got[1].RecipeId != "d" {
		t.Fatalf("expected both disliked recipes, got %+v", got)
	}
}
