package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/sirupsen/logrus"
)

func newTestGenerator(src Source, store Store, now time.Time) *Generator {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	g := NewGenerator(NewCollector(src, DefaultPolicy()), NewPersister(store, logger), DefaultPolicy())
	g.Now = func() time.Time { return now }
	return g
}

func TestGenerate_SecondRunUpdatesInPlace(t *testing.T) {
	src := &fakeSource{
		entries: []models.MealPlanEntry{entry("e1", "r1", "", true), entry("e2", "r2", "", false)},
	}
	store := newFakeStore()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	g := newTestGenerator(src, store, now)

	first, err := g.Generate(context.Background(), "h1", testWeekStart)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first run to create the report")
	}

	viewed := now.Add(time.Hour)
	store.reports[keyOf(first.Report)].ViewedAt = &viewed

	second, err := g.Generate(context.Background(), "h1", testWeekStart)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if second.Created {
		t.Fatalf("expected second run to update the existing report")
	}
	if len(store.reports) != 1 {
		t.Fatalf("expected exactly one stored report, got %d", len(store.reports))
	}
	if second.Report.ID != first.Report.ID {
		t.Fatalf("expected same report id, got %d and %d", first.Report.ID, second.Report.ID)
	}
	if second.Report.ViewedAt == nil || !second.Report.ViewedAt.Equal(viewed) {
		t.Fatalf("expected viewed_at to survive recomputation, got %v", second.Report.ViewedAt)
	}
	if first.Metrics.MealsPlanned != second.Metrics.MealsPlanned || first.Metrics.PlanningCompletionRate != second.Metrics.PlanningCompletionRate {
		t.Fatalf("expected identical metrics on unchanged data")
	}
	if store.updateCalls != 1 {
		t.Fatalf("expected one update, got %d", store.updateCalls)
	}
}

func TestGenerate_RecomputeReplacesInsightsAndTrends(t *testing.T) {
	src := &fakeSource{templateUses: 2}
	store := newFakeStore()
	g := newTestGenerator(src, store, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	first, err := g.Generate(context.Background(), "h1", testWeekStart)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if findInsight(store.insights[first.Report.ID], "Time Saved with Templates") == nil {
		t.Fatalf("expected time saved insight, got %+v", store.insights[first.Report.ID])
	}

	// activity changes between runs
	src.templateUses = 0
	src.entries = []models.MealPlanEntry{entry("e1", "r1", "", true)}
	if _, err := g.Generate(context.Background(), "h1", testWeekStart); err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	stored := store.insights[first.Report.ID]
	if findInsight(stored, "Time Saved with Templates") != nil {
		t.Fatalf("stale insight survived recomputation: %+v", stored)
	}
	for i, in := range stored {
		if in.Priority != StartingPriority-i {
			t.Fatalf("expected priorities to restart at %d, got %+v", StartingPriority, stored)
		}
	}

	if len(store.trends) != len(models.TrackedTrendMetrics) {
		t.Fatalf("expected %d trend points, got %d", len(models.TrackedTrendMetrics), len(store.trends))
	}
	if got := store.trends["h1|meals_planned|2024-01-01"]; got != 1 {
		t.Fatalf("expected meals_planned trend overwritten to 1, got %v", got)
	}
}

func TestGenerate_DefaultsToCurrentMonday(t *testing.T) {
	store := newFakeStore()
	// Sunday
	g := newTestGenerator(&fakeSource{}, store, time.Date(2024, 1, 14, 18, 30, 0, 0, time.UTC))

	res, err := g.Generate(context.Background(), "h1", time.Time{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := res.Report.WeekStartDate.Format("2006-01-02"); got != "2024-01-08" {
		t.Fatalf("expected week start 2024-01-08, got %s", got)
	}
	if got := res.Report.WeekEndDate.Format("2006-01-02"); got != "2024-01-14" {
		t.Fatalf("expected week end 2024-01-14, got %s", got)
	}
}

func TestGenerate_GivenWeekStartIsUsedAsIs(t *testing.T) {
	store := newFakeStore()
	g := newTestGenerator(&fakeSource{}, store, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC))

	// a Wednesday
	res, err := g.Generate(context.Background(), "h1", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := res.Report.WeekEndDate.Format("2006-01-02"); got != "2024-01-09" {
		t.Fatalf("expected week end 2024-01-09, got %s", got)
	}
}

func TestGenerate_RequiresHousehold(t *testing.T) {
	store := newFakeStore()
	g := newTestGenerator(&fakeSource{}, store, time.Now())
	if _, err := g.Generate(context.Background(), "  ", testWeekStart); err == nil {
		t.Fatalf("expected an error for a blank household id")
	}
	if store.insertCalls != 0 {
		t.Fatalf("nothing should be written without a household id")
	}
}

func TestGenerate_InsightFailureIsAWarning(t *testing.T) {
	store := newFakeStore()
	store.insightsErr = errors.New("deadlock")
	g := newTestGenerator(&fakeSource{}, store, time.Now())

	res, err := g.Generate(context.Background(), "h1", testWeekStart)
	if err != nil {
		t.Fatalf("expected the report to be kept, got %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}
	if len(store.reports) != 1 {
		t.Fatalf("expected the report row to be stored")
	}
}

func TestGenerate_TrendFailureKeepsReportAndInsights(t *testing.T) {
	store := newFakeStore()
	store.trendsErr = errors.New("lock wait timeout exceeded")
	g := newTestGenerator(&fakeSource{}, store, time.Now())

	res, err := g.Generate(context.Background(), "h1", testWeekStart)
	if err != nil {
		t.Fatalf("expected the report to be kept, got %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}
	if len(store.reports) != 1 {
		t.Fatalf("expected the report row to be stored")
	}
	stored := store.insights[res.Report.ID]
	if len(res.Insights) == 0 || len(stored) != len(res.Insights) {
		t.Fatalf("expected %d stored insights, got %d", len(res.Insights), len(stored))
	}
	if len(store.trends) != 0 {
		t.Fatalf("expected no trend points after a failed write, got %v", store.trends)
	}
}

func TestGenerate_NonConflictInsertErrorAborts(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("table is read only")
	g := newTestGenerator(&fakeSource{}, store, time.Now())

	if _, err := g.Generate(context.Background(), "h1", testWeekStart); err == nil {
		t.Fatalf("expected an error")
	}
	if store.updateCalls != 0 {
		t.Fatalf("a non-conflict error must not fall back to update")
	}
}
