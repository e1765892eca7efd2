package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	m := ApplyScores(Metrics{MealsPlanned: 3, MealsCompleted: 3, PlanningCompletionRate: 100, TimeSavedMinutes: 25}, DefaultPolicy())
	report := BuildReport("h1", testWeekStart, m, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	report.Insights = EvaluateInsights(m)
	trends := models.NewTrendPoints(report)

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, report, trends); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != ReportSheetName {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	week, err := f.GetCellValue(ReportSheetName, "B3")
	if err != nil || week != "2024-01-01" {
		t.Fatalf("expected week start in B3, got %q (%v)", week, err)
	}

	insightRows, err := f.GetRows(InsightsSheetName)
	if err != nil {
		t.Fatalf("GetRows insights: %v", err)
	}
	if len(insightRows) != len(report.Insights)+1 {
		t.Fatalf("expected %d insight rows plus header, got %d", len(report.Insights), len(insightRows))
	}
	if insightRows[1][0] != "100" {
		t.Fatalf("expected first insight priority 100, got %q", insightRows[1][0])
	}

	trendRows, err := f.GetRows(TrendsSheetName)
	if err != nil {
		t.Fatalf("GetRows trends: %v", err)
	}
	if len(trendRows) != len(models.TrackedTrendMetrics)+1 {
		t.Fatalf("expected %d trend rows plus header, got %d", len(models.TrackedTrendMetrics), len(trendRows))
	}
}

func TestExportFilename(t *testing.T) {
	report := &models.WeeklyReport{HouseholdId: "h1", WeekStartDate: testWeekStart}
	if got := ExportFilename(report); got != "weekly-report-h1-2024-01-01.xlsx" {
		t.Fatalf("unexpected filename %q", got)
	}

	report.HouseholdId = "h1\"; x=/../y"
	if got := ExportFilename(report); got != "weekly-report-h1___x_____y-2024-01-01.xlsx" {
		t.Fatalf("unexpected filename %q", got)
	}
}
