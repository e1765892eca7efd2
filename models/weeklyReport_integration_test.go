package models_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/models/reports"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var integrationWeek = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func openIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	dsn := fmt.Sprintf("root:testpw@tcp(127.0.0.1:%s)/mealplan_test?parseTime=true&loc=UTC", mysqlPort)
	var db *gorm.DB
	var err error
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if db, err = config.OpenDatabase(dsn); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := models.MigrateSourceTables(db); err != nil {
		t.Fatalf("MigrateSourceTables: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

func seedWeek(t *testing.T, db *gorm.DB, householdId string) {
	t.Helper()
	r1, r2 := "r1", "r2"
	price := decimal.RequireFromString("4.50")
	rows := []any{
		&models.Recipe{ID: r1, HouseholdId: householdId, Name: "Tacos"},
		&models.Recipe{ID: r2, HouseholdId: householdId, Name: "Soup"},
		&models.MealPlanEntry{ID: "e1", HouseholdId: householdId, PlanDate: integrationWeek, MealSlot: models.MealSlotDinner, RecipeId: &r1, IsCompleted: true},
		&models.MealPlanEntry{ID: "e2", HouseholdId: householdId, PlanDate: integrationWeek.AddDate(0, 0, 2), MealSlot: models.MealSlotDinner, RecipeId: &r2},
		&models.MealPlanEntry{ID: "e3", HouseholdId: householdId, PlanDate: integrationWeek.AddDate(0, 0, 7), MealSlot: models.MealSlotDinner, RecipeId: &r1},
		&models.GroceryItem{ID: "g1", HouseholdId: householdId, Name: "Beans", IsPurchased: true, EstimatedPrice: &price, CreatedAt: integrationWeek.Add(6 * time.Hour)},
		&models.MealTemplate{ID: "t1", HouseholdId: householdId, Name: "Weeknights", TimesUsed: 2},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}

func newIntegrationGenerator(db *gorm.DB) *reports.Generator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	policy := reports.DefaultPolicy()
	return reports.NewGenerator(
		reports.NewCollector(models.NewReportSource(db), policy),
		reports.NewPersister(models.NewReportStore(db), logger),
		policy,
	)
}

func TestWeeklyReport_GenerateIsIdempotentPerWeek(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	seedWeek(t, db, "h1")
	generator := newIntegrationGenerator(db)
	store := models.NewReportStore(db)

	first, err := generator.Generate(ctx, "h1", integrationWeek)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first run to create the report")
	}
	if first.Report.MealsPlanned != 2 || first.Report.MealsCompleted != 1 {
		t.Fatalf("expected 2 planned / 1 completed, got %d/%d", first.Report.MealsPlanned, first.Report.MealsCompleted)
	}
	if got := first.Report.EstimatedGroceryCost.StringFixed(2); got != "4.50" {
		t.Fatalf("expected grocery cost 4.50, got %s", got)
	}

	viewedAt := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	if _, err := store.MarkViewed(ctx, "h1", integrationWeek, viewedAt); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	second, err := generator.Generate(ctx, "h1", integrationWeek)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if second.Created {
		t.Fatalf("expected recompute to update in place")
	}
	if second.Report.ID != first.Report.ID {
		t.Fatalf("expected same report id %d, got %d", first.Report.ID, second.Report.ID)
	}
	if second.Report.ViewedAt == nil || !second.Report.ViewedAt.Equal(viewedAt) {
		t.Fatalf("expected viewed_at to survive recompute, got %v", second.Report.ViewedAt)
	}

	var reportCount int64
	if err := db.Model(&models.WeeklyReport{}).Where("household_id = ?", "h1").Count(&reportCount).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if reportCount != 1 {
		t.Fatalf("expected one report row, got %d", reportCount)
	}

	stored, err := store.GetReport(ctx, "h1", integrationWeek)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if len(stored.Insights) != len(second.Insights) {
		t.Fatalf("expected %d insights after replace, got %d", len(second.Insights), len(stored.Insights))
	}
	for i := 1; i < len(stored.Insights); i++ {
		if stored.Insights[i-1].Priority < stored.Insights[i].Priority {
			t.Fatalf("insights not ordered by priority: %+v", stored.Insights)
		}
	}
}

func TestWeeklyReport_TrendPointsUpsert(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	seedWeek(t, db, "h1")
	generator := newIntegrationGenerator(db)
	store := models.NewReportStore(db)

	for i := 0; i < 2; i++ {
		if _, err := generator.Generate(ctx, "h1", integrationWeek); err != nil {
			t.Fatalf("Generate #%d: %v", i+1, err)
		}
	}

	points, err := store.ListTrends(ctx, "h1", "", integrationWeek)
	if err != nil {
		t.Fatalf("ListTrends: %v", err)
	}
	if len(points) != len(models.TrackedTrendMetrics) {
		t.Fatalf("expected one point per tracked metric, got %d", len(points))
	}

	planned, err := store.ListTrends(ctx, "h1", models.TrendMetricMealsPlanned, integrationWeek)
	if err != nil {
		t.Fatalf("ListTrends meals_planned: %v", err)
	}
	if len(planned) != 1 || planned[0].MetricValue != 2 {
		t.Fatalf("expected meals_planned=2, got %+v", planned)
	}
}

func TestReportStore_DuplicateInsertIsTranslated(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	store := models.NewReportStore(db)

	newReport := func() *models.WeeklyReport {
		return &models.WeeklyReport{
			HouseholdId:   "h2",
			WeekStartDate: integrationWeek,
			WeekEndDate:   utils.WeekEnd(integrationWeek),
			Status:        models.ReportStatusGenerated,
			GeneratedAt:   time.Now().UTC(),
		}
	}
	if err := store.InsertReport(ctx, newReport()); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := store.InsertReport(ctx, newReport())
	if !utils.IsDuplicateKeyErr(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	active, err := models.NewReportSource(db).ActiveHouseholdIds(ctx, integrationWeek, utils.WeekEnd(integrationWeek))
	if err != nil {
		t.Fatalf("ActiveHouseholdIds: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active households without plan entries, got %v", active)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("mealplan-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=mealplan_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
