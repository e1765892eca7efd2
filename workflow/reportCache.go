package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/utils"
)

func reportCacheKey(householdId string, weekStart string) string {
	return fmt.Sprintf("weekly-report-cache:%s:%s", householdId, weekStart)
}

func cacheGetReport(ctx context.Context, householdId string, weekStart string) (*models.WeeklyReport, bool) {
	if !config.ReportCacheEnabled() {
		return nil, false
	}
	var report models.WeeklyReport
	found, err := config.GetRedisObject(ctx, reportCacheKey(householdId, weekStart), &report)
	if err != nil {
		config.LogWarn(config.GetLogger(), "workflow", "cacheGetReport", "GetRedisObject", householdId, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &report, true
}

func cacheSetReport(ctx context.Context, report *models.WeeklyReport) {
	if !config.ReportCacheEnabled() {
		return
	}
	key := reportCacheKey(report.HouseholdId, utils.FormatDate(report.WeekStartDate))
	if err := config.SetRedisObject(ctx, key, report, config.ReportCacheTTL()); err != nil {
		config.LogWarn(config.GetLogger(), "workflow", "cacheSetReport", "SetRedisObject", report.HouseholdId, err)
	}
}

// invalidateReport ignores ENABLE_REPORT_CACHE: entries written while the flag was on
// must not outlive a recomputation.
func invalidateReport(ctx context.Context, householdId string, weekStart string) {
	if err := config.RemoveRedisKey(ctx, reportCacheKey(householdId, weekStart)); err != nil {
		config.LogWarn(config.GetLogger(), "workflow", "invalidateReport", "RemoveRedisKey", householdId, err)
	}
}
