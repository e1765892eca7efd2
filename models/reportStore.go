package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportStore persists weekly reports, their insights and the trend series.
type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// InsertReport creates the report row. A second insert for the same
// (household_id, week_start_date) fails with a duplicate-key error.
func (s *ReportStore) InsertReport(ctx context.Context, report *WeeklyReport) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

// UpdateReportByKey overwrites the computed columns of the existing row with the same natural key
// and reloads it into report (id, created_at and viewed_at come from the stored row).
func (s *ReportStore) UpdateReportByKey(ctx context.Context, report *WeeklyReport) error {
	db := s.db.WithContext(ctx)
	report.UpdatedAt = time.Now().UTC()
	if err := db.Model(&WeeklyReport{}).
		Where("household_id = ? AND week_start_date = ?", report.HouseholdId, report.WeekStartDate).
		Select(reportRecomputeColumns).
		Omit(clause.Associations).
		Updates(report).Error; err != nil {
		return err
	}
	// RowsAffected is 0 on MySQL when nothing changed, so reload by key instead of trusting it.
	var stored WeeklyReport
	if err := db.Where("household_id = ? AND week_start_date = ?", report.HouseholdId, report.WeekStartDate).
		First(&stored).Error; err != nil {
		return fmt.Errorf("reload weekly report: %w", err)
	}
	insights := report.Insights
	*report = stored
	report.Insights = insights
	return nil
}

// ReplaceInsights deletes every insight of the report and inserts the given list in one transaction.
func (s *ReportStore) ReplaceInsights(ctx context.Context, reportId int, insights []ReportInsight) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportId).Delete(&ReportInsight{}).Error; err != nil {
			return err
		}
		if len(insights) == 0 {
			return nil
		}
		for i := range insights {
			insights[i].ID = 0
			insights[i].ReportId = reportId
		}
		return tx.Create(&insights).Error
	})
}

// UpsertTrends writes the points keyed by (household_id, metric_name, week_start).
func (s *ReportStore) UpsertTrends(ctx context.Context, points []ReportTrend) error {
	if len(points) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "household_id"}, {Name: "metric_name"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{"metric_value", "updated_at"}),
	}).Create(&points).Error
}

// GetReport loads a stored report with its insights, highest priority first.
func (s *ReportStore) GetReport(ctx context.Context, householdId string, weekStart time.Time) (*WeeklyReport, error) {
	var report WeeklyReport
	if err := s.db.WithContext(ctx).
		Preload("Insights", func(db *gorm.DB) *gorm.DB {
			return db.Order("priority DESC")
		}).
		Where("household_id = ? AND week_start_date = ?", householdId, weekStart).
		First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// MarkViewed stamps viewed_at the first time a report is opened.
func (s *ReportStore) MarkViewed(ctx context.Context, householdId string, weekStart time.Time, at time.Time) (*WeeklyReport, error) {
	if err := s.db.WithContext(ctx).Model(&WeeklyReport{}).
		Where("household_id = ? AND week_start_date = ? AND viewed_at IS NULL", householdId, weekStart).
		Update("viewed_at", at.UTC()).Error; err != nil {
		return nil, err
	}
	return s.GetReport(ctx, householdId, weekStart)
}

// ListTrends returns points since the given week, oldest first. An empty metric lists all tracked metrics.
func (s *ReportStore) ListTrends(ctx context.Context, householdId string, metric TrendMetric, since time.Time) ([]ReportTrend, error) {
	var points []ReportTrend
	q := s.db.WithContext(ctx).Where("household_id = ? AND week_start >= ?", householdId, since)
	if metric != "" {
		q = q.Where("metric_name = ?", metric)
	}
	if err := q.Order("week_start ASC, metric_name ASC").Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}
