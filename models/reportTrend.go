package models

import "time"

// ReportTrend is one weekly point of a tracked metric.
// Unique key: (household_id, metric_name, week_start); rewriting a week overwrites its value.
type ReportTrend struct {
	ID          int         `gorm:"primary_key" json:"id"`
	HouseholdId string      `gorm:"size:64;not null;index:uniq_report_trend,unique,priority:1" json:"household_id"`
	MetricName  TrendMetric `gorm:"size:64;not null;index:uniq_report_trend,unique,priority:2" json:"metric_name"`
	WeekStart   time.Time   `gorm:"type:date;not null;index:uniq_report_trend,unique,priority:3" json:"week_start"`
	MetricValue float64     `gorm:"not null;default:0" json:"metric_value"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewTrendPoints builds one point per tracked metric for the report's week.
func NewTrendPoints(report *WeeklyReport) []ReportTrend {
	points := make([]ReportTrend, 0, len(TrackedTrendMetrics))
	for _, metric := range TrackedTrendMetrics {
		points = append(points, ReportTrend{
			HouseholdId: report.HouseholdId,
			MetricName:  metric,
			WeekStart:   report.WeekStartDate,
			MetricValue: report.TrendValue(metric),
		})
	}
	return points
}
