package models

import "time"

// ReportInsight belongs to exactly one WeeklyReport. A report's insights are replaced
// as a whole on every recomputation.
type ReportInsight struct {
	ID          int         `gorm:"primary_key" json:"id"`
	ReportId    int         `gorm:"not null;index" json:"report_id"`
	InsightType InsightType `gorm:"type:enum('achievement','efficiency_win','engagement_win','concern','variety_win','suggestion','nutrition_win','cost_savings');size:32;not null" json:"insight_type"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	MetricValue *float64    `json:"metric_value"`
	MetricLabel *string     `gorm:"size:100" json:"metric_label"`
	IconName    string      `gorm:"size:50;not null" json:"icon_name"`
	ColorScheme ColorScheme `gorm:"type:enum('green','blue','yellow','purple','red');size:20;not null" json:"color_scheme"`
	Priority    int         `gorm:"not null" json:"priority"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}
