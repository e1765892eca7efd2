package reports

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/sirupsen/logrus"
)

// Store is the write side of a report run.
type Store interface {
	InsertReport(ctx context.Context, report *models.WeeklyReport) error
	UpdateReportByKey(ctx context.Context, report *models.WeeklyReport) error
	ReplaceInsights(ctx context.Context, reportId int, insights []models.ReportInsight) error
	UpsertTrends(ctx context.Context, points []models.ReportTrend) error
}

// SaveResult carries the stored report. Created is false when an existing row for the
// same household and week was recomputed. Warnings lists failures that happened after
// the report row was committed.
type SaveResult struct {
	Report   *models.WeeklyReport
	Created  bool
	Warnings []string
}

type Persister struct {
	Store  Store
	Logger *logrus.Logger
}

func NewPersister(store Store, logger *logrus.Logger) *Persister {
	return &Persister{Store: store, Logger: logger}
}

// Save writes report, then insights, then trend points.
// Only a failure to write the report row itself is returned as an error.
func (p *Persister) Save(ctx context.Context, report *models.WeeklyReport, insights []models.ReportInsight) (*SaveResult, error) {
	result := &SaveResult{Report: report, Created: true, Warnings: []string{}}

	if err := p.Store.InsertReport(ctx, report); err != nil {
		if !utils.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("insert weekly report: %w", err)
		}
		// another run already owns the natural key, recompute in place
		result.Created = false
		if err := p.Store.UpdateReportByKey(ctx, report); err != nil {
			return nil, fmt.Errorf("update weekly report: %w", err)
		}
	}

	if err := p.Store.ReplaceInsights(ctx, report.ID, insights); err != nil {
		p.warn(result, "replace insights", report, err)
	} else {
		report.Insights = insights
	}

	if err := p.Store.UpsertTrends(ctx, models.NewTrendPoints(report)); err != nil {
		p.warn(result, "upsert trends", report, err)
	}

	return result, nil
}

func (p *Persister) warn(result *SaveResult, step string, report *models.WeeklyReport, err error) {
	msg := fmt.Sprintf("%s: %v", step, err)
	result.Warnings = append(result.Warnings, msg)
	if p.Logger == nil {
		return
	}
	p.Logger.WithFields(logrus.Fields{
		"module":       "reports",
		"funcName":     "Persister.Save",
		"context":      step,
		"report_id":    report.ID,
		"household_id": report.HouseholdId,
		"week_start":   utils.FormatDate(report.WeekStartDate),
	}).Warn(err.Error())
}
