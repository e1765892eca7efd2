package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/mmdatafocus/mealplan_backend/models/reports"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	// MaxTrendWeeks caps how far back a trend query reaches.
	MaxTrendWeeks     = 52
	DefaultTrendWeeks = 12
)

var tracer = otel.Tracer("mealplan-weekly-reports")

// ReportGenerator computes and stores one report.
type ReportGenerator interface {
	Generate(ctx context.Context, householdId string, weekStart time.Time) (*reports.Result, error)
}

// ReportReader is the read side of stored reports and trend points.
type ReportReader interface {
	GetReport(ctx context.Context, householdId string, weekStart time.Time) (*models.WeeklyReport, error)
	MarkViewed(ctx context.Context, householdId string, weekStart time.Time, at time.Time) (*models.WeeklyReport, error)
	ListTrends(ctx context.Context, householdId string, metric models.TrendMetric, since time.Time) ([]models.ReportTrend, error)
}

// HouseholdLister finds the households a scheduled run should cover.
type HouseholdLister interface {
	ActiveHouseholdIds(ctx context.Context, from, to time.Time) ([]string, error)
}

// WeeklyReportService wraps report generation with locking, tracing, logging and caching.
type WeeklyReportService struct {
	Generator  ReportGenerator
	Reader     ReportReader
	Households HouseholdLister
	Locker     *redislock.Client
	LockTTL    time.Duration
	Logger     *logrus.Logger
	Now        func() time.Time
}

// NewWeeklyReportService wires the MySQL-backed source and store.
// locker may be nil; runs then rely on the store's conflict handling alone.
func NewWeeklyReportService(db *gorm.DB, locker *redislock.Client, policy reports.Policy, logger *logrus.Logger) *WeeklyReportService {
	source := models.NewReportSource(db)
	store := models.NewReportStore(db)
	generator := reports.NewGenerator(
		reports.NewCollector(loaderSource{ReportSource: source}, policy),
		reports.NewPersister(store, logger),
		policy,
	)
	return &WeeklyReportService{
		Generator:  generator,
		Reader:     store,
		Households: source,
		Locker:     locker,
		LockTTL:    config.ReportLockTTL(),
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// ResolveWeekStart parses an optional YYYY-MM-DD week start against the service clock.
func (s *WeeklyReportService) ResolveWeekStart(value string) (time.Time, error) {
	return utils.ParseWeekStart(value, s.Now())
}

// Generate computes the report for one household and week. A zero weekStart means the
// Monday of the current week.
func (s *WeeklyReportService) Generate(ctx context.Context, householdId string, weekStart time.Time) (*reports.Result, error) {
	if weekStart.IsZero() {
		weekStart = utils.StartOfWeek(s.Now())
	}
	week := utils.FormatDate(weekStart)

	ctx, span := tracer.Start(ctx, "WeeklyReportService.Generate", trace.WithAttributes(
		attribute.String("household_id", householdId),
		attribute.String("week_start", week),
	))
	defer span.End()

	lock := s.obtainLock(ctx, householdId, week)
	defer s.releaseLock(ctx, lock, householdId, week)

	started := time.Now()
	result, err := s.Generator.Generate(ctx, householdId, weekStart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(s.Logger, "workflow", "WeeklyReportService.Generate", "Generate", map[string]any{
			"household_id":   householdId,
			"week_start":     week,
			"correlation_id": correlationId(ctx),
			"trigger":        trigger(ctx),
		}, err)
		return nil, err
	}

	invalidateReport(ctx, householdId, week)

	elapsed := time.Since(started)
	span.SetAttributes(
		attribute.Bool("created", result.Created),
		attribute.Int("insights", len(result.Insights)),
	)
	entry := s.Logger.WithFields(logrus.Fields{
		"field":          "WeeklyReportService.Generate",
		"household_id":   householdId,
		"week_start":     week,
		"report_id":      result.Report.ID,
		"created":        result.Created,
		"insights":       len(result.Insights),
		"warnings":       len(result.Warnings),
		"ms":             elapsed.Milliseconds(),
		"correlation_id": correlationId(ctx),
		"trigger":        trigger(ctx),
	})
	if elapsed >= config.ReportSlowThreshold() {
		entry.Warn("slow weekly report generation")
	} else {
		entry.Info("weekly report generated")
	}
	return result, nil
}

// GetReport returns the stored report with its insights, or utils.ErrorRecordNotFound.
func (s *WeeklyReportService) GetReport(ctx context.Context, householdId string, weekStart time.Time) (*models.WeeklyReport, error) {
	week := utils.FormatDate(weekStart)
	if report, ok := cacheGetReport(ctx, householdId, week); ok {
		return report, nil
	}
	report, err := s.Reader.GetReport(ctx, householdId, weekStart)
	if err != nil {
		return nil, notFoundOr(err)
	}
	cacheSetReport(ctx, report)
	return report, nil
}

// MarkViewed stamps viewed_at the first time a report is opened.
func (s *WeeklyReportService) MarkViewed(ctx context.Context, householdId string, weekStart time.Time) (*models.WeeklyReport, error) {
	report, err := s.Reader.MarkViewed(ctx, householdId, weekStart, s.Now())
	if err != nil {
		return nil, notFoundOr(err)
	}
	invalidateReport(ctx, householdId, utils.FormatDate(weekStart))
	return report, nil
}

// Trends returns up to weeks points of metric, oldest first.
func (s *WeeklyReportService) Trends(ctx context.Context, householdId string, metric models.TrendMetric, weeks int) ([]models.ReportTrend, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("unknown trend metric %q", metric)
	}
	if weeks <= 0 {
		weeks = DefaultTrendWeeks
	}
	if weeks > MaxTrendWeeks {
		weeks = MaxTrendWeeks
	}
	since := utils.StartOfWeek(s.Now()).AddDate(0, 0, -utils.DaysPerWeek*(weeks-1))
	return s.Reader.ListTrends(ctx, householdId, metric, since)
}

// Export writes the stored report and every tracked trend of the trailing year as xlsx.
func (s *WeeklyReportService) Export(ctx context.Context, w io.Writer, householdId string, weekStart time.Time) (*models.WeeklyReport, error) {
	report, err := s.Reader.GetReport(ctx, householdId, weekStart)
	if err != nil {
		return nil, notFoundOr(err)
	}
	since := weekStart.AddDate(0, 0, -utils.DaysPerWeek*(MaxTrendWeeks-1))
	var trends []models.ReportTrend
	for _, metric := range models.TrackedTrendMetrics {
		points, err := s.Reader.ListTrends(ctx, householdId, metric, since)
		if err != nil {
			return nil, err
		}
		trends = append(trends, points...)
	}
	if err := reports.WriteWorkbook(w, report, trends); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return report, nil
}

// ActiveHouseholds lists households with meal plan activity in the week starting at weekStart.
func (s *WeeklyReportService) ActiveHouseholds(ctx context.Context, weekStart time.Time) ([]string, error) {
	return s.Households.ActiveHouseholdIds(ctx, weekStart, utils.WeekEnd(weekStart))
}

func (s *WeeklyReportService) obtainLock(ctx context.Context, householdId, week string) *redislock.Lock {
	if s.Locker == nil {
		s.Logger.WithFields(logrus.Fields{
			"field":        "WeeklyReportService.Generate",
			"household_id": householdId,
			"week_start":   week,
		}).Warn("redis lock not ready; proceeding without redis lock")
		return nil
	}
	lock, err := s.Locker.Obtain(ctx, ReportLockKey(householdId, week), s.LockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 25),
	})
	if err != nil {
		msg := "error obtaining redis lock; proceeding without redis lock: " + err.Error()
		if errors.Is(err, redislock.ErrNotObtained) {
			msg = "could not obtain redis lock; proceeding without redis lock"
		}
		s.Logger.WithFields(logrus.Fields{
			"field":        "WeeklyReportService.Generate",
			"household_id": householdId,
			"week_start":   week,
		}).Warn(msg)
		return nil
	}
	return lock
}

func (s *WeeklyReportService) releaseLock(ctx context.Context, lock *redislock.Lock, householdId, week string) {
	if lock == nil {
		return
	}
	if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		s.Logger.WithFields(logrus.Fields{
			"field":        "WeeklyReportService.Generate",
			"household_id": householdId,
			"week_start":   week,
		}).Warn("failed to release redis lock: " + err.Error())
	}
}

// ReportLockKey is the redis lock key for one household and week.
func ReportLockKey(householdId, week string) string {
	return fmt.Sprintf("weekly-report:%s:%s", householdId, week)
}

func notFoundOr(err error) error {
	if utils.IsRecordNotFound(err) {
		return utils.ErrorRecordNotFound
	}
	return err
}

func correlationId(ctx context.Context) string {
	id, _ := utils.GetCorrelationIdFromContext(ctx)
	return id
}

func trigger(ctx context.Context) string {
	if t, ok := utils.GetTriggerFromContext(ctx); ok {
		return t
	}
	return "unknown"
}
