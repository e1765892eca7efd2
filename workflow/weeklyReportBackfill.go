package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models/reports"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidMessage marks a Pub/Sub payload that will never succeed; the push handler acks it.
var ErrInvalidMessage = errors.New("invalid weekly report message")

const DefaultConcurrency = 4

type ReportJob struct {
	HouseholdId string
	WeekStart   time.Time
}

type JobOutcome struct {
	Job    ReportJob
	Result *reports.Result
	Err    error
}

// BackfillJobs expands households over the weeks ending at lastWeekStart, oldest week first.
func BackfillJobs(householdIds []string, lastWeekStart time.Time, weeks int) []ReportJob {
	if weeks < 1 {
		weeks = 1
	}
	jobs := make([]ReportJob, 0, len(householdIds)*weeks)
	for w := weeks - 1; w >= 0; w-- {
		weekStart := lastWeekStart.AddDate(0, 0, -utils.DaysPerWeek*w)
		for _, id := range householdIds {
			jobs = append(jobs, ReportJob{HouseholdId: id, WeekStart: weekStart})
		}
	}
	return jobs
}

// GenerateAll runs jobs with at most concurrency in flight. A failed job does not stop the others;
// jobs not started before ctx is cancelled report ctx's error.
func (s *WeeklyReportService) GenerateAll(ctx context.Context, jobs []ReportJob, concurrency int) []JobOutcome {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	outcomes := make([]JobOutcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = JobOutcome{Job: job, Err: err}
			continue
		}
		g.Go(func() error {
			res, err := s.Generate(ctx, job.HouseholdId, job.WeekStart)
			outcomes[i] = JobOutcome{Job: job, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// ProcessMessage handles one scheduled request. Errors wrapping ErrInvalidMessage are permanent.
func (s *WeeklyReportService) ProcessMessage(ctx context.Context, msg config.WeeklyReportMessage) (*reports.Result, error) {
	householdId := strings.TrimSpace(msg.HouseholdId)
	if householdId == "" {
		return nil, fmt.Errorf("%w: household_id is required", ErrInvalidMessage)
	}
	weekStart, err := s.ResolveWeekStart(msg.WeekStartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	ctx = utils.SetTriggerInContext(ctx, "pubsub")
	if msg.CorrelationId != "" {
		ctx = utils.SetCorrelationIdInContext(ctx, msg.CorrelationId)
	}
	return s.Generate(ctx, householdId, weekStart)
}

// ScheduledMessages builds one request per household active in the week starting at weekStart.
func (s *WeeklyReportService) ScheduledMessages(ctx context.Context, weekStart time.Time) ([]config.WeeklyReportMessage, error) {
	householdIds, err := s.ActiveHouseholds(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("list active households: %w", err)
	}
	week := utils.FormatDate(weekStart)
	msgs := make([]config.WeeklyReportMessage, 0, len(householdIds))
	for _, id := range householdIds {
		msgs = append(msgs, config.WeeklyReportMessage{
			HouseholdId:   id,
			WeekStartDate: week,
			CorrelationId: uuid.NewString(),
		})
	}
	return msgs, nil
}

// PreviousWeekStart is the Monday of the last completed week; scheduled runs report on it.
func (s *WeeklyReportService) PreviousWeekStart() time.Time {
	return utils.StartOfWeek(s.Now()).AddDate(0, 0, -utils.DaysPerWeek)
}
