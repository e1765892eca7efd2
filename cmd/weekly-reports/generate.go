package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/mmdatafocus/mealplan_backend/workflow"
	"github.com/spf13/cobra"
)

var (
	generateHouseholdIds []string
	generateWeekStart    string
	generateWeeks        int
	generateAll          bool
	generateConcurrency  int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compute weekly reports for one or more households",
	Long: "Compute (or recompute) weekly reports. --weeks N covers the N weeks ending at --week-start, " +
		"oldest first. --all targets every household with plan entries in the week.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := utils.UniqueSlice(trimAll(generateHouseholdIds))
		if len(ids) == 0 && !generateAll {
			return errors.New("--household-id or --all is required")
		}
		if len(ids) > 0 && generateAll {
			return errors.New("--household-id and --all are mutually exclusive")
		}

		ctx, svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		lastWeek, err := resolveWeekFlag(svc, generateWeekStart)
		if err != nil {
			return err
		}
		if generateAll {
			ids, err = svc.ActiveHouseholds(ctx, lastWeek)
			if err != nil {
				return fmt.Errorf("list active households: %w", err)
			}
		}

		ctx = utils.SetTriggerInContext(ctx, "cli")
		jobs := workflow.BackfillJobs(ids, lastWeek, generateWeeks)
		outcomes := svc.GenerateAll(ctx, jobs, generateConcurrency)
		return printOutcomes(cmd.OutOrStdout(), outcomes)
	},
}

func init() {
	generateCmd.Flags().StringSliceVar(&generateHouseholdIds, "household-id", nil, "Household id (repeatable or comma-separated)")
	generateCmd.Flags().StringVar(&generateWeekStart, "week-start", "", "Week start date (YYYY-MM-DD). Defaults to the last completed week")
	generateCmd.Flags().IntVar(&generateWeeks, "weeks", 1, "Number of weeks to generate, ending at --week-start")
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "Generate for every household active in the week")
	generateCmd.Flags().IntVar(&generateConcurrency, "concurrency", workflow.DefaultConcurrency, "Reports computed in parallel")
	rootCmd.AddCommand(generateCmd)
}

type weekResolver interface {
	PreviousWeekStart() time.Time
	ResolveWeekStart(value string) (time.Time, error)
}

// resolveWeekFlag defaults to the last completed week, which is what scheduled runs report on.
func resolveWeekFlag(svc weekResolver, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return svc.PreviousWeekStart(), nil
	}
	weekStart, err := svc.ResolveWeekStart(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --week-start: %w", err)
	}
	return weekStart, nil
}

// printOutcomes writes one line per job and a summary; it fails when any job failed.
func printOutcomes(w io.Writer, outcomes []workflow.JobOutcome) error {
	var created, updated, failed int
	for _, o := range outcomes {
		week := utils.FormatDate(o.Job.WeekStart)
		switch {
		case o.Err != nil:
			failed++
			fmt.Fprintf(w, "FAIL    %s %s: %v\n", o.Job.HouseholdId, week, o.Err)
		case o.Result.Created:
			created++
			fmt.Fprintf(w, "CREATED %s %s (%d insights)\n", o.Job.HouseholdId, week, len(o.Result.Insights))
		default:
			updated++
			fmt.Fprintf(w, "UPDATED %s %s (%d insights)\n", o.Job.HouseholdId, week, len(o.Result.Insights))
		}
		if o.Result != nil {
			for _, warning := range o.Result.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", warning)
			}
		}
	}
	fmt.Fprintf(w, "%d created, %d updated, %d failed\n", created, updated, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed", failed, len(outcomes))
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
