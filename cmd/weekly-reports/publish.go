package main

import (
	"fmt"

	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/utils"
	"github.com/spf13/cobra"
)

var (
	publishWeekStart string
	publishDryRun    bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish one report request per active household to Pub/Sub",
	Long: "Fan out the scheduled weekly run: every household with plan entries in the week gets a " +
		"message on WEEKLY_REPORT_TOPIC, which the service's /pubsub push endpoint consumes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		weekStart, err := resolveWeekFlag(svc, publishWeekStart)
		if err != nil {
			return err
		}
		msgs, err := svc.ScheduledMessages(ctx, weekStart)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if publishDryRun {
			for _, m := range msgs {
				fmt.Fprintf(out, "%s %s %s\n", m.HouseholdId, m.WeekStartDate, m.CorrelationId)
			}
			fmt.Fprintf(out, "%d messages (dry run)\n", len(msgs))
			return nil
		}

		published, err := config.PublishWeeklyReportRequests(ctx, msgs)
		fmt.Fprintf(out, "published %d of %d messages for week %s\n", published, len(msgs), utils.FormatDate(weekStart))
		return err
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishWeekStart, "week-start", "", "Week start date (YYYY-MM-DD). Defaults to the last completed week")
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Print the messages instead of publishing")
	rootCmd.AddCommand(publishCmd)
}
