package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmdatafocus/mealplan_backend/models/reports"
	"github.com/spf13/cobra"
)

var (
	exportHouseholdId string
	exportWeekStart   string
	exportOut         string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a stored weekly report to an .xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		householdId := strings.TrimSpace(exportHouseholdId)
		if householdId == "" {
			return errors.New("--household-id is required")
		}

		ctx, svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		weekStart, err := resolveWeekFlag(svc, exportWeekStart)
		if err != nil {
			return err
		}

		tmp, err := os.CreateTemp(filepath.Dir(exportOut), ".weekly-report-*.xlsx")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		report, err := svc.Export(ctx, tmp, householdId, weekStart)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("export %s %s: %w", householdId, exportWeekStart, err)
		}

		path := exportOut
		if path == "" {
			path = reports.ExportFilename(report)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportHouseholdId, "household-id", "", "Household id")
	exportCmd.Flags().StringVar(&exportWeekStart, "week-start", "", "Week start date (YYYY-MM-DD). Defaults to the last completed week")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output path. Defaults to weekly-report-<household>-<week>.xlsx")
	rootCmd.AddCommand(exportCmd)
}
