package main

import (
	"fmt"

	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models"
	"github.com/spf13/cobra"
)

var migrateSourceTables bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run AutoMigrate for the report tables",
	Long: "Run schema migrations as a separate job (pair with SKIP_MIGRATIONS=true on the service). " +
		"--source-tables also creates the meal plan, grocery and child tables, for local development.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connectDatabase(cmd.Context()); err != nil {
			return err
		}
		db := config.GetDB()
		if migrateSourceTables {
			if err := models.MigrateSourceTables(db); err != nil {
				return fmt.Errorf("migrate source tables: %w", err)
			}
		}
		if err := models.MigrateTable(db); err != nil {
			return fmt.Errorf("migrate report tables: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations complete")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSourceTables, "source-tables", false, "Also migrate the source tables reports read from")
	rootCmd.AddCommand(migrateCmd)
}
