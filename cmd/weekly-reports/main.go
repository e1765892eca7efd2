package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/middlewares"
	"github.com/mmdatafocus/mealplan_backend/models/reports"
	"github.com/mmdatafocus/mealplan_backend/workflow"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	connectTimeout time.Duration
	withoutRedis   bool
)

var rootCmd = &cobra.Command{
	Use:   "weekly-reports",
	Short: "Generate, publish and export household weekly reports",
	Long: "weekly-reports runs the weekly report pipeline outside the HTTP service: " +
		"backfills, scheduled Pub/Sub fan-out, spreadsheet exports and migrations.",
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 2*time.Minute, "How long to keep retrying the database connection")
	rootCmd.PersistentFlags().BoolVar(&withoutRedis, "without-redis", false, "Skip Redis (no report cache invalidation or run locks)")
}

// connectDatabase connects the shared database, giving up after --connect-timeout.
func connectDatabase(ctx context.Context) error {
	dbCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := config.ConnectDatabaseWithRetry(dbCtx); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return nil
}

// openService connects dependencies and returns a ready service plus a ctx carrying request-scoped loaders.
func openService(ctx context.Context) (context.Context, *workflow.WeeklyReportService, func(), error) {
	logger := config.GetLogger()
	if err := connectDatabase(ctx); err != nil {
		return ctx, nil, func() {}, err
	}
	if !withoutRedis {
		redisCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := config.ConnectRedisWithRetry(redisCtx); err != nil {
			logger.WithFields(logrus.Fields{"field": "redis"}).Warn("redis not ready; continuing without locks: " + err.Error())
		}
		cancel()
	}

	db := config.GetDB()
	svc := workflow.NewWeeklyReportService(db, config.GetRedisLock(), config.LoadReportPolicy(reports.DefaultPolicy()), logger)
	ctx = middlewares.WithLoaders(ctx, middlewares.NewLoaders(db))

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rdb := config.GetRedisDB(); rdb != nil {
			_ = rdb.Close()
		}
	}
	return ctx, svc, closeFn, nil
}
