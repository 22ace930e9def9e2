package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/activity"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/employees"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/payroll"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	payrollRepo := payroll.NewRepository(pool)
	employeeRepo := employees.NewRepository(pool)
	payrollService := payroll.NewService(payrollRepo, employeeRepo, redisClient, logger)
	payrunJob := jobs.NewPayRunJob(payrollService, logger, metrics)

	activityLog := activity.NewLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	cleanupJob := jobs.NewCleanupJob(activityLog, idempotencyStore, cfg.ActivityRetention, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePayRunProcess, Handler: payrunJob.Handle},
			{Type: jobs.TaskTypeActivityCleanup, Handler: cleanupJob.HandleActivity},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: cleanupJob.HandleIdempotency},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: asynq.NewTask(jobs.TaskTypeActivityCleanup, nil), Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "45 2 * * *", Task: asynq.NewTask(jobs.TaskTypeIdempotencyCleanup, nil), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
