package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/parkhaus-cloud/parkhaus/internal/app"
	jobmetrics "github.com/parkhaus-cloud/parkhaus/internal/jobs"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/db"
	"github.com/parkhaus-cloud/parkhaus/jobs"
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

	metrics := jobmetrics.NewMetrics(nil)
	provisionJob := jobs.NewTenantProvisionJob(pool, logger, metrics)
	analyticsJob := jobs.NewAnalyticsRecordJob(pool, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTenantProvision, Handler: provisionJob.Handle},
			{Type: jobs.TaskTenantProvisionSweep, Handler: provisionJob.HandleSweep},
			{Type: jobs.TaskAnalyticsRecord, Handler: analyticsJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 10m", Task: jobs.NewTenantProvisionSweepTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
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
