package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/paperdesk/backoffice/internal/app"
	"github.com/paperdesk/backoffice/internal/observability"
	"github.com/paperdesk/backoffice/jobs"
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
	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	metrics := observability.NewMetrics()
	services, err := app.NewServices(ctx, cfg, store, logger, metrics)
	if err != nil {
		logger.Error("init services", slog.Any("error", err))
		os.Exit(1)
	}
	defer services.Close()

	snapshotJob := jobs.NewFinancialSnapshotJob(services.Ledger, cfg.SnapshotDir, logger, metrics)
	reorderJob := jobs.NewReorderScanJob(services.Ledger, logger, metrics)

	snapshotTask, err := jobs.NewFinancialSnapshotTask("")
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}
	reorderTask, err := jobs.NewReorderScanTask("")
	if err != nil {
		logger.Error("build reorder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFinancialSnapshot, Handler: snapshotJob.Handle},
			{Type: jobs.TaskReorderScan, Handler: reorderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: reorderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer metricsServer.Close()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
