package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperdesk/backoffice/cmd/backoffice/cli"
	"github.com/paperdesk/backoffice/internal/app"
	"github.com/paperdesk/backoffice/internal/ledger"
	"github.com/paperdesk/backoffice/internal/observability"
	"github.com/paperdesk/backoffice/internal/quotes"
	"github.com/paperdesk/backoffice/internal/shared"
	"github.com/paperdesk/backoffice/internal/supply"
	"github.com/paperdesk/backoffice/internal/toolserver"
	"github.com/paperdesk/backoffice/jobs"
)

const usage = "usage: backoffice [serve|seed|mcp|jobs] [flags]"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, args := "serve", os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	switch command {
	case "serve":
		os.Exit(serve(ctx, cfg, app.NewLogger(cfg)))
	case "mcp":
		os.Exit(serveMCP(ctx, cfg, app.NewStderrLogger(cfg)))
	case "seed":
		os.Exit(cli.SeedCommand(ctx, cli.SeedOptions{Config: cfg, Logger: app.NewStderrLogger(cfg), Args: args}))
	case "jobs":
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		code := jobsCLI.JobsCommand(ctx, cli.JobsOptions{Args: args})
		_ = jobsCLI.Close()
		os.Exit(code)
	default:
		_, _ = fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		return 1
	}
	defer store.Close()

	metrics := observability.NewMetrics()
	services, err := app.NewServices(ctx, cfg, store, logger, metrics)
	if err != nil {
		logger.Error("init services", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var jobHandler *jobs.Handler
	if services.Redis != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer jobClient.Close()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, jobClient, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Metrics:       metrics,
		LedgerHandler: ledger.NewHandler(logger, services.Ledger, time.Now).WithIdempotency(shared.NewIdempotencyStore(services.Redis, cfg.IdempotencyTTL)),
		QuotesHandler: quotes.NewHandler(logger, services.Quotes),
		SupplyHandler: supply.NewHandler(services.Estimator),
		JobHandler:    jobHandler,
		Ready:         store.Ping,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		logger.Error("http server", slog.Any("error", err))
		return 1
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}

// serveMCP speaks MCP on stdio, so every log line goes to stderr.
func serveMCP(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		return 1
	}
	defer store.Close()

	services, err := app.NewServices(ctx, cfg, store, logger, nil)
	if err != nil {
		logger.Error("init services", slog.Any("error", err))
		return 1
	}
	defer services.Close()

	server := toolserver.New(toolserver.Deps{
		Ledger:    services.Ledger,
		Quotes:    services.Quotes,
		Estimator: services.Estimator,
		Logger:    logger,
		Today:     func() string { return shared.FormatDate(time.Now()) },
	})
	if err := toolserver.Serve(ctx, server, &mcp.StdioTransport{}, logger); err != nil {
		logger.Error("mcp server", slog.Any("error", err))
		return 1
	}
	return 0
}
