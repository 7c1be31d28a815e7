package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/parkhaus-cloud/parkhaus/internal/app"
	"github.com/parkhaus-cloud/parkhaus/internal/auth"
	"github.com/parkhaus-cloud/parkhaus/internal/identity"
	"github.com/parkhaus-cloud/parkhaus/internal/observability"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/cache"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/db"
	"github.com/parkhaus-cloud/parkhaus/internal/tenants"
	"github.com/parkhaus-cloud/parkhaus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	directory := identity.NewRepository(dbpool)
	userService := identity.NewService(directory)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, directory, cfg.TokenSecret, cfg.TokenTTL)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	metrics := observability.NewMetrics()
	usersHandler := identity.NewHandler(logger, userService, authService, metrics)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	authHandler := auth.NewHandler(logger, authService, jobClient)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	routingCache := tenants.NewRoutingCache(redisClient, cfg.TenantCacheTTL)
	tenantsRepo := tenants.NewRepository(dbpool)
	tenantsService := tenants.NewService(tenantsRepo, userService, authService, jobClient, routingCache, logger)
	tenantsHandler := tenants.NewHandler(logger, tenantsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UsersHandler:   usersHandler,
		TenantsHandler: tenantsHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
