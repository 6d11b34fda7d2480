package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/fridgewatch/fridgewatch/backend/config"
	"github.com/fridgewatch/fridgewatch/backend/internal/backend"
	"github.com/fridgewatch/fridgewatch/backend/internal/database"
	"github.com/fridgewatch/fridgewatch/backend/internal/events"
	"github.com/fridgewatch/fridgewatch/backend/internal/health"
	"github.com/fridgewatch/fridgewatch/backend/internal/logger"
	"github.com/fridgewatch/fridgewatch/backend/internal/metrics"
	"github.com/fridgewatch/fridgewatch/backend/internal/middleware"
	"github.com/fridgewatch/fridgewatch/backend/internal/router"
	"github.com/fridgewatch/fridgewatch/backend/internal/scheduler"
	"github.com/fridgewatch/fridgewatch/backend/internal/server"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)
	env := config.GetEnvironment()
	gin.SetMode(env.GinMode())
	log.Info("starting fridgewatch", slog.String("version", version), slog.String("environment", string(env)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		bus         events.Bus
	)
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		bus, err = events.NewRedisBus(context.Background(), redisClient, log)
		if err != nil {
			return err
		}
	} else {
		log.Warn("redis not configured, inventory changes are only seen by this instance")
		bus = events.NewLocalBus()
	}
	defer bus.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	client, err := backend.NewClient(backend.Config{
		BaseURL:           cfg.BackendBaseURL,
		Timeout:           cfg.BackendTimeout,
		RequestsPerSecond: cfg.BackendRPS,
		Burst:             cfg.BackendBurst,
	}, log, backend.WithRecorder(collector))
	if err != nil {
		return err
	}

	loc := cfg.Location()
	classifier := service.NewUrgencyClassifier(service.UrgencyThresholds{
		CriticalDays: cfg.CriticalDays,
		HighDays:     cfg.HighDays,
		MediumDays:   cfg.MediumDays,
	}, loc)
	notifications := service.NewNotificationService(client, classifier, loc)
	recommendations := service.NewRecommendationService(client)
	refreshLog := service.NewRefreshLog(db)

	sched := scheduler.New(bus, log, scheduler.Config{
		Interval:    cfg.RefreshInterval,
		Location:    loc,
		MaxInFlight: cfg.MaxInFlightPasses,
	}, scheduler.WithRecorder(collector))
	defer sched.Close()
	hub := service.NewNotificationHub(sched, notifications, refreshLog, log)

	handler := router.SetupRouter(router.Dependencies{
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InvalidationDelay:  cfg.InvalidationDelay,
		Tokens:             service.NewTokenService(cfg.JWTSecret),
		Notifications:      notifications,
		Recommendations:    recommendations,
		Hub:                hub,
		RefreshLog:         refreshLog,
		Bus:                bus,
		Metrics:            collector,
		Gatherer:           reg,
		Health:             health.NewChecker(db, redisClient, hub.Len, version),
		RateLimiter:        middleware.NewInvalidationRateLimiter(redisClient, cfg.InvalidationLimit, log),
	})

	srv := server.New(cfg, handler, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Notification streams only end when their watch closes.
	sched.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
