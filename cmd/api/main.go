package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/studiobelle/agenda/internal/api/router"
	"github.com/studiobelle/agenda/internal/appointments"
	"github.com/studiobelle/agenda/internal/auth"
	appconfig "github.com/studiobelle/agenda/internal/config"
	"github.com/studiobelle/agenda/internal/customers"
	"github.com/studiobelle/agenda/internal/finance"
	"github.com/studiobelle/agenda/internal/gcal"
	"github.com/studiobelle/agenda/internal/observability/metrics"
	"github.com/studiobelle/agenda/internal/procedures"
	"github.com/studiobelle/agenda/internal/scheduling"
	"github.com/studiobelle/agenda/internal/suggest"
	"github.com/studiobelle/agenda/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	if cfg.Env == "development" {
		logger = logging.NewText(cfg.LogLevel)
	}
	logger.Info("starting agenda API server", "env", cfg.Env, "port", cfg.Port)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" || cfg.AdminJWTSecret == "" {
		logger.Error("ADMIN_USERNAME, ADMIN_PASSWORD and ADMIN_JWT_SECRET are required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	workDay := scheduling.NewWorkDay(cfg.WorkDayStartHour, cfg.WorkDayEndHour, cfg.SlotStepMinutes)

	procedureRepo := procedures.NewRepository(pool)
	customerRepo := customers.NewRepository(pool)
	appointmentRepo := appointments.NewRepository(pool)
	financeRepo := finance.NewRepository(pool)

	// Redis rollup cache is optional.
	var rollupCache *finance.SummaryCache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, running without rollup cache", "error", err)
		} else {
			rollupCache = finance.NewSummaryCache(redisClient, cfg.RollupCacheTTL)
			defer func() { _ = redisClient.Close() }()
		}
	}

	// Google Calendar sync is optional and best effort.
	var syncer *gcal.Syncer
	if cfg.CalendarSyncEnabled && cfg.GoogleCredentialsJSON != "" {
		calClient, err := gcal.NewGoogleClient(ctx, cfg.GoogleCredentialsJSON, cfg.GoogleCalendarID)
		if err != nil {
			logger.Warn("calendar sync disabled", "error", err)
		} else {
			syncer = gcal.NewSyncer(calClient, appointmentRepo, cfg.CalendarSyncQueueBuffer, bookingMetrics, logger)
			syncer.Start(ctx)
			defer syncer.Stop()
		}
	}

	var calendarSync appointments.CalendarSync
	if syncer != nil {
		calendarSync = syncer
	}
	var rollups appointments.SummaryInvalidator
	if rollupCache != nil {
		rollups = rollupCache
	}

	bookingService := appointments.NewService(appointmentRepo, procedureRepo, workDay,
		calendarSync, rollups, bookingMetrics, logger)

	// Gemini suggestions are optional.
	var llm suggest.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := suggest.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("suggestions disabled", "error", err)
		} else {
			llm = gemini
			defer func() { _ = gemini.Close() }()
		}
	}
	suggestService := suggest.NewService(llm, bookingService, procedureRepo, financeRepo, workDay, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminJWTSecret, cfg.SessionTTL, logger),
		ProceduresHandler:   procedures.NewHandler(procedureRepo, logger),
		CustomersHandler:    customers.NewHandler(customerRepo, logger),
		AppointmentsHandler: appointments.NewHandler(bookingService, logger),
		FinanceHandler:      finance.NewHandler(financeRepo, rollupCache, prometheus.DefaultGatherer, logger),
		SuggestHandler:      suggest.NewHandler(suggestService, logger),
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
