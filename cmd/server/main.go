package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dealdesk/server/config"
	"dealdesk/server/internal/analysis"
	"dealdesk/server/internal/api"
	"dealdesk/server/internal/auth"
	"dealdesk/server/internal/database"
	"dealdesk/server/internal/geocoding"
	"dealdesk/server/internal/metrics"
	"dealdesk/server/internal/photos"
	"dealdesk/server/internal/portfolio"
	"dealdesk/server/internal/processor"
	"dealdesk/server/internal/queue"
	"dealdesk/server/internal/scheduler"
	"dealdesk/server/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.Server.LogLevel).Warn("Unknown log level, using info")
	}

	dsn := cfg.Database.DSN
	if cfg.Database.Driver == "sqlite" {
		dsn = cfg.Database.Path
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
	}
	logger.WithField("driver", cfg.Database.Driver).Info("Opening database")

	db, err := database.Open(cfg.Database.Driver, dsn, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	analyzer, err := analysis.NewAnalyzer(assumptionsFrom(cfg))
	if err != nil {
		logger.WithError(err).Fatal("Invalid analysis assumptions")
	}
	rankMetric, err := analysis.ParseMetric(cfg.Analysis.RankMetric)
	if err != nil {
		logger.WithError(err).Fatal("Invalid ranking metric")
	}

	m := metrics.New()
	scenarioQueue := queue.NewScenarioQueue(cfg.BatchProcessing.QueueSize, logger)
	m.TrackQueueDepth(scenarioQueue.Len)

	opts := []portfolio.Option{
		portfolio.WithQueue(scenarioQueue, cfg.BatchProcessing.MaxBatchSize),
		portfolio.WithMetrics(m),
		portfolio.WithLogger(logger),
		portfolio.WithRankMetric(rankMetric),
	}
	if cfg.Notifications.TelegramBotToken != "" {
		notifier := telegram.NewService(logger, telegram.Config{
			BaseURL:  cfg.Notifications.TelegramBaseURL,
			BotToken: cfg.Notifications.TelegramBotToken,
			ChatID:   cfg.Notifications.TelegramChatID,
		})
		opts = append(opts, portfolio.WithNotifier(notifier, cfg.Notifications.AlertMinROI))
		logger.WithField("min_roi", cfg.Notifications.AlertMinROI).Info("Deal alerts enabled")
	}
	service := portfolio.NewService(db, analyzer, opts...)

	batchProcessor := processor.NewBatchProcessor(service, scenarioQueue, cfg, logger, m)
	batchProcessor.Start()

	jobs := scheduler.NewScheduler(db, scenarioQueue, service, cfg, logger)

	var locator api.Locator
	if cfg.Geocoding.Enabled {
		geocoder := geocoding.NewGeocoder(logger, cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent)
		defer geocoder.Stop()
		locator = geocoder
		jobs.SetBackfiller(geocoding.NewBackfiller(geocoder, db, logger))
	}
	jobs.Start()

	var limiter *api.RateLimiter
	if cfg.RateLimit.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RateLimit.RedisAddr,
			Password:     cfg.RateLimit.RedisPassword,
			DB:           cfg.RateLimit.RedisDB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		})
		defer client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, rate limiter will fail open")
		}
		cancel()
		limiter = api.NewRateLimiter(client, cfg.RateLimit.PerMinute, logger, m)
	}

	photoStore, err := photos.NewStore(cfg.Photos.Dir, cfg.Photos.MaxBytes, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize photo store")
	}

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(api.Dependencies{
		DB:          db,
		Service:     service,
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Photos:      photoStore,
		Locator:     locator,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	jobs.Stop()
	batchProcessor.Stop()
	service.WaitAlerts()
	logger.Info("Server stopped")
}

// assumptionsFrom maps the analysis settings onto the engine's assumptions
func assumptionsFrom(cfg *config.Config) analysis.Assumptions {
	return analysis.Assumptions{
		LoanToValuePercent:        cfg.Analysis.LoanToValue,
		LoanTermMonths:            cfg.Analysis.LoanTermMonths,
		ManagementFeePercent:      cfg.Analysis.ManagementFee,
		MaintenanceReservePercent: cfg.Analysis.MaintenanceReserve,
		PlatformFeePercent:        cfg.Analysis.PlatformFee,
		MaxHoldMonths:             cfg.Analysis.MaxHoldMonths,
	}
}
