package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	v4 "github.com/looker-open-source/sdk-codegen/go/sdk/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"looker-content-cleanup/config"
	"looker-content-cleanup/internal/domain/models"
	domainNotification "looker-content-cleanup/internal/domain/notification"
	loggerPkg "looker-content-cleanup/internal/infrastructure/logger"
	"looker-content-cleanup/internal/infrastructure/looker"
	prometheusMetrics "looker-content-cleanup/internal/infrastructure/metrics"
	"looker-content-cleanup/internal/infrastructure/notification"
	"looker-content-cleanup/internal/interfaces/http/handlers"
	"looker-content-cleanup/internal/interfaces/http/router"
	"looker-content-cleanup/internal/usecases/cleanup"
	"looker-content-cleanup/pkg/constants"
	"looker-content-cleanup/pkg/helper"
)

// Version and BuildTime are set during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	once := flag.Bool("once", false, "run a single cleanup pass and exit")
	flag.Parse()

	// Print version info
	fmt.Printf("Looker Content Cleanup %s (built at %s)\n", Version, BuildTime)

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := loggerPkg.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Log startup information and configuration
	logStartupInfo(log, cfg, Version, BuildTime)

	// Initialize infrastructure dependencies
	sdk := looker.NewSDK(cfg.Looker)
	repo := looker.NewLookerRepository(sdk, log)
	notifier := initializeNotifier(cfg, sdk, log)
	metricsCollector := prometheusMetrics.NewPrometheusMetrics(nil, log)

	// Initialize services
	location := helper.LoadLocation(cfg.TimeZone)
	cleanupService := cleanup.NewCleanupService(repo, notifier, metricsCollector, cleanup.Options{
		SoftDeleteDays:       cfg.DaysBeforeSoftDelete,
		HardDeleteDays:       cfg.DaysBeforeHardDelete,
		DryRun:               cfg.DryRun,
		UnusedContentReport:  cfg.UnusedContentReport,
		DeletedContentReport: cfg.DeletedContentReport,
		Recipient:            cfg.NotificationEmail,
		Timeout:              cfg.CleanupTimeout,
		Location:             location,
	}, log)

	if *once {
		runOnce(cleanupService, log)
		return
	}

	// Initialize handlers
	h := handlers.NewHandlers(log, Version, BuildTime, cleanupService, metricsCollector.GetRegistry(), metricsCollector)

	// Setup router and HTTP server
	app := router.NewFiberApp(log, cfg.CleanupTimeout)
	router.SetupRoutes(app, h, metricsCollector, router.RouteConfig{
		TriggerToken: cfg.TriggerToken,
		APITimeout:   cfg.CleanupTimeout,
	}, log)

	// Initialize cleanup job context
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	// Setup and start cron jobs
	if cfg.CleanupSchedule != "" {
		cronScheduler := setupCronJobs(cleanupCtx, cleanupService, cfg.CleanupSchedule, location, log)
		cronScheduler.Start()
		defer cronScheduler.Stop()
	} else {
		log.Info("No cleanup schedule configured, runs are triggered over HTTP")
	}

	// Start server and handle shutdown
	serverErrChan := startServer(app, cfg.HTTPPort, log)
	handleGracefulShutdown(app, serverErrChan, cleanupCancel, log)
}

func logStartupInfo(log *zap.Logger, cfg *config.Config, version, buildTime string) {
	log.Info("Starting Looker Content Cleanup",
		zap.String("version", version),
		zap.String("buildTime", buildTime))

	log.Info("Configuration loaded",
		zap.String("looker_base_url", cfg.Looker.BaseURL),
		zap.String("looker_client_id", helper.MaskValue(cfg.Looker.ClientID)),
		zap.String("looker_client_secret", helper.MaskValue(cfg.Looker.ClientSecret)),
		zap.Bool("looker_verify_ssl", cfg.Looker.VerifySSL),
		zap.String("notification_email", cfg.NotificationEmail),
		zap.Int("days_before_soft_delete", cfg.DaysBeforeSoftDelete),
		zap.Int("days_before_hard_delete", cfg.DaysBeforeHardDelete),
		zap.Bool("dry_run", cfg.DryRun),
		zap.String("unused_content_report", cfg.UnusedContentReport),
		zap.String("deleted_content_report", cfg.DeletedContentReport),
		zap.String("telegram_bot_token", helper.MaskValue(cfg.TelegramBotToken)),
		zap.String("telegram_chat_id", helper.MaskValue(cfg.TelegramChatID)),
		zap.Bool("trigger_token_set", cfg.TriggerToken != ""),
		zap.String("cleanup_schedule", cfg.CleanupSchedule),
		zap.Duration("cleanup_timeout", cfg.CleanupTimeout),
		zap.String("http_port", cfg.HTTPPort))

	log.Info("Logger configuration",
		zap.String("log_level", cfg.Logger.Level),
		zap.String("log_dir", cfg.Logger.LogDir),
		zap.Bool("log_stdout", cfg.Logger.Stdout),
		zap.Int("log_max_size", cfg.Logger.MaxSize),
		zap.Int("log_max_backups", cfg.Logger.MaxBackups),
		zap.Int("log_max_age", cfg.Logger.MaxAge),
		zap.Bool("log_compress", cfg.Logger.Compress))

	if cfg.ThresholdsInverted() {
		log.Warn("Soft delete threshold is not below hard delete threshold",
			zap.Int("days_before_soft_delete", cfg.DaysBeforeSoftDelete),
			zap.Int("days_before_hard_delete", cfg.DaysBeforeHardDelete))
	}
	if cfg.TriggerToken == "" {
		log.Warn("TRIGGER_TOKEN is empty, the API accepts unauthenticated requests")
	}
}

func initializeNotifier(cfg *config.Config, sdk *v4.LookerSDK, log *zap.Logger) domainNotification.Notifier {
	email := notification.NewLookerEmailNotifier(sdk, log)
	if cfg.TelegramBotToken == "" {
		return email
	}
	return notification.NewMultiNotifier(log, email,
		notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log))
}

func runOnce(cleanupService *cleanup.CleanupService, log *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := cleanupService.Run(ctx); err != nil {
		log.Error("Cleanup run failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func setupCronJobs(ctx context.Context, cleanupService *cleanup.CleanupService, schedule string, location *time.Location, log *zap.Logger) *cron.Cron {
	c := cron.New(
		cron.WithLocation(location),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		))

	_, err := c.AddFunc(schedule, func() {
		if _, err := cleanupService.Run(ctx); err != nil {
			if errors.Is(err, models.ErrRunInProgress) {
				log.Warn("Skipping scheduled cleanup, a run is already in progress",
					zap.String("schedule", schedule))
				return
			}
			log.Error("Cleanup job failed",
				zap.Error(err),
				zap.String("schedule", schedule))
		}
	})
	if err != nil {
		log.Fatal("Failed to schedule cleanup job", zap.Error(err))
	}

	log.Info("Cron scheduler started",
		zap.String("schedule", schedule),
		zap.String("timezone", location.String()))
	return c
}

func startServer(app *router.FiberApp, port string, log *zap.Logger) chan error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("port", port))
		if err := app.Listen(":" + port); err != nil {
			// Only send error if it's not a normal shutdown
			if !strings.Contains(err.Error(), "server closed") {
				log.Error("Server error", zap.Error(err))
				serverErr <- err
			} else {
				log.Info("Server shutdown successfully")
			}
		}
	}()

	log.Info("Service started successfully",
		zap.String("port", port),
		zap.String("version", Version),
		zap.String("buildTime", BuildTime))

	return serverErr
}

func handleGracefulShutdown(app *router.FiberApp, serverErr chan error, cleanupCancel context.CancelFunc, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var shutdownErr error
	select {
	case <-quit:
		log.Info("Received shutdown signal, initiating graceful shutdown...")
	case err := <-serverErr:
		log.Error("Server error occurred", zap.Error(err))
		shutdownErr = err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer shutdownCancel()

	// Stop cleanup jobs first; an in-flight run stops before its next item
	log.Info("Stopping cleanup jobs...")
	cleanupCancel()

	// Shutdown the server
	log.Info("Shutting down HTTP server...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
		shutdownErr = err
	}

	if shutdownErr != nil {
		log.Error("Service shutdown completed with errors", zap.Error(shutdownErr))
		log.Sync()
		os.Exit(1)
	}

	log.Info("Service shutdown completed successfully")
	log.Sync()
	os.Exit(0)
}
