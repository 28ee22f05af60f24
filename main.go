package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"investment-service/internal/cache"
	"investment-service/internal/config"
	"investment-service/internal/database"
	grpcServer "investment-service/internal/grpc"
	"investment-service/internal/handlers"
	"investment-service/internal/identity"
	"investment-service/internal/logging"
	"investment-service/internal/notify"
	"investment-service/internal/services"
	"investment-service/internal/storage"
)

const healthProbeSpec = "@every 30s"

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "api"})

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	// Redis: task queue and catalog cache
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisURL, Password: cfg.RedisPassword})
	defer asynqClient.Close()
	notifier := notify.NewQueueNotifier(asynqClient, cfg.AdminEmail)

	redisClient := cache.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
	defer redisClient.Close()
	catalog := cache.NewCatalog(redisClient, time.Duration(cfg.CatalogTTL)*time.Second)

	// Object storage is optional in development; uploads fail without it.
	var store storage.ObjectStore
	storageCfg := storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		EndpointURL:     cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:   cfg.S3PublicBaseURL,
	}
	if storageCfg.IsEnabled() {
		s3Store, err := storage.NewS3Store(ctx, storageCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		store = s3Store
	} else {
		log.Warn().Msg("S3 is not configured, file uploads are disabled")
	}

	adminIDs, err := cfg.AdminIDs()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ADMIN_TELEGRAM_IDS")
	}
	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, initData signatures are not verified")
	}

	// Services
	h := &handlers.Handler{
		Verifier:      identity.NewVerifier(cfg.TelegramBotToken),
		Users:         services.NewUserService(db, adminIDs),
		Packages:      services.NewPackageService(db, store, catalog),
		Subscriptions: services.NewSubscriptionService(db, store, notifier),
		Withdrawals:   services.NewWithdrawalService(db, notifier),
		Referrals:     services.NewReferralService(db),
		Admin:         services.NewAdminService(db, notifier),
	}

	// gRPC health
	grpcSrv := grpcServer.NewServer(func() error { return database.Ping(db) })
	probeCron, err := grpcSrv.StartProbe(healthProbeSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start health probe")
	}
	defer probeCron.Stop()
	go func() {
		if err := grpcSrv.Serve(cfg.GrpcPort); err != nil {
			log.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	// Cron Schedulers
	digestCron, err := services.NewDigestService(db, notifier).StartScheduler(cfg.DigestCron)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start digest scheduler")
	}
	defer digestCron.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	grpcSrv.Stop()
}
