package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"biliticket/otpservice/internal/config"
	"biliticket/otpservice/internal/handler"
	"biliticket/otpservice/internal/model"
	"biliticket/otpservice/internal/repository"
	"biliticket/otpservice/internal/service"
	"biliticket/otpservice/pkg/clock"
)

func main() {
	// 1. Load configuration (.env first, so it can feed the environment overlay)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout*2)
	defer cancelStart()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("failed to close resource", zap.Error(err))
			}
		}
	}()

	// 3. Connect to PostgreSQL when a component needs it
	var db *gorm.DB
	if cfg.Store.Backend == "postgres" || cfg.Audit.Enabled {
		db, err = config.NewPostgresDB(startCtx, cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB)
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
	}

	// 4. Initialize record store
	clk := clock.New()
	var store repository.RecordStore
	switch cfg.Store.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(startCtx, cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		closers = append(closers, redisClient)
		store = repository.NewRedisRecordStore(redisClient, clk, cfg.Store.Retention)
		logger.Info("using Redis record store")
	case "postgres":
		store = repository.NewPGRecordStore(db)
		logger.Info("using PostgreSQL record store")
	case "memory":
		store = repository.NewMemoryRecordStore(clk, cfg.Store.Retention)
		logger.Info("using in-memory record store")
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}
	store = repository.WithTimeout(store, cfg.Store.OpTimeout)

	// 5. Initialize SMS delivery
	var sender service.SMSSender
	switch cfg.Delivery.Backend {
	case "kafka":
		kafkaSender, err := service.NewKafkaSMSSender(cfg.Delivery.Kafka)
		if err != nil {
			logger.Fatal("failed to init kafka sender", zap.Error(err))
		}
		closers = append(closers, kafkaSender)
		sender = kafkaSender
		logger.Info("delivering sms via kafka", zap.String("topic", cfg.Delivery.Kafka.Topic))
	case "nats":
		conn, err := config.NewNATSConn(startCtx, cfg.Delivery.NATS)
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.Error(err))
		}
		natsSender, err := service.NewNATSSMSSender(conn, cfg.Delivery.NATS.Subject)
		if err != nil {
			logger.Fatal("failed to init nats sender", zap.Error(err))
		}
		closers = append(closers, natsSender)
		sender = natsSender
		logger.Info("delivering sms via nats", zap.String("subject", cfg.Delivery.NATS.Subject))
	case "log":
		sender = service.NewLogSMSSender(logger)
		logger.Info("simulating sms delivery in logs")
	default:
		logger.Fatal("unknown delivery backend", zap.String("backend", cfg.Delivery.Backend))
	}

	// 6. Metrics
	var metrics *service.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = service.NewMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// 7. Initialize service
	opts := []service.Option{
		service.WithClock(clk),
		service.WithTTL(cfg.OTP.TTL),
		service.WithDeliveryTimeout(cfg.Delivery.Timeout),
		service.WithMetrics(metrics),
	}
	if cfg.Audit.Enabled {
		opts = append(opts, service.WithAuditRepository(repository.NewPGAuditRepository(db)))
		logger.Info("otp audit trail enabled")
	}
	otpService := service.NewOTPService(store, sender, logger, opts...)

	// 8. Setup router
	otpHandler := handler.NewOTPHandler(otpService, cfg.OTP.TTL, cfg.OTP.ExposeCode)
	router := handler.SetupRouter(cfg, logger, otpHandler, metricsHandler)

	// 9. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 10. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
