package config

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts    = 5
	connectBaseDelay   = 200 * time.Millisecond
	connectMaxDelay    = 3 * time.Second
	connectPingTimeout = 3 * time.Second
)

// pingWithRetry retries ping with capped Fibonacci backoff while a dependency comes up.
func pingWithRetry(ctx context.Context, ping func(context.Context) error) error {
	b := retry.NewFibonacci(connectBaseDelay)
	b = retry.WithCappedDuration(connectMaxDelay, b)
	b = retry.WithMaxRetries(connectAttempts-1, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
		defer cancel()
		if err := ping(pingCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}

// NewPostgresDB opens a pooled gorm connection and waits until it answers.
func NewPostgresDB(ctx context.Context, cfg PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(ctx, sqlDB.PingContext); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewRedisClient creates a client and waits until PING succeeds.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := pingWithRetry(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewNATSConn connects to NATS, retrying the initial connect.
func NewNATSConn(ctx context.Context, cfg NATSConfig) (*nats.Conn, error) {
	var conn *nats.Conn
	err := pingWithRetry(ctx, func(context.Context) error {
		c, err := nats.Connect(cfg.URL,
			nats.Name("otp-service"),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}
