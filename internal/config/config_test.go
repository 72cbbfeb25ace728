package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OTP.TTL != 5*time.Minute {
		t.Errorf("otp.ttl: got %s want 5m", cfg.OTP.TTL)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store.backend: got %q want memory", cfg.Store.Backend)
	}
	if cfg.Delivery.Backend != "log" {
		t.Errorf("delivery.backend: got %q want log", cfg.Delivery.Backend)
	}
	if !cfg.OTP.ExposeCode {
		t.Errorf("otp.expose_code should default to true")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port: got %d want 8080", cfg.Server.Port)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
store:
  backend: redis
otp:
  ttl: 2m
  expose_code: false
delivery:
  backend: kafka
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
    topic: sms.outbound
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("DATABASE_REDIS_HOST", "redis.internal")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port: got %d want 9090", cfg.Server.Port)
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("store.backend: got %q want redis", cfg.Store.Backend)
	}
	if cfg.OTP.TTL != 90*time.Second {
		t.Errorf("env override of otp.ttl: got %s want 90s", cfg.OTP.TTL)
	}
	if cfg.OTP.ExposeCode {
		t.Errorf("otp.expose_code should be false")
	}
	if cfg.Database.Redis.Host != "redis.internal" {
		t.Errorf("env override of database.redis.host: got %q", cfg.Database.Redis.Host)
	}
	if len(cfg.Delivery.Kafka.Brokers) != 2 || cfg.Delivery.Kafka.Topic != "sms.outbound" {
		t.Errorf("kafka config: got %+v", cfg.Delivery.Kafka)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "unknown store backend", mutate: func(c *Config) { c.Store.Backend = "etcd" }, wantErr: "Backend"},
		{name: "unknown delivery backend", mutate: func(c *Config) { c.Delivery.Backend = "carrier-pigeon" }, wantErr: "Backend"},
		{name: "zero ttl", mutate: func(c *Config) { c.OTP.TTL = 0 }, wantErr: "TTL"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "Port"},
		{
			name:    "kafka without brokers",
			mutate:  func(c *Config) { c.Delivery.Backend = "kafka"; c.Delivery.Kafka.Brokers = nil },
			wantErr: "delivery.kafka",
		},
		{
			name:    "nats without url",
			mutate:  func(c *Config) { c.Delivery.Backend = "nats"; c.Delivery.NATS.URL = "" },
			wantErr: "delivery.nats",
		},
		{
			name:    "audit without postgres database",
			mutate:  func(c *Config) { c.Audit.Enabled = true; c.Database.Postgres.DB = "" },
			wantErr: "database.postgres",
		},
		{
			name:    "postgres store without user",
			mutate:  func(c *Config) { c.Store.Backend = "postgres"; c.Database.Postgres.User = "" },
			wantErr: "database.postgres",
		},
		{
			name:   "audit with default postgres settings",
			mutate: func(c *Config) { c.Audit.Enabled = true },
		},
		{
			name:    "metrics without path",
			mutate:  func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "" },
			wantErr: "Path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPostgresConfigDSN(t *testing.T) {
	dsn := PostgresConfig{Host: "db", Port: 5432, User: "otp", Password: "secret", DB: "otp", SSLMode: "disable"}.DSN()
	want := "host=db port=5432 user=otp password=secret dbname=otp sslmode=disable"
	if dsn != want {
		t.Fatalf("DSN: got %q want %q", dsn, want)
	}
}
