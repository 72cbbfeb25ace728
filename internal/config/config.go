package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Audit    AuditConfig    `mapstructure:"audit"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	Mode                    string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=memory redis postgres"`
	// Retention keeps expired records addressable for this long, so late
	// validations report expiry instead of absence.
	Retention time.Duration `mapstructure:"retention" validate:"gte=0"`
	// OpTimeout bounds each store call; a timeout is reported as unavailable.
	OpTimeout time.Duration `mapstructure:"op_timeout" validate:"gte=0"`
}

type OTPConfig struct {
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	ExposeCode bool          `mapstructure:"expose_code"`
}

type DeliveryConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=log kafka nats"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	NATS    NATSConfig    `mapstructure:"nats"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.graceful_shutdown_timeout", 15*time.Second)

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.db", "otp")
	v.SetDefault("database.postgres.user", "otp")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.max_open_conns", 20)
	v.SetDefault("database.postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("database.postgres.auto_migrate", false)

	v.SetDefault("database.redis.host", "localhost")
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.pool_size", 10)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.retention", time.Hour)
	v.SetDefault("store.op_timeout", 2*time.Second)

	v.SetDefault("otp.ttl", 5*time.Minute)
	v.SetDefault("otp.expose_code", true)

	v.SetDefault("delivery.backend", "log")
	v.SetDefault("delivery.timeout", 5*time.Second)
	v.SetDefault("delivery.kafka.brokers", []string{})
	v.SetDefault("delivery.kafka.topic", "otp.sms")
	v.SetDefault("delivery.kafka.write_timeout", 5*time.Second)
	v.SetDefault("delivery.nats.url", "nats://localhost:4222")
	v.SetDefault("delivery.nats.subject", "otp.sms")

	v.SetDefault("audit.enabled", false)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads config.yaml, overlays environment variables, and returns Config.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable override: DATABASE_REDIS_HOST -> database.redis.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and backend-specific requirements.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Delivery.Backend {
	case "kafka":
		if len(c.Delivery.Kafka.Brokers) == 0 || c.Delivery.Kafka.Topic == "" {
			return fmt.Errorf("invalid config: delivery.kafka.brokers and delivery.kafka.topic are required for kafka delivery")
		}
	case "nats":
		if c.Delivery.NATS.URL == "" || c.Delivery.NATS.Subject == "" {
			return fmt.Errorf("invalid config: delivery.nats.url and delivery.nats.subject are required for nats delivery")
		}
	}
	if c.Store.Backend == "postgres" || c.Audit.Enabled {
		pg := c.Database.Postgres
		if pg.Host == "" || pg.Port <= 0 || pg.DB == "" || pg.User == "" {
			return fmt.Errorf("invalid config: database.postgres host, port, db and user are required for the postgres store and audit")
		}
	}
	return nil
}
