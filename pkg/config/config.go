package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// RedisConfig holds the product listing cache configuration.
// An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a Redis address was configured
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// InventoryConfig holds stock related tunables
type InventoryConfig struct {
	ImportWorkers        int
	DefaultMinStockLevel int64
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Redis       RedisConfig
	Inventory   InventoryConfig
}

const devSigningKey = "defaultsecretkey"

// Load reads configuration from the environment, after loading an optional
// .env file. Unparsable numbers and durations keep their defaults.
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            env("DB_HOST", "localhost", asString),
			Port:            env("DB_PORT", "5432", asString),
			User:            env("DB_USER", "postgres", asString),
			Password:        env("DB_PASSWORD", "password", asString),
			DBName:          env("DB_NAME", serviceName, asString),
			SSLMode:         env("DB_SSL_MODE", "disable", asString),
			MaxIdleConns:    env("DB_MAX_IDLE_CONNS", 10, strconv.Atoi),
			MaxOpenConns:    env("DB_MAX_OPEN_CONNS", 100, strconv.Atoi),
			ConnMaxLifetime: env("DB_CONN_MAX_LIFETIME", time.Hour, time.ParseDuration),
			LogLevel:        env("DB_LOG_LEVEL", logger.Warn, asLogLevel),
		},
		Server: ServerConfig{
			Port: env("SERVER_PORT", "8080", asString),
			Env:  env("APP_ENV", "development", asString),
		},
		JWT: JWTConfig{
			SigningKey:      env("JWT_SIGNING_KEY", devSigningKey, asString),
			ExpirationHours: env("JWT_EXPIRATION_HOURS", 24, strconv.Atoi),
		},
		Log:     LogConfig{Level: env("LOG_LEVEL", "info", asString)},
		Metrics: MetricsConfig{Prefix: env("METRICS_PREFIX", serviceName, asString)},
		Redis: RedisConfig{
			Addr:     env("REDIS_ADDR", "", asString),
			Password: env("REDIS_PASSWORD", "", asString),
			DB:       env("REDIS_DB", 0, strconv.Atoi),
			CacheTTL: env("REDIS_CACHE_TTL", 5*time.Minute, time.ParseDuration),
		},
		Inventory: InventoryConfig{
			ImportWorkers:        env("IMPORT_WORKERS", 4, strconv.Atoi),
			DefaultMinStockLevel: env("DEFAULT_MIN_STOCK_LEVEL", int64(10), asInt64),
		},
	}

	if cfg.Inventory.ImportWorkers < 1 {
		cfg.Inventory.ImportWorkers = 1
	}
	if cfg.Server.Env == "production" && cfg.JWT.SigningKey == devSigningKey {
		return nil, errors.New("JWT_SIGNING_KEY must be set in production")
	}

	return cfg, nil
}

// LogFields returns the non-secret configuration as zap fields
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("redis_enabled", c.Redis.Enabled()),
		zap.Int("import_workers", c.Inventory.ImportWorkers),
	}
}

// env returns the parsed value of key, or def when it is unset or does not parse
func env[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

func asInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func asLogLevel(s string) (logger.LogLevel, error) {
	switch s {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
