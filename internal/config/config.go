// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// History backend identifiers.
const (
	// BackendRedis stores the history blob under a single Redis key.
	BackendRedis = "redis"

	// BackendMariaDB stores the history list in a MariaDB table.
	BackendMariaDB = "mariadb"
)

// Time-parse policies for invalid or unparseable query time input.
const (
	// ParseFail propagates an invalid_datetime error to the caller.
	ParseFail = "fail"

	// ParseFallbackToNow silently substitutes the current time.
	ParseFallbackToNow = "fallback_to_now"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS origin checks.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Oracle holds remote oracle endpoint settings.
	Oracle OracleConfig

	// History holds history storage settings.
	History HistoryConfig

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// TimeParsePolicy decides what happens on invalid query time input:
	// "fail" or "fallback_to_now". One policy applies to every call site.
	TimeParsePolicy string

	// RateLimitPerMinute caps divination queries per client IP per minute.
	RateLimitPerMinute int
}

// OracleConfig holds settings for the remote six-palace oracle endpoint.
type OracleConfig struct {
	// URL is the oracle endpoint. The ri/shi parameters are appended as
	// query string values.
	URL string

	// Timeout bounds each oracle call (default: 5s). Past it the call is
	// reported as remote_unavailable.
	Timeout time.Duration
}

// HistoryConfig holds history storage settings.
type HistoryConfig struct {
	// Backend selects the store implementation: "redis" or "mariadb".
	Backend string

	// Key is the blob key (Redis key name) holding the serialized list.
	Key string

	// RetentionDays is how long records are kept before pruning.
	// 0 disables pruning.
	RetentionDays int
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "liuren").
	User string

	// Password is the MariaDB password (default: "liuren").
	Password string

	// Name is the database name (default: "liuren").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if any value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Oracle: OracleConfig{
			URL:     getEnv("ORACLE_URL", "https://demo1.w258.cn/2024/xlr/pan.php"),
			Timeout: getEnvDuration("ORACLE_TIMEOUT", 5*time.Second),
		},

		History: HistoryConfig{
			Backend:       getEnv("HISTORY_BACKEND", BackendRedis),
			Key:           getEnv("HISTORY_KEY", "liuren:histories"),
			RetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 30),
		},

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "liuren"),
			Password:        getEnv("DB_PASSWORD", "liuren"),
			Name:            getEnv("DB_NAME", "liuren"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		TimeParsePolicy:    getEnv("TIME_PARSE_POLICY", ParseFail),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.History.Backend {
	case BackendRedis, BackendMariaDB:
	default:
		return nil, fmt.Errorf("HISTORY_BACKEND must be %q or %q, got %q",
			BackendRedis, BackendMariaDB, cfg.History.Backend)
	}

	switch cfg.TimeParsePolicy {
	case ParseFail, ParseFallbackToNow:
	default:
		return nil, fmt.Errorf("TIME_PARSE_POLICY must be %q or %q, got %q",
			ParseFail, ParseFallbackToNow, cfg.TimeParsePolicy)
	}

	if cfg.Oracle.URL == "" {
		return nil, fmt.Errorf("ORACLE_URL must not be empty")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "5s") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
