package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Events   EventsConfig
	Database DatabaseConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
}

// AuthConfig holds authentication configuration. Secret is mandatory:
// the process refuses to start without it.
type AuthConfig struct {
	Secret string
}

// EventsConfig holds feature flags for the event stream surface
type EventsConfig struct {
	Enabled bool
}

// DatabaseConfig holds relational store configuration. Parsed but not
// yet validation-enforced; see Validate.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// CacheConfig holds cache/session store configuration. Parsed but not
// yet validation-enforced; see Validate.
type CacheConfig struct {
	Addr           string
	Password       string
	SessionTTL     time.Duration
	RateLimitRPM   int
	RateLimitBurst int
}

// FieldIssue is a single config validation failure
type FieldIssue struct {
	Field   string
	Message string
}

// ValidationError aggregates every config validation failure so an
// operator can fix all of them in one pass.
type ValidationError struct {
	Fields     []FieldIssue
	failClosed bool
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "config validation failed: " + strings.Join(msgs, "; ")
}

// IsFailClosed reports whether err is specifically the fail-closed
// startup condition (missing auth secret), independent of any other
// validation failures in the same error.
func IsFailClosed(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.failClosed
	}
	return false
}

// Load reads recognized environment variables, applies defaults, and
// returns a validated configuration. No partially-valid configuration
// is ever returned: on any validation failure the config is nil.
func Load() (*Config, error) {
	// Best-effort .env for local development
	_ = godotenv.Load(".env")

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:      getListenAddr(),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Secret: getEnv("AUTH_SECRET", ""),
		},
		Events: EventsConfig{
			Enabled: getEnvAsBool("EVENTS_ENABLED", false),
		},
		Database: loadDatabaseConfig(),
		Cache: CacheConfig{
			Addr:           getEnv("CACHE_ADDR", "localhost:6379"),
			Password:       getEnv("CACHE_PASSWORD", ""),
			SessionTTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			RateLimitRPM:   getEnvAsInt("RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration fields. Database and cache
// groups are intentionally not enforced yet: they are parsed for
// forward compatibility and validated only at connection time.
func (c *Config) Validate() error {
	verr := &ValidationError{}

	if c.Auth.Secret == "" {
		verr.failClosed = true
		verr.Fields = append(verr.Fields, FieldIssue{
			Field:   "AUTH_SECRET",
			Message: "auth secret is required; refusing to serve traffic without it",
		})
	}
	if c.Server.ListenAddr == "" {
		verr.Fields = append(verr.Fields, FieldIssue{
			Field:   "LISTEN_ADDR",
			Message: "listen address must not be empty",
		})
	}
	if c.Server.ShutdownTimeout <= 0 {
		verr.Fields = append(verr.Fields, FieldIssue{
			Field:   "SHUTDOWN_TIMEOUT",
			Message: "shutdown timeout must be positive",
		})
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// DSN returns the relational store connection string. Uses
// ConnectionString (from DATABASE_URL) when set; otherwise builds from
// individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "controlplane"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "controlplane"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

// getListenAddr returns the listen address from LISTEN_ADDR, falling
// back to the legacy HTTP_ADDR name before applying the default.
// LISTEN_ADDR wins when both are set.
func getListenAddr() string {
	if value := os.Getenv("LISTEN_ADDR"); value != "" {
		return value
	}
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		return value
	}
	return ":8080"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
