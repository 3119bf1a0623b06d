package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gatehouse-io/gatehouse/pkg/ims"
	"github.com/gatehouse-io/gatehouse/pkg/observability"
	"github.com/gatehouse-io/gatehouse/pkg/session"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration (relational database backing config and admin users)
	Store StoreConfig

	// Session configuration
	Session SessionConfig

	// IMS integration configuration
	IMS IMSConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// BaseURL is the externally reachable URL of this instance, used to build
	// the OAuth callback URL registered with the identity provider.
	BaseURL string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// StoreConfig holds relational store configuration
type StoreConfig struct {
	// Driver is "postgres" or "sqlite3"
	Driver string
	DSN    string

	// ConfigCacheSize is the LRU capacity for cached config entries
	ConfigCacheSize int
	// ConfigCachePurgeInterval controls the periodic cache purge
	ConfigCachePurgeInterval time.Duration
}

// SessionConfig holds admin session storage configuration
type SessionConfig struct {
	// Backend is "redis" or "memory"
	Backend string

	Redis session.RedisConfig

	// Lifetime of a session from creation; refreshed on login only
	Lifetime time.Duration
	// SweepInterval controls expired-session sweeps for the memory backend
	SweepInterval time.Duration

	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// IMSConfig holds identity provider integration configuration
type IMSConfig struct {
	// EncryptionKey protects client secrets at rest; must be 32 bytes
	EncryptionKey string

	// HTTPTimeout bounds all outbound identity provider calls
	HTTPTimeout time.Duration

	// Defaults used when the config store carries no explicit value
	Defaults ims.Defaults
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Store:         loadStoreConfig(),
		Session:       loadSessionConfig(),
		IMS:           loadIMSConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("GATEHOUSE_HOST", "0.0.0.0"),
		Port:            getEnv("GATEHOUSE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("GATEHOUSE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("GATEHOUSE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("GATEHOUSE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("GATEHOUSE_SHUTDOWN_TIMEOUT", 30*time.Second),
		BaseURL:         getEnv("GATEHOUSE_BASE_URL", "http://localhost:8080"),
		HealthPort:      getEnv("GATEHOUSE_HEALTH_PORT", "9090"),
	}
}

// loadStoreConfig loads relational store configuration from environment
func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:                   getEnv("GATEHOUSE_DB_DRIVER", "sqlite3"),
		DSN:                      getEnv("GATEHOUSE_DB_DSN", "file:gatehouse.db?_fk=1"),
		ConfigCacheSize:          getEnvInt("GATEHOUSE_CONFIG_CACHE_SIZE", 256),
		ConfigCachePurgeInterval: getEnvDuration("GATEHOUSE_CONFIG_CACHE_PURGE_INTERVAL", 5*time.Minute),
	}
}

// loadSessionConfig loads session configuration from environment
func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Backend: getEnv("GATEHOUSE_SESSION_BACKEND", "memory"),
		Redis: session.RedisConfig{
			URL:        getEnv("GATEHOUSE_REDIS_URL", "redis://localhost:6379"),
			Password:   getEnv("GATEHOUSE_REDIS_PASSWORD", ""),
			DB:         getEnvInt("GATEHOUSE_REDIS_DB", 0),
			MaxRetries: getEnvInt("GATEHOUSE_REDIS_MAX_RETRIES", 3),
			PoolSize:   getEnvInt("GATEHOUSE_REDIS_POOL_SIZE", 10),
		},
		Lifetime:      getEnvDuration("GATEHOUSE_SESSION_LIFETIME", 8*time.Hour),
		SweepInterval: getEnvDuration("GATEHOUSE_SESSION_SWEEP_INTERVAL", time.Minute),
		CookieName:    getEnv("GATEHOUSE_SESSION_COOKIE_NAME", "gatehouse_session"),
		CookieDomain:  getEnv("GATEHOUSE_SESSION_COOKIE_DOMAIN", ""),
		CookieSecure:  getEnvBool("GATEHOUSE_SESSION_COOKIE_SECURE", true),
	}
}

// loadIMSConfig loads identity provider integration configuration from environment
func loadIMSConfig() IMSConfig {
	idpBase := strings.TrimRight(getEnv("GATEHOUSE_IDP_BASE_URL", "https://idp.example.com"), "/")

	return IMSConfig{
		EncryptionKey: getEnv("GATEHOUSE_ENCRYPTION_KEY", ""),
		HTTPTimeout:   getEnvDuration("GATEHOUSE_IDP_HTTP_TIMEOUT", 30*time.Second),
		Defaults: ims.Defaults{
			AuthURLPattern: getEnv("GATEHOUSE_IDP_AUTH_URL_PATTERN",
				idpBase+"/oauth2/authorize?client_id=#{client_id}&redirect_uri=#{redirect_uri}&locale=#{locale}&response_type=code&scope=openid+profile+email"),
			TokenURL: getEnv("GATEHOUSE_IDP_TOKEN_URL", idpBase+"/oauth2/token"),
			ProfileURLPattern: getEnv("GATEHOUSE_IDP_PROFILE_URL_PATTERN",
				idpBase+"/oauth2/userinfo?client_id=#{client_id}"),
			ValidateURLPattern: getEnv("GATEHOUSE_IDP_VALIDATE_URL_PATTERN",
				idpBase+"/oauth2/introspect?client_id=#{client_id}"),
			LogoutURLPattern: getEnv("GATEHOUSE_IDP_LOGOUT_URL_PATTERN",
				idpBase+"/oauth2/logout?access_token=#{access_token}&redirect_uri=#{redirect_uri}"),
			Locale: getEnv("GATEHOUSE_IDP_LOCALE", "en_US"),
		},
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("GATEHOUSE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("GATEHOUSE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("GATEHOUSE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("GATEHOUSE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("GATEHOUSE_OTEL_SERVICE_NAME", "gatehouse"),
		OTelServiceVersion: getEnv("GATEHOUSE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("GATEHOUSE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	// Validate store config
	switch c.Store.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	// Validate session config
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be redis or memory)", c.Session.Backend)
	}
	if c.Session.Lifetime <= 0 {
		return fmt.Errorf("session lifetime must be positive")
	}

	// Validate encryption key (AES-256 requires exactly 32 bytes)
	if len(c.IMS.EncryptionKey) != 32 {
		return fmt.Errorf("encryption key must be exactly 32 bytes, got %d", len(c.IMS.EncryptionKey))
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// CallbackURL returns the absolute OAuth callback URL of this instance
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/auth/ims/callback"
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
