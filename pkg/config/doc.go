// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	GATEHOUSE_HOST="0.0.0.0"
//	GATEHOUSE_PORT="8080"
//	GATEHOUSE_HEALTH_PORT="9090"
//	GATEHOUSE_BASE_URL="https://admin.example.com"
//	GATEHOUSE_READ_TIMEOUT="15s"
//	GATEHOUSE_WRITE_TIMEOUT="15s"
//
// Store settings:
//
//	GATEHOUSE_DB_DRIVER="postgres"  # postgres, sqlite3
//	GATEHOUSE_DB_DSN="postgres://localhost/gatehouse"
//	GATEHOUSE_CONFIG_CACHE_SIZE="256"
//
// Session settings:
//
//	GATEHOUSE_SESSION_BACKEND="redis"  # redis, memory
//	GATEHOUSE_REDIS_URL="redis://localhost:6379"
//	GATEHOUSE_SESSION_LIFETIME="8h"
//	GATEHOUSE_SESSION_COOKIE_SECURE="true"
//
// Identity provider settings:
//
//	GATEHOUSE_IDP_BASE_URL="https://idp.example.com"
//	GATEHOUSE_IDP_AUTH_URL_PATTERN="https://idp.example.com/oauth2/authorize?client_id=#{client_id}&..."
//	GATEHOUSE_IDP_HTTP_TIMEOUT="30s"
//	GATEHOUSE_ENCRYPTION_KEY="<32-byte key protecting stored secrets>"
//
// Observability settings:
//
//	GATEHOUSE_LOG_LEVEL="info"  # debug, info, warn, error
//	GATEHOUSE_METRICS_ENABLED="true"
//	GATEHOUSE_OTEL_ENABLED="true"
//	GATEHOUSE_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Session backend: %s\n", cfg.Session.Backend)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/ims: Uses identity provider defaults
//   - pkg/session: Uses session configuration
//   - pkg/observability: Uses observability configuration
package config
