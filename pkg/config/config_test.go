package config

import (
	"os"
	"testing"
	"time"

	"github.com/gatehouse-io/gatehouse/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{
			name:         "returns true for 'true'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "true",
			want:         true,
		},
		{
			name:         "returns true for '1'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "1",
			want:         true,
		},
		{
			name:         "returns false for 'false'",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_NOT_SET",
			defaultValue: true,
			envValue:     "",
			want:         true,
		},
		{
			name:         "returns true for 'TRUE' (case insensitive)",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "TRUE",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns parsed int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			want:         42,
		},
		{
			name:         "returns default for invalid int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "invalid",
			want:         10,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOT_SET",
			defaultValue: 10,
			envValue:     "",
			want:         10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns parsed duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "returns default for invalid duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "invalid",
			want:         10 * time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseLogLevel tests the parseLogLevel function
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  observability.LogLevel
	}{
		{name: "debug", level: "debug", want: observability.DebugLevel},
		{name: "DEBUG uppercase", level: "DEBUG", want: observability.DebugLevel},
		{name: "info", level: "info", want: observability.InfoLevel},
		{name: "warn", level: "warn", want: observability.WarnLevel},
		{name: "warning", level: "warning", want: observability.WarnLevel},
		{name: "error", level: "error", want: observability.ErrorLevel},
		{name: "invalid defaults to info", level: "invalid", want: observability.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLogLevel(tt.level)
			if got != tt.want {
				t.Errorf("parseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

// validConfig returns a configuration that passes Validate
func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:       "8080",
			HealthPort: "9090",
			BaseURL:    "http://localhost:8080",
		},
		Store: StoreConfig{
			Driver: "sqlite3",
			DSN:    "file:test.db",
		},
		Session: SessionConfig{
			Backend:  "memory",
			Lifetime: 8 * time.Hour,
		},
		IMS: IMSConfig{
			EncryptionKey: "0123456789abcdef0123456789abcdef",
		},
	}
}

// TestConfigValidate tests the Config.Validate method
func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("missing server port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "server port is required" {
			t.Errorf("Validate() error = %v, want 'server port is required'", err.Error())
		}
	})

	t.Run("same server and health port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.HealthPort = cfg.Server.Port
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "server port and health port must be different" {
			t.Errorf("Validate() error = %v, want 'server port and health port must be different'", err.Error())
		}
	})

	t.Run("missing base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.BaseURL = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("invalid database driver", func(t *testing.T) {
		cfg := validConfig()
		cfg.Store.Driver = "mysql"
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		expectedErr := "invalid database driver: mysql (must be postgres or sqlite3)"
		if err != nil && err.Error() != expectedErr {
			t.Errorf("Validate() error = %v, want %v", err.Error(), expectedErr)
		}
	})

	t.Run("missing DSN", func(t *testing.T) {
		cfg := validConfig()
		cfg.Store.DSN = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("invalid session backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.Backend = "memcached"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("redis backend without URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.Backend = "redis"
		cfg.Session.Redis.URL = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "redis URL is required for redis session backend" {
			t.Errorf("Validate() error = %v, want 'redis URL is required for redis session backend'", err.Error())
		}
	})

	t.Run("redis backend with URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.Backend = "redis"
		cfg.Session.Redis.URL = "redis://localhost:6379"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("non-positive session lifetime", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.Lifetime = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("encryption key wrong length", func(t *testing.T) {
		cfg := validConfig()
		cfg.IMS.EncryptionKey = "too-short"
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "encryption key must be exactly 32 bytes, got 9" {
			t.Errorf("Validate() error = %v, want 'encryption key must be exactly 32 bytes, got 9'", err.Error())
		}
	})

	t.Run("otel enabled without endpoint", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.OTelEnabled = true
		cfg.Observability.OTelEndpoint = ""
		cfg.Observability.OTelServiceName = "test"
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "OpenTelemetry endpoint is required when OTel is enabled" {
			t.Errorf("Validate() error = %v, want 'OpenTelemetry endpoint is required when OTel is enabled'", err.Error())
		}
	})

	t.Run("otel enabled without service name", func(t *testing.T) {
		cfg := validConfig()
		cfg.Observability.OTelEnabled = true
		cfg.Observability.OTelEndpoint = "localhost:4317"
		cfg.Observability.OTelServiceName = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})
}

// TestCallbackURL tests callback URL construction from the base URL
func TestCallbackURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "plain base URL",
			baseURL: "https://admin.example.com",
			want:    "https://admin.example.com/auth/ims/callback",
		},
		{
			name:    "trailing slash stripped",
			baseURL: "https://admin.example.com/",
			want:    "https://admin.example.com/auth/ims/callback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.BaseURL = tt.baseURL
			if got := cfg.CallbackURL(); got != tt.want {
				t.Errorf("CallbackURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadConfig tests the LoadConfig function
func TestLoadConfig(t *testing.T) {
	envVars := []string{
		"GATEHOUSE_PORT",
		"GATEHOUSE_HEALTH_PORT",
		"GATEHOUSE_ENCRYPTION_KEY",
		"GATEHOUSE_SESSION_BACKEND",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "valid config",
			env: map[string]string{
				"GATEHOUSE_PORT":           "8080",
				"GATEHOUSE_HEALTH_PORT":    "9090",
				"GATEHOUSE_ENCRYPTION_KEY": "0123456789abcdef0123456789abcdef",
			},
			wantErr: false,
		},
		{
			name: "invalid config - same ports",
			env: map[string]string{
				"GATEHOUSE_PORT":           "8080",
				"GATEHOUSE_HEALTH_PORT":    "8080",
				"GATEHOUSE_ENCRYPTION_KEY": "0123456789abcdef0123456789abcdef",
			},
			wantErr: true,
		},
		{
			name: "invalid config - no encryption key",
			env: map[string]string{
				"GATEHOUSE_PORT":        "8080",
				"GATEHOUSE_HEALTH_PORT": "9090",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range envVars {
				os.Unsetenv(k)
			}

			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("LoadConfig() returned nil config without error")
			}
		})
	}
}
