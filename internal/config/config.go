// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Auth           AuthConfig           `yaml:"auth"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CORS           CORSConfig           `yaml:"cors"`
	AdminBootstrap AdminBootstrapConfig `yaml:"admin_bootstrap"`
	Notifications  NotificationsConfig  `yaml:"notifications"`
	Email          EmailConfig          `yaml:"email"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Logging        LoggingConfig        `yaml:"logging"`
	Environment    string               `yaml:"environment" env:"ENVIRONMENT"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver" env:"DATABASE_DRIVER"`
	URL            string `yaml:"url" env:"DATABASE_URL"`
	Path           string `yaml:"path" env:"DATABASE_PATH"`
	MaxConnections int    `yaml:"max_connections" env:"DATABASE_MAX_CONNECTIONS"`
	MinConnections int    `yaml:"min_connections" env:"DATABASE_MIN_CONNECTIONS"`
	ConnectRetries int    `yaml:"connect_retries" env:"DATABASE_CONNECT_RETRIES"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiry        time.Duration `yaml:"jwt_expiry" env:"JWT_EXPIRY"`
	Issuer           string        `yaml:"issuer" env:"JWT_ISSUER"`
	Audience         string        `yaml:"audience" env:"JWT_AUDIENCE"`
	AllowAdminSignup bool          `yaml:"allow_admin_signup" env:"AUTH_ALLOW_ADMIN_SIGNUP"`
}

type RateLimitConfig struct {
	LoginPerMinute int `yaml:"login_per_minute" env:"RATE_LIMIT_LOGIN"`
	LoginBurst     int `yaml:"login_burst" env:"RATE_LIMIT_LOGIN_BURST"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type AdminBootstrapConfig struct {
	Name  string `yaml:"name" env:"ADMIN_NAME"`
	Email string `yaml:"email" env:"ADMIN_EMAIL"`
}

type NotificationsConfig struct {
	AMQPURL  string `yaml:"amqp_url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE"`
	Queue    string `yaml:"queue" env:"AMQP_QUEUE"`
}

type EmailConfig struct {
	Enabled      bool   `yaml:"enabled" env:"EMAIL_ENABLED"`
	From         string `yaml:"from" env:"EMAIL_FROM"`
	ResendAPIKey string `yaml:"resend_api_key" env:"RESEND_API_KEY"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" env:"TRACING_ENABLED"`
	Exporter     string  `yaml:"exporter" env:"TRACING_EXPORTER"`
	ServiceName  string  `yaml:"service_name" env:"TRACING_SERVICE_NAME"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRate   float64 `yaml:"sample_rate" env:"TRACING_SAMPLE_RATE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Defaults returns a configuration suitable for local development.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			Path:           "smartevent.db",
			MaxConnections: 20,
			MinConnections: 2,
			ConnectRetries: 5,
			AutoMigrate:    true,
		},
		Auth: AuthConfig{
			JWTExpiry: 60 * time.Minute,
			Issuer:    "smartevent",
			Audience:  "smartevent-clients",
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		AdminBootstrap: AdminBootstrapConfig{
			Name:  "Admin",
			Email: "admin@smartevent.com",
		},
		Notifications: NotificationsConfig{
			Exchange: "smartevent.registrations",
			Queue:    "smartevent.registrations.email",
		},
		Email: EmailConfig{
			From: "SmartEvent <no-reply@smartevent.com>",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "smartevent",
			SampleRate:  1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: "development",
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables are used.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.IsDevelopment() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes outside development")
	}
	if c.Auth.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development or test environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}
