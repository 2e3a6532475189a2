package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevSessionSecret is the signing secret used when none is configured.
// It is public and must never be used in production.
const DevSessionSecret = "dev-secret"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Session     SessionConfig
	CSRF        CSRFConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
	Environment string
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL string
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	// InsecureDefault is true when Secret fell back to DevSessionSecret.
	InsecureDefault bool
}

type CSRFConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	// LoginPer15Minutes is the number of login attempts allowed per client
	// in a 15 minute window. Zero disables login throttling.
	LoginPer15Minutes int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

// Load builds the configuration from environment variables only.
func Load() (Config, error) {
	return load(fileConfig{})
}

// LoadFile reads a YAML config file and then applies environment variables
// on top of it. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	file, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	return load(file)
}

func load(file fileConfig) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", orString(file.Server.Host, "0.0.0.0")),
			Port: getEnvInt("SERVER_PORT", orInt(file.Server.Port, 8080)),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", getEnv("DB_PATH", file.Database.URL)),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", getEnv("SECRET_KEY", file.Session.Secret)),
			TTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", orInt(file.Session.TTLHours, 24))) * time.Hour,
			CookieName: getEnv("SESSION_COOKIE_NAME", orString(file.Session.CookieName, "eventdesk_session")),
		},
		CSRF: CSRFConfig{
			Enabled: getEnvBool("CSRF_ENABLED", orBool(file.CSRF.Enabled, true)),
		},
		RateLimit: RateLimitConfig{
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", orIntPtr(file.RateLimit.Login, 10)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", orString(file.Logging.Level, "info")),
			Format: getEnv("LOG_FORMAT", orString(file.Logging.Format, "json")),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", orBool(file.Metrics.Enabled, true)),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", orBool(file.Tracing.Enabled, false)),
			Exporter:     getEnv("TRACING_EXPORTER", orString(file.Tracing.Exporter, "stdout")),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", orString(file.Tracing.ServiceName, "eventdesk")),
			OTLPEndpoint: getEnv("TRACING_ENDPOINT", orString(file.Tracing.Endpoint, "localhost:4317")),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", orFloat(file.Tracing.SampleRate, 1.0)),
		},
		Environment: getEnv("ENVIRONMENT", orString(file.Environment, "development")),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = DevSessionSecret
		cfg.Session.InsecureDefault = true
	}
	if cfg.IsProduction() && cfg.Session.InsecureDefault {
		return Config{}, fmt.Errorf("SESSION_SECRET is required in production")
	}
	if cfg.Session.TTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
