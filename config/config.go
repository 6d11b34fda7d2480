package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort         string
	ServerHost         string
	CORSAllowedOrigins []string
	LogLevel           string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration. Redis is optional; an empty RedisURL and RedisHost
	// disables the shared invalidation bus and the rate limiter.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Store backend configuration
	BackendBaseURL string
	BackendTimeout time.Duration
	BackendRPS     float64
	BackendBurst   int

	// Notification configuration
	RefreshInterval   time.Duration
	MaxInFlightPasses int
	InvalidationDelay time.Duration
	InvalidationLimit int
	Timezone          string
	CriticalDays      int
	HighDays          int
	MediumDays        int
}

// defaultConfig returns the values used when neither a secret nor an
// environment variable is present.
func defaultConfig() *Config {
	return &Config{
		ServerPort:         "8080",
		ServerHost:         "0.0.0.0",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:           "info",
		DBDriver:           "postgres",
		DBHost:             "localhost",
		DBPort:             "5432",
		DBName:             "fridgewatch",
		DBSSLMode:          "disable",
		SQLitePath:         "fridgewatch.db",
		RedisPort:          "6379",
		BackendTimeout:     10 * time.Second,
		BackendRPS:         10,
		BackendBurst:       5,
		RefreshInterval:    2 * time.Minute,
		MaxInFlightPasses:  2,
		InvalidationDelay:  500 * time.Millisecond,
		InvalidationLimit:  30,
		Timezone:           "Local",
		CriticalDays:       1,
		HighDays:           3,
		MediumDays:         7,
	}
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := defaultConfig()

	if err := loadEnvConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	switch env {
	case CI:
		loadCISecrets(cfg)
	case Development, Test, Production:
		loadDockerSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig overlays plain (non-secret) settings from the environment.
func loadEnvConfig(cfg *Config) error {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.ServerHost, "SERVER_HOST")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSL_MODE")
	setString(&cfg.SQLitePath, "SQLITE_PATH")

	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisURL, "REDIS_URL")

	setString(&cfg.BackendBaseURL, "BACKEND_BASE_URL")
	setString(&cfg.Timezone, "NOTIFY_TIMEZONE")

	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	collect(setInt(&cfg.RedisDB, "REDIS_DB"))
	collect(setDuration(&cfg.BackendTimeout, "BACKEND_TIMEOUT"))
	collect(setFloat(&cfg.BackendRPS, "BACKEND_RPS"))
	collect(setInt(&cfg.BackendBurst, "BACKEND_BURST"))
	collect(setDuration(&cfg.RefreshInterval, "NOTIFY_REFRESH_INTERVAL"))
	collect(setInt(&cfg.MaxInFlightPasses, "NOTIFY_MAX_IN_FLIGHT"))
	collect(setDuration(&cfg.InvalidationDelay, "NOTIFY_INVALIDATION_DELAY"))
	collect(setInt(&cfg.InvalidationLimit, "NOTIFY_INVALIDATION_LIMIT"))
	collect(setInt(&cfg.CriticalDays, "URGENCY_CRITICAL_DAYS"))
	collect(setInt(&cfg.HighDays, "URGENCY_HIGH_DAYS"))
	collect(setInt(&cfg.MediumDays, "URGENCY_MEDIUM_DAYS"))

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// loadCISecrets reads sensitive values from CI-provided environment variables
func loadCISecrets(cfg *Config) {
	setString(&cfg.DBPassword, "TEST_DB_PASSWORD")
	setString(&cfg.JWTSecret, "TEST_JWT_SECRET")
	setString(&cfg.RedisPassword, "TEST_REDIS_PASSWORD")
}

// loadDockerSecrets reads sensitive values from Docker secrets, falling back to
// the matching environment variable when the secret file is absent.
func loadDockerSecrets(cfg *Config) {
	cfg.DBUser = secretOrEnv("db_user", "DB_USER", cfg.DBUser)
	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD", cfg.DBPassword)
	cfg.JWTSecret = secretOrEnv("jwt_secret", "JWT_SECRET", cfg.JWTSecret)
	cfg.RedisPassword = secretOrEnv("redis_password", "REDIS_PASSWORD", cfg.RedisPassword)
}

// Location resolves the configured timezone. Validation guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RedisEnabled reports whether a Redis server has been configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

func secretOrEnv(secret, envVar, fallback string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, v)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
