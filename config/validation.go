package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the configuration and reports every problem at once.
func ValidateConfig(cfg *Config) error {
	var problems []ValidationError
	add := func(field, msg string) {
		problems = append(problems, ValidationError{Field: field, Message: msg})
	}

	if cfg.ServerPort == "" {
		add("SERVER_PORT", "is required")
	}

	if cfg.BackendBaseURL == "" {
		add("BACKEND_BASE_URL", "is required")
	} else if u, err := url.Parse(cfg.BackendBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("BACKEND_BASE_URL", "must be an absolute URL")
	}
	if cfg.BackendTimeout <= 0 {
		add("BACKEND_TIMEOUT", "must be positive")
	}
	if cfg.BackendRPS <= 0 {
		add("BACKEND_RPS", "must be positive")
	}
	if cfg.BackendBurst < 1 {
		add("BACKEND_BURST", "must be at least 1")
	}

	if cfg.JWTSecret == "" {
		if GetEnvironment() == CI {
			add("TEST_JWT_SECRET", "environment variable is required in CI environment")
		} else {
			add("jwt_secret", "secret is required")
		}
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("DB_HOST", "is required for postgres")
		}
		if cfg.DBName == "" {
			add("DB_NAME", "is required for postgres")
		}
		if cfg.DBUser == "" {
			add("db_user", "is required for postgres")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for sqlite")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.RefreshInterval <= 0 {
		add("NOTIFY_REFRESH_INTERVAL", "must be positive")
	}
	if cfg.MaxInFlightPasses < 1 {
		add("NOTIFY_MAX_IN_FLIGHT", "must be at least 1")
	}
	if cfg.InvalidationDelay < 0 {
		add("NOTIFY_INVALIDATION_DELAY", "must not be negative")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		add("NOTIFY_TIMEZONE", fmt.Sprintf("unknown timezone %q", cfg.Timezone))
	}
	if cfg.CriticalDays < 0 || cfg.CriticalDays >= cfg.HighDays || cfg.HighDays >= cfg.MediumDays {
		add("URGENCY_*_DAYS", "thresholds must satisfy 0 <= critical < high < medium")
	}

	if len(problems) == 0 {
		return nil
	}
	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
}
