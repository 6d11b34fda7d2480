// Package health reports the state of the service's dependencies.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fridgewatch/fridgewatch/backend/internal/database"
)

// Status represents the health status of a service or dependency.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the health check result for a single dependency.
type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthStatus represents the overall health status of the service.
type HealthStatus struct {
	Status        Status                 `json:"status"`
	Version       string                 `json:"version,omitempty"`
	ActiveWatches int                    `json:"active_watches"`
	Checks        map[string]CheckResult `json:"checks"`
}

// Checker pings the database and, when configured, Redis.
type Checker struct {
	db          *gorm.DB
	redisClient *redis.Client
	watches     func() int
	version     string
}

// NewChecker creates a new health checker. redisClient and watches may be nil.
func NewChecker(db *gorm.DB, redisClient *redis.Client, watches func() int, version string) *Checker {
	return &Checker{
		db:          db,
		redisClient: redisClient,
		watches:     watches,
		version:     version,
	}
}

// Check performs health checks on all dependencies and returns the overall status.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}
	if c.watches != nil {
		status.ActiveWatches = c.watches()
	}

	if c.db != nil {
		status.record("database", probe(func() error { return database.Ping(checkCtx, c.db) }))
	}
	if c.redisClient != nil {
		status.record("redis", probe(func() error { return c.redisClient.Ping(checkCtx).Err() }))
	}
	return status
}

func (s *HealthStatus) record(name string, res CheckResult) {
	s.Checks[name] = res
	if res.Status != StatusHealthy {
		s.Status = StatusUnhealthy
	}
}

func probe(ping func() error) CheckResult {
	start := time.Now()
	if err := ping(); err != nil {
		return CheckResult{Status: StatusUnhealthy, LatencyMs: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
}

// LiveHandler returns a Gin handler for liveness probes.
func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadyHandler returns a Gin handler for readiness probes.
func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())

		httpStatus := http.StatusOK
		if status.Status != StatusHealthy {
			httpStatus = http.StatusServiceUnavailable
		}
		ctx.JSON(httpStatus, status)
	}
}
