package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fridgewatch/fridgewatch/backend/internal/api"
	"github.com/fridgewatch/fridgewatch/backend/internal/events"
	"github.com/fridgewatch/fridgewatch/backend/internal/health"
	"github.com/fridgewatch/fridgewatch/backend/internal/metrics"
	"github.com/fridgewatch/fridgewatch/backend/internal/middleware"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

// Dependencies are the collaborators the routes are built from. Health,
// Gatherer, Metrics, RefreshLog and RateLimiter are optional.
type Dependencies struct {
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	InvalidationDelay  time.Duration

	Tokens          middleware.TokenValidator
	Notifications   service.INotificationService
	Recommendations service.IRecommendationService
	Hub             api.WatchHub
	RefreshLog      service.IRefreshLog
	Bus             events.Bus

	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	Health      *health.Checker
	RateLimiter *middleware.RateLimiter
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestLogger(deps.Logger),
		middleware.CORS(deps.CORSAllowedOrigins),
		middleware.ErrorHandler(deps.Logger, api.ClassifyError),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
	})

	if deps.Health != nil {
		router.GET("/health", deps.Health.ReadyHandler())
		router.GET("/health/live", deps.Health.LiveHandler())
	}
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	// API v1 routes, all authenticated
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(deps.Tokens))

	var recorder api.InvalidationRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	var changed []gin.HandlerFunc
	if deps.RateLimiter != nil {
		changed = append(changed, deps.RateLimiter.Middleware())
	}

	notificationHandler := api.NewNotificationHandler(deps.Notifications, deps.Hub, deps.RefreshLog, deps.Logger)
	fridgeHandler := api.NewFridgeHandler(deps.Notifications, deps.Bus, recorder, deps.InvalidationDelay, deps.Logger)
	recipeHandler := api.NewRecipeHandler(deps.Recommendations)

	notificationHandler.RegisterRoutes(v1)
	fridgeHandler.RegisterRoutes(v1, changed...)
	recipeHandler.RegisterRoutes(v1)

	return router
}
