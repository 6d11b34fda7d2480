package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fridgewatch/fridgewatch/backend/internal/events"
	"github.com/fridgewatch/fridgewatch/backend/internal/middleware"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

// InvalidationRecorder counts accepted inventory change signals.
type InvalidationRecorder interface {
	RecordInvalidation()
}

type FridgeHandler struct {
	notifications service.INotificationService
	bus           events.Bus
	recorder      InvalidationRecorder
	delay         time.Duration
	logger        *slog.Logger
}

// NewFridgeHandler creates a handler. delay applies when a change signal does
// not carry its own delay_ms. recorder may be nil.
func NewFridgeHandler(notifications service.INotificationService, bus events.Bus, recorder InvalidationRecorder, delay time.Duration, logger *slog.Logger) *FridgeHandler {
	return &FridgeHandler{
		notifications: notifications,
		bus:           bus,
		recorder:      recorder,
		delay:         delay,
		logger:        logger,
	}
}

// RegisterRoutes mounts the fridge routes. changed runs in front of the
// inventory change endpoint, typically a rate limiter.
func (h *FridgeHandler) RegisterRoutes(router *gin.RouterGroup, changed ...gin.HandlerFunc) {
	fridge := router.Group("/fridge")
	{
		fridge.POST("/changed", append(changed, h.InventoryChanged)...)
		fridge.GET("/stats", h.GetStats)
	}
}

// InventoryChanged tells every watch of the group to refresh, after an
// optional delay that lets the store backend settle.
func (h *FridgeHandler) InventoryChanged(c *gin.Context) {
	var req types.InventoryChangedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	delay := h.delay
	if req.DelayMS != nil {
		delay = time.Duration(*req.DelayMS) * time.Millisecond
	}
	if delay <= 0 {
		if err := h.bus.Publish(c.Request.Context(), req.GroupID); err != nil {
			_ = c.Error(err)
			return
		}
	} else {
		events.PublishAfter(h.bus, req.GroupID, delay, h.logger)
	}
	if h.recorder != nil {
		h.recorder.RecordInvalidation()
	}

	h.logger.Debug("inventory change accepted",
		slog.String("group_id", req.GroupID),
		slog.String("user_id", middleware.UserID(c)),
		slog.Duration("delay", delay),
	)
	c.JSON(http.StatusAccepted, types.InvalidationResponse{GroupID: req.GroupID, DelayMS: delay.Milliseconds()})
}

// GetStats summarises the group's inventory.
func (h *FridgeHandler) GetStats(c *gin.Context) {
	stats, err := h.notifications.Stats(c.Request.Context(), middleware.Token(c), c.Query("group_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
