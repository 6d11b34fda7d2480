package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fridgewatch/fridgewatch/backend/internal/backend"
	"github.com/fridgewatch/fridgewatch/backend/internal/middleware"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

const (
	defaultPingInterval = 25 * time.Second
	defaultRunsLimit    = 20
)

// WatchHub opens and finds notification watches. service.NotificationHub
// implements it.
type WatchHub interface {
	Open(ctx context.Context, token, userID, groupID string) (*service.WatchSession, error)
	Lookup(id, userID string) (*service.WatchSession, error)
}

type NotificationHandler struct {
	notifications service.INotificationService
	hub           WatchHub
	refreshLog    service.IRefreshLog
	logger        *slog.Logger
	pingInterval  time.Duration
}

// NewNotificationHandler creates a handler. refreshLog may be nil.
func NewNotificationHandler(notifications service.INotificationService, hub WatchHub, refreshLog service.IRefreshLog, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		hub:           hub,
		refreshLog:    refreshLog,
		logger:        logger,
		pingInterval:  defaultPingInterval,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/fridge/notifications")
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/stream", h.Stream)
		notifications.GET("/runs", h.ListRuns)
		notifications.POST("/watches/:id/refresh", h.RefreshWatch)
		notifications.POST("/watches/:id/visibility", h.SetVisibility)
	}
}

// GetNotifications classifies the group's inventory once. Without group_id
// the store backend picks the user's default group.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	groupID := c.Query("group_id")
	snap, err := h.notifications.Snapshot(c.Request.Context(), middleware.Token(c), groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := types.NotificationsResponse{NotificationSnapshot: snap}
	if h.refreshLog != nil && groupID != "" {
		last, err := h.refreshLog.LastSuccess(c.Request.Context(), groupID)
		if err != nil {
			h.logger.Warn("failed to read last refresh", slog.String("group_id", groupID), slog.String("error", err.Error()))
		}
		resp.LastRefreshedAt = last
	}
	c.JSON(http.StatusOK, resp)
}

// Stream opens a watch for the lifetime of the request and pushes every
// applied snapshot as a server-sent event.
func (h *NotificationHandler) Stream(c *gin.Context) {
	groupID := c.Query("group_id")
	session, err := h.hub.Open(c.Request.Context(), middleware.Token(c), middleware.UserID(c), groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer session.Close()

	logger := h.logger.With(slog.String("watch_id", session.ID()), slog.String("group_id", groupID))
	logger.Info("notification stream opened")
	defer logger.Info("notification stream closed")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("watch", types.WatchResponse{WatchID: session.ID(), GroupID: groupID})
	c.Writer.Flush()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case snap := <-session.Updates():
			c.SSEvent("snapshot", snap)
			return true
		case err := <-session.Errors():
			_, msg := ClassifyError(err)
			c.SSEvent("error", types.ErrorResponse{Error: msg})
			// A rejected token will not become valid again.
			return !errors.Is(err, backend.ErrUnauthorized)
		case t := <-ping.C:
			c.SSEvent("ping", gin.H{"time": t.UTC()})
			return true
		case <-session.Done():
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// RefreshWatch runs a pass on an open watch now.
func (h *NotificationHandler) RefreshWatch(c *gin.Context) {
	session, err := h.hub.Lookup(c.Param("id"), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	session.Refresh()
	c.JSON(http.StatusAccepted, types.WatchResponse{WatchID: session.ID(), GroupID: session.GroupID()})
}

// SetVisibility records whether the client's page is visible. Becoming
// visible runs a pass.
func (h *NotificationHandler) SetVisibility(c *gin.Context) {
	var req types.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}
	session, err := h.hub.Lookup(c.Param("id"), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	session.SetVisible(*req.Visible)
	c.JSON(http.StatusAccepted, types.WatchResponse{WatchID: session.ID(), GroupID: session.GroupID()})
}

// ListRuns returns the most recent refresh passes for a group.
func (h *NotificationHandler) ListRuns(c *gin.Context) {
	groupID := c.Query("group_id")
	if groupID == "" {
		_ = c.Error(service.ErrMissingGroup)
		return
	}
	if h.refreshLog == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []any{}})
		return
	}
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(invalidRequest(errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	runs, err := h.refreshLog.Recent(c.Request.Context(), groupID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
