package types

import (
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

// VisibilityRequest reports whether the client's page is visible.
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// InventoryChangedRequest signals that a group's inventory was mutated.
type InventoryChangedRequest struct {
	GroupID string `json:"group_id" binding:"required"`
	DelayMS *int   `json:"delay_ms" binding:"omitempty,min=0,max=60000"`
}

// ScoreRecipeRequest scores a recipe against an explicit inventory.
type ScoreRecipeRequest struct {
	Recipe      model.Recipe       `json:"recipe"`
	FridgeItems []model.FridgeItem `json:"fridge_items"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NotificationsResponse is a one-shot notification snapshot together with the
// last time any watch refreshed the group successfully.
type NotificationsResponse struct {
	*model.NotificationSnapshot
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

// InvalidationResponse acknowledges an inventory change signal.
type InvalidationResponse struct {
	GroupID string `json:"group_id"`
	DelayMS int64  `json:"delay_ms"`
}

// WatchResponse acknowledges a request made against an open watch.
type WatchResponse struct {
	WatchID string `json:"watch_id"`
	GroupID string `json:"group_id"`
}
