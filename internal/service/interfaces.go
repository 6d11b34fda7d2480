package service

import (
	"context"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

// BackendClient is the subset of the store backend API the services use.
type BackendClient interface {
	ListFridgeItems(ctx context.Context, token, groupID string) ([]model.FridgeItem, error)
	ListRecipes(ctx context.Context, token string) ([]model.Recipe, error)
}

// INotificationService defines the interface for expiry notification operations
type INotificationService interface {
	Snapshot(ctx context.Context, token, groupID string) (*model.NotificationSnapshot, error)
	Stats(ctx context.Context, token, groupID string) (*model.FridgeStats, error)
}

// IRecommendationService defines the interface for recipe recommendation operations
type IRecommendationService interface {
	Recommend(ctx context.Context, token, groupID string, page, pageSize int) (*model.RecommendationPage, error)
}

// IRefreshLog defines the interface for the refresh pass audit log
type IRefreshLog interface {
	Record(ctx context.Context, run *model.RefreshRun) error
	LastSuccess(ctx context.Context, groupID string) (*time.Time, error)
	Recent(ctx context.Context, groupID string, limit int) ([]model.RefreshRun, error)
}
