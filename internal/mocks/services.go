package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

// Snapshot mocks the Snapshot method
func (m *MockNotificationService) Snapshot(ctx context.Context, token, groupID string) (*model.NotificationSnapshot, error) {
	args := m.Called(ctx, token, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NotificationSnapshot), args.Error(1)
}

// Stats mocks the Stats method
func (m *MockNotificationService) Stats(ctx context.Context, token, groupID string) (*model.FridgeStats, error) {
	args := m.Called(ctx, token, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FridgeStats), args.Error(1)
}

// MockRecommendationService is a mock implementation of the recommendation service
type MockRecommendationService struct {
	mock.Mock
}

// Recommend mocks the Recommend method
func (m *MockRecommendationService) Recommend(ctx context.Context, token, groupID string, page, pageSize int) (*model.RecommendationPage, error) {
	args := m.Called(ctx, token, groupID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecommendationPage), args.Error(1)
}

// MockRefreshLog is a mock implementation of the refresh log
type MockRefreshLog struct {
	mock.Mock
}

// Record mocks the Record method
func (m *MockRefreshLog) Record(ctx context.Context, run *model.RefreshRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// LastSuccess mocks the LastSuccess method
func (m *MockRefreshLog) LastSuccess(ctx context.Context, groupID string) (*time.Time, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// Recent mocks the Recent method
func (m *MockRefreshLog) Recent(ctx context.Context, groupID string, limit int) ([]model.RefreshRun, error) {
	args := m.Called(ctx, groupID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefreshRun), args.Error(1)
}

// MockTokenValidator is a mock implementation of the token validator
type MockTokenValidator struct {
	mock.Mock
}

// ValidateToken mocks the ValidateToken method
func (m *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}
