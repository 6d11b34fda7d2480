package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

// MockBackendClient is a mock implementation of the store backend client
type MockBackendClient struct {
	mock.Mock
}

// ListFridgeItems mocks the ListFridgeItems method
func (m *MockBackendClient) ListFridgeItems(ctx context.Context, token, groupID string) ([]model.FridgeItem, error) {
	args := m.Called(ctx, token, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FridgeItem), args.Error(1)
}

// ListRecipes mocks the ListRecipes method
func (m *MockBackendClient) ListRecipes(ctx context.Context, token string) ([]model.Recipe, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}
