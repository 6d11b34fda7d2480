package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fridgewatch/fridgewatch/backend/internal/mocks"
	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

func TestRecommend(t *testing.T) {
	backend := new(mocks.MockBackendClient)
	backend.On("ListFridgeItems", mock.Anything, "tok", "g").Return([]model.FridgeItem{
		fridgeItem(1, "egg"), fridgeItem(2, "milk"),
	}, nil)
	backend.On("ListRecipes", mock.Anything, "tok").Return([]model.Recipe{
		{RecipeID: 1, RecipeName: "cake", Ingredients: []model.RecipeIngredient{ingredient(1, "egg"), ingredient(3, "flour")}},
		{RecipeID: 2, RecipeName: "custard", Ingredients: []model.RecipeIngredient{ingredient(1, "egg"), ingredient(2, "milk")}},
		{RecipeID: 3, RecipeName: "bread", Ingredients: []model.RecipeIngredient{ingredient(3, "flour")}},
	}, nil)

	page, err := NewRecommendationService(backend).Recommend(context.Background(), "tok", "g", 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalRecommendations)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Recommendations, 2)
	assert.Equal(t, int64(2), page.Recommendations[0].RecipeID)
	assert.Equal(t, 100, page.Recommendations[0].MatchPercentage)
	assert.Equal(t, int64(1), page.Recommendations[1].RecipeID)
	assert.Equal(t, 50, page.Recommendations[1].MatchPercentage)
	require.Len(t, page.Recommendations[1].MissingIngredients, 1)
	assert.Equal(t, "flour", page.Recommendations[1].MissingIngredients[0].ProductName)
	backend.AssertExpectations(t)
}

func TestRecommendBackendFailure(t *testing.T) {
	backend := new(mocks.MockBackendClient)
	backend.On("ListFridgeItems", mock.Anything, "tok", "g").Return([]model.FridgeItem{}, nil)
	backend.On("ListRecipes", mock.Anything, "tok").Return(nil, errors.New("boom"))

	_, err := NewRecommendationService(backend).Recommend(context.Background(), "tok", "g", 1, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch recipes")
}

func TestRecommendWithoutGroup(t *testing.T) {
	backend := new(mocks.MockBackendClient)
	backend.On("ListFridgeItems", mock.Anything, "tok", "").Return([]model.FridgeItem{fridgeItem(1, "egg")}, nil)
	backend.On("ListRecipes", mock.Anything, "tok").Return([]model.Recipe{
		{RecipeID: 1, RecipeName: "omelette", Ingredients: []model.RecipeIngredient{ingredient(1, "egg")}},
	}, nil)

	page, err := NewRecommendationService(backend).Recommend(context.Background(), "tok", "", 1, 4)
	require.NoError(t, err)
	require.Len(t, page.Recommendations, 1)
	assert.Equal(t, 100, page.Recommendations[0].MatchPercentage)
	backend.AssertExpectations(t)
}
