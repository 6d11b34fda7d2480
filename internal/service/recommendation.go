package service

import (
	"context"
	"fmt"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

// RecommendationService ranks recipes by how much of them the fridge covers.
// Match percentages are always computed here; values sent by the store
// backend are ignored.
type RecommendationService struct {
	backend BackendClient
}

// Ensure RecommendationService implements IRecommendationService
var _ IRecommendationService = (*RecommendationService)(nil)

// NewRecommendationService creates a new RecommendationService instance
func NewRecommendationService(backend BackendClient) *RecommendationService {
	return &RecommendationService{backend: backend}
}

// Recommend scores every recipe against the group's inventory and returns the
// requested page.
func (s *RecommendationService) Recommend(ctx context.Context, token, groupID string, page, pageSize int) (*model.RecommendationPage, error) {
	items, err := s.backend.ListFridgeItems(ctx, token, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch fridge items: %w", err)
	}
	recipes, err := s.backend.ListRecipes(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch recipes: %w", err)
	}

	recs := ScoreRecipes(recipes, items)
	RankRecipes(recs)
	result := Paginate(recs, page, pageSize)
	return &result, nil
}
