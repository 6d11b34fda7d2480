package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fridgewatch/fridgewatch/backend/internal/middleware"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

const maxPageSize = 50

type RecipeHandler struct {
	recommendations service.IRecommendationService
}

func NewRecipeHandler(recommendations service.IRecommendationService) *RecipeHandler {
	return &RecipeHandler{recommendations: recommendations}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/fridge/recommendations", h.Recommendations)
	router.POST("/recipes/score", h.ScoreRecipe)
}

// Recommendations returns one page of recipes ranked by fridge coverage.
// Unparseable paging values fall back to the first page of default size.
func (h *RecipeHandler) Recommendations(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", service.DefaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result, err := h.recommendations.Recommend(c.Request.Context(), middleware.Token(c), c.Query("group_id"), page, pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ScoreRecipe scores a posted recipe against posted fridge items without
// calling the store backend.
func (h *RecipeHandler) ScoreRecipe(c *gin.Context) {
	var req types.ScoreRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	result := service.ScoreRecipe(req.Recipe.Ingredients, req.FridgeItems)
	result.RecipeID = req.Recipe.RecipeID
	result.RecipeName = req.Recipe.RecipeName
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}
