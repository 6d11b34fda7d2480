package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

// DefaultPageSize is the number of recommendations per page when the caller
// does not ask for one.
const DefaultPageSize = 4

// fridgeIndex is the lookup view of an inventory used for matching.
type fridgeIndex struct {
	ids   map[int64]struct{}
	names map[string]struct{}
}

func newFridgeIndex(items []model.FridgeItem) fridgeIndex {
	idx := fridgeIndex{
		ids:   make(map[int64]struct{}, len(items)),
		names: make(map[string]struct{}, len(items)),
	}
	for _, item := range items {
		if item.ProductID != nil && *item.ProductID > 0 {
			idx.ids[*item.ProductID] = struct{}{}
		}
		if name := normalizeName(item.ProductName); name != "" {
			idx.names[name] = struct{}{}
		}
	}
	return idx
}

func (idx fridgeIndex) has(p *model.Product) bool {
	if p.ProductID > 0 {
		if _, ok := idx.ids[p.ProductID]; ok {
			return true
		}
	}
	if name := normalizeName(p.ProductName); name != "" {
		_, ok := idx.names[name]
		return ok
	}
	return false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ScoreRecipe measures how much of a recipe can be cooked from the fridge.
// An ingredient matches by product ID, falling back to a case-insensitive
// name comparison. Ingredients without a product are ignored and a product
// listed more than once counts once.
func ScoreRecipe(ingredients []model.RecipeIngredient, fridgeItems []model.FridgeItem) model.RecipeMatchResult {
	return newFridgeIndex(fridgeItems).score(ingredients)
}

func (idx fridgeIndex) score(ingredients []model.RecipeIngredient) model.RecipeMatchResult {
	result := model.RecipeMatchResult{MissingIngredients: []model.Product{}}
	seen := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		if ing.Product == nil {
			continue
		}
		key := productKey(ing.Product)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result.TotalIngredientsCount++
		if idx.has(ing.Product) {
			result.MatchingIngredientsCount++
		} else {
			result.MissingIngredients = append(result.MissingIngredients, *ing.Product)
		}
	}
	result.MatchPercentage = matchPercentage(result.MatchingIngredientsCount, result.TotalIngredientsCount)
	return result
}

// productKey identifies a product for deduplication: by ID when it has one,
// otherwise by normalized name.
func productKey(p *model.Product) string {
	if p.ProductID > 0 {
		return "id:" + strconv.FormatInt(p.ProductID, 10)
	}
	return "name:" + normalizeName(p.ProductName)
}

func matchPercentage(matching, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(matching) / float64(total) * 100))
}

// ScoreRecipes scores every recipe against the same inventory.
func ScoreRecipes(recipes []model.Recipe, fridgeItems []model.FridgeItem) []model.Recommendation {
	idx := newFridgeIndex(fridgeItems)
	out := make([]model.Recommendation, 0, len(recipes))
	for _, r := range recipes {
		res := idx.score(r.Ingredients)
		res.RecipeID = r.RecipeID
		res.RecipeName = r.RecipeName
		out = append(out, model.Recommendation{
			RecipeMatchResult: res,
			Description:       r.Description,
			Instruction:       r.Instruction,
			IsCustom:          r.IsCustom,
			Image:             r.Image,
			Ingredients:       r.Ingredients,
		})
	}
	return out
}

// RankRecipes sorts by match percentage, then matching count, then recipe
// name and ID so equal scores have a stable order.
func RankRecipes(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		if a.MatchingIngredientsCount != b.MatchingIngredientsCount {
			return a.MatchingIngredientsCount > b.MatchingIngredientsCount
		}
		if na, nb := strings.ToLower(a.RecipeName), strings.ToLower(b.RecipeName); na != nb {
			return na < nb
		}
		return a.RecipeID < b.RecipeID
	})
}

// Paginate slices ranked recommendations. A page below 1 yields the first
// page and a page past the end yields the last one; the returned Page is the
// page actually served.
func Paginate(recs []model.Recommendation, page, pageSize int) model.RecommendationPage {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(recs)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	items := make([]model.Recommendation, 0, end-start)
	items = append(items, recs[start:end]...)

	return model.RecommendationPage{
		TotalRecommendations: total,
		Page:                 page,
		PageSize:             pageSize,
		TotalPages:           totalPages,
		Recommendations:      items,
	}
}
