package model

// Product is a catalog entry referenced by recipe ingredients.
type Product struct {
	ProductID   int64  `json:"productID"`
	ProductName string `json:"productName"`
	Unit        string `json:"unit"`
}

// RecipeIngredient is one line of a recipe. Product may be absent when the
// backend could not resolve the catalog entry.
type RecipeIngredient struct {
	Product  *Product `json:"product"`
	Quantity float64  `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

type Recipe struct {
	RecipeID    int64              `json:"recipeID"`
	RecipeName  string             `json:"recipeName"`
	Description string             `json:"description"`
	Instruction string             `json:"instruction"`
	IsCustom    bool               `json:"isCustom"`
	Image       *string            `json:"image"`
	Ingredients []RecipeIngredient `json:"ingredient_set"`
}

// RecipeMatchResult scores one recipe against the fridge inventory.
type RecipeMatchResult struct {
	RecipeID                 int64     `json:"recipe_id"`
	RecipeName               string    `json:"recipe_name"`
	MatchingIngredientsCount int       `json:"matching_ingredients_count"`
	TotalIngredientsCount    int       `json:"total_ingredients"`
	MatchPercentage          int       `json:"match_percentage"`
	MissingIngredients       []Product `json:"missing_ingredients"`
}

// Recommendation is a scored recipe with the fields a recipe card needs.
type Recommendation struct {
	RecipeMatchResult
	Description string             `json:"description"`
	Instruction string             `json:"instruction"`
	IsCustom    bool               `json:"isCustom"`
	Image       *string            `json:"image"`
	Ingredients []RecipeIngredient `json:"ingredient_set"`
}

// RecommendationPage is one page of ranked recommendations.
type RecommendationPage struct {
	TotalRecommendations int              `json:"total_recommendations"`
	Page                 int              `json:"page"`
	PageSize             int              `json:"page_size"`
	TotalPages           int              `json:"total_pages"`
	Recommendations      []Recommendation `json:"recommendations"`
}
