package model

// Location is where an item is stored in the fridge.
type Location string

const (
	LocationCool   Location = "cool"
	LocationFreeze Location = "freeze"
)

// FridgeItem is one inventory line as returned by the store backend.
// ExpiredDate is kept raw ("YYYY-MM-DD"); it is parsed at classification time.
type FridgeItem struct {
	ID           int64    `json:"id"`
	ProductID    *int64   `json:"product"`
	ProductName  string   `json:"product_name"`
	Unit         string   `json:"product_unit"`
	CategoryName *string  `json:"product_category_name"`
	CategoryID   *int64   `json:"category_id"`
	Quantity     float64  `json:"quantity"`
	ExpiredDate  string   `json:"expiredDate"`
	Location     Location `json:"location"`
}

// CategoryTotal is the summed quantity of one product category.
type CategoryTotal struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// FridgeStats summarises a group's inventory.
type FridgeStats struct {
	Total         int             `json:"total"`
	Expired       int             `json:"expired"`
	ExpiringSoon  int             `json:"expiring_soon"`
	TopCategories []CategoryTotal `json:"top_categories"`
}
