package service

import (
	"sort"
	"strings"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

const (
	uncategorized    = "Chưa phân loại"
	topCategoryLimit = 5
)

// ComputeFridgeStats counts expired and soon-expiring items and sums quantity
// per category. "Expiring soon" means today or tomorrow.
func ComputeFridgeStats(items []model.FridgeItem, now time.Time, loc *time.Location) model.FridgeStats {
	if loc == nil {
		loc = now.Location()
	}
	now = now.In(loc)

	stats := model.FridgeStats{Total: len(items), TopCategories: []model.CategoryTotal{}}
	totals := make(map[string]float64)
	for _, item := range items {
		if date, ok := ParseExpiry(item.ExpiredDate, loc); ok {
			switch days := calendarDays(now, date.In(loc)); {
			case days < 0:
				stats.Expired++
			case days <= 1:
				stats.ExpiringSoon++
			}
		}

		name := uncategorized
		if item.CategoryName != nil && strings.TrimSpace(*item.CategoryName) != "" {
			name = *item.CategoryName
		}
		totals[name] += item.Quantity
	}

	for name, qty := range totals {
		stats.TopCategories = append(stats.TopCategories, model.CategoryTotal{Name: name, Quantity: qty})
	}
	sort.Slice(stats.TopCategories, func(i, j int) bool {
		a, b := stats.TopCategories[i], stats.TopCategories[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(stats.TopCategories) > topCategoryLimit {
		stats.TopCategories = stats.TopCategories[:topCategoryLimit]
	}
	return stats
}
