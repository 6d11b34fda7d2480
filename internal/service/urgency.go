package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

const (
	labelExpired  = "Đã hết hạn!"
	labelToday    = "Hết hạn hôm nay"
	labelTomorrow = "Hết hạn ngày mai"
	labelInDays   = "Hết hạn trong %d ngày"
)

// UrgencyThresholds are the inclusive upper bounds, in days remaining, of each
// urgency level.
type UrgencyThresholds struct {
	CriticalDays int
	HighDays     int
	MediumDays   int
}

// DefaultUrgencyThresholds returns the 1/3/7 day bands.
func DefaultUrgencyThresholds() UrgencyThresholds {
	return UrgencyThresholds{CriticalDays: 1, HighDays: 3, MediumDays: 7}
}

// UrgencyClassifier maps expiry dates to urgency levels in a fixed timezone.
type UrgencyClassifier struct {
	thresholds UrgencyThresholds
	loc        *time.Location
}

// NewUrgencyClassifier creates a classifier. A nil location means "use the
// location of the now argument" on every call.
func NewUrgencyClassifier(thresholds UrgencyThresholds, loc *time.Location) *UrgencyClassifier {
	return &UrgencyClassifier{thresholds: thresholds, loc: loc}
}

// ClassifyUrgency classifies with the default thresholds in now's location.
func ClassifyUrgency(expiredDate *time.Time, now time.Time) model.UrgencyResult {
	return NewUrgencyClassifier(DefaultUrgencyThresholds(), nil).Classify(expiredDate, now)
}

// Classify computes the urgency of an item expiring on expiredDate as seen at now.
func (c *UrgencyClassifier) Classify(expiredDate *time.Time, now time.Time) model.UrgencyResult {
	if expiredDate == nil {
		return model.UrgencyResult{Level: model.UrgencyNone}
	}

	loc := c.location(now)
	days := calendarDays(now.In(loc), expiredDate.In(loc))

	result := model.UrgencyResult{DaysRemaining: &days}
	switch {
	case days < 0:
		result.Level = model.UrgencyCritical
		result.Label = labelExpired
		result.Expired = true
	case days <= c.thresholds.CriticalDays:
		result.Level = model.UrgencyCritical
		result.Label = daysLabel(days)
	case days <= c.thresholds.HighDays:
		result.Level = model.UrgencyHigh
		result.Label = daysLabel(days)
	case days <= c.thresholds.MediumDays:
		result.Level = model.UrgencyMedium
		result.Label = daysLabel(days)
	default:
		result.Level = model.UrgencyNone
	}
	return result
}

// ClassifyItem parses the item's raw expiry date and classifies it. Items
// without a usable date are not urgent.
func (c *UrgencyClassifier) ClassifyItem(item model.FridgeItem, now time.Time) model.UrgencyResult {
	date, ok := ParseExpiry(item.ExpiredDate, c.location(now))
	if !ok {
		return model.UrgencyResult{Level: model.UrgencyNone}
	}
	return c.Classify(&date, now)
}

func (c *UrgencyClassifier) location(now time.Time) *time.Location {
	if c.loc != nil {
		return c.loc
	}
	return now.Location()
}

// ParseExpiry accepts a calendar date (2006-01-02, read in loc) or an RFC3339
// timestamp.
func ParseExpiry(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// calendarDays counts midnights between from and to using their calendar
// dates, so 23h and 25h DST days still count as one.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func daysLabel(days int) string {
	switch days {
	case 0:
		return labelToday
	case 1:
		return labelTomorrow
	default:
		return fmt.Sprintf(labelInDays, days)
	}
}

// SortByUrgency orders notifications most urgent first, then by days
// remaining, then by product name.
func SortByUrgency(items []model.Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.Level.Rank(), b.Level.Rank(); ra != rb {
			return ra < rb
		}
		if da, db := daysOrMax(a.DaysRemaining), daysOrMax(b.DaysRemaining); da != db {
			return da < db
		}
		return strings.ToLower(a.ProductName) < strings.ToLower(b.ProductName)
	})
}

func daysOrMax(d *int) int {
	if d == nil {
		return int(^uint(0) >> 1)
	}
	return *d
}
