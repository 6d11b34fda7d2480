package model

import "time"

// UrgencyLevel is the coarse severity of an item's expiry.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyNone     UrgencyLevel = "none"
)

// Rank orders levels from most to least urgent.
func (l UrgencyLevel) Rank() int {
	switch l {
	case UrgencyCritical:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	default:
		return 3
	}
}

// UrgencyResult is the derived classification of one expiry date. It is
// recomputed on every refresh and never stored.
type UrgencyResult struct {
	Level         UrgencyLevel `json:"urgency"`
	Label         string       `json:"urgency_text"`
	DaysRemaining *int         `json:"days_remaining"`
	Expired       bool         `json:"expired"`
}

// Notification pairs an inventory item with its urgency.
type Notification struct {
	FridgeItem
	UrgencyResult
}

// NotificationSnapshot is the result of one refresh pass for a group.
type NotificationSnapshot struct {
	GroupID       string               `json:"group_id"`
	Items         []Notification       `json:"items"`
	TotalExpiring int                  `json:"total_expiring"`
	Counts        map[UrgencyLevel]int `json:"counts"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Seq           uint64               `json:"seq"`
}
