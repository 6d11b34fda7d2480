package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

// ErrMissingGroup is returned when an operation that is keyed by group, such
// as a watch, is given none.
var ErrMissingGroup = errors.New("group_id is required")

// NotificationService turns a group's inventory into expiry notifications.
type NotificationService struct {
	backend    BackendClient
	classifier *UrgencyClassifier
	loc        *time.Location
	now        func() time.Time
}

// Ensure NotificationService implements INotificationService
var _ INotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(backend BackendClient, classifier *UrgencyClassifier, loc *time.Location) *NotificationService {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationService{
		backend:    backend,
		classifier: classifier,
		loc:        loc,
		now:        time.Now,
	}
}

// Snapshot fetches the inventory and returns the urgent items, most urgent
// first. An empty groupID leaves the choice of group to the store backend.
func (s *NotificationService) Snapshot(ctx context.Context, token, groupID string) (*model.NotificationSnapshot, error) {
	items, err := s.backend.ListFridgeItems(ctx, token, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch fridge items: %w", err)
	}
	return s.Build(groupID, items, s.now()), nil
}

// Build classifies items as seen at now. Items that are not urgent are dropped.
func (s *NotificationService) Build(groupID string, items []model.FridgeItem, now time.Time) *model.NotificationSnapshot {
	snap := &model.NotificationSnapshot{
		GroupID:   groupID,
		Items:     []model.Notification{},
		Counts:    make(map[model.UrgencyLevel]int),
		UpdatedAt: now,
	}
	for _, item := range items {
		res := s.classifier.ClassifyItem(item, now)
		if res.Level == model.UrgencyNone {
			continue
		}
		snap.Items = append(snap.Items, model.Notification{FridgeItem: item, UrgencyResult: res})
		snap.Counts[res.Level]++
	}
	SortByUrgency(snap.Items)
	snap.TotalExpiring = len(snap.Items)
	return snap
}

// Stats fetches the inventory and summarises it.
func (s *NotificationService) Stats(ctx context.Context, token, groupID string) (*model.FridgeStats, error) {
	items, err := s.backend.ListFridgeItems(ctx, token, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch fridge items: %w", err)
	}
	stats := ComputeFridgeStats(items, s.now(), s.loc)
	return &stats, nil
}
