package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
)

const maxRecentRuns = 100

// RefreshLog persists one RefreshRun per notification refresh pass. Only the
// pass outcome is stored; urgency results are always recomputed.
type RefreshLog struct {
	db *gorm.DB
}

// Ensure RefreshLog implements IRefreshLog
var _ IRefreshLog = (*RefreshLog)(nil)

// NewRefreshLog creates a new RefreshLog instance
func NewRefreshLog(db *gorm.DB) *RefreshLog {
	return &RefreshLog{db: db}
}

// Record stores a finished pass.
func (l *RefreshLog) Record(ctx context.Context, run *model.RefreshRun) error {
	if err := l.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("record refresh run: %w", err)
	}
	return nil
}

// LastSuccess returns when the group's inventory was last classified
// successfully, or nil if it never was.
func (l *RefreshLog) LastSuccess(ctx context.Context, groupID string) (*time.Time, error) {
	var run model.RefreshRun
	err := l.db.WithContext(ctx).
		Where("group_id = ? AND succeeded = ?", groupID, true).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last successful run: %w", err)
	}
	if run.FinishedAt != nil {
		return run.FinishedAt, nil
	}
	return &run.StartedAt, nil
}

// Recent returns the group's latest runs, newest first.
func (l *RefreshLog) Recent(ctx context.Context, groupID string, limit int) ([]model.RefreshRun, error) {
	if limit <= 0 || limit > maxRecentRuns {
		limit = maxRecentRuns
	}
	var runs []model.RefreshRun
	err := l.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	return runs, nil
}

// Prune deletes runs that started before cutoff and reports how many were removed.
func (l *RefreshLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := l.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&model.RefreshRun{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune refresh runs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
