package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshRun is the audit record of one notification refresh pass.
type RefreshRun struct {
	ID            string     `gorm:"type:varchar(36);primary_key" json:"id"`
	GroupID       string     `gorm:"size:64;index:idx_refresh_runs_group_started" json:"group_id"`
	WatchID       string     `gorm:"size:36;index" json:"watch_id"`
	Trigger       string     `gorm:"size:32;not null" json:"trigger"`
	Seq           uint64     `json:"seq"`
	StartedAt     time.Time  `gorm:"not null;index:idx_refresh_runs_group_started" json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	ItemCount     int        `json:"item_count"`
	CriticalCount int        `json:"critical_count"`
	Succeeded     bool       `gorm:"not null;default:false" json:"succeeded"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (RefreshRun) TableName() string {
	return "refresh_runs"
}

// BeforeCreate assigns a UUID when none was set.
func (r *RefreshRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
