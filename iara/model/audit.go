package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// SyncRun is the audit row written once per run into the target.
type SyncRun struct {
	ID         uuid.UUID      `gorm:"column:pk_uuid;type:uuid;primaryKey" json:"id"`
	StartedAt  time.Time      `gorm:"column:started_at;autoCreateTime:false" json:"startedAt"`
	FinishedAt time.Time      `gorm:"column:finished_at" json:"finishedAt"`
	Status     string         `gorm:"column:status;size:16" json:"status"`
	DryRun     bool           `gorm:"column:dry_run" json:"dryRun"`
	Applied    int            `gorm:"column:applied" json:"applied"`
	Skipped    int            `gorm:"column:skipped" json:"skipped"`
	Failed     int            `gorm:"column:failed" json:"failed"`
	Error      *string        `gorm:"column:error" json:"error,omitempty"`
	Stages     datatypes.JSON `gorm:"column:stages" json:"stages"`
}

func (SyncRun) TableName() string {
	return "iara_sync_run"
}
