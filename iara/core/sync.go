package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"iara.com/iarasync/core"
	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/logging"
)

type SyncOptions struct {
	DryRun       bool
	GenderPolicy GenderPolicy

	// Audit writes an iara_sync_run row into the target after a committing
	// run. Dry runs are not recorded.
	Audit bool

	OnStage func(core.StageReport)
}

// Synchronize reconciles the origin store into the target store.
func Synchronize(ctx context.Context, source, target *gorm.DB, opts SyncOptions) (*core.RunReport, error) {
	state := NewRunState(time.Now(), opts.GenderPolicy)

	coordinator := &core.Coordinator{
		Source: source,
		Target: target,
		Stages: Pipeline(state),
		Options: core.Options{
			DryRun:  opts.DryRun,
			RunID:   uuid.New(),
			OnStage: opts.OnStage,
		},
	}

	report, err := coordinator.Run(ctx)

	// a dry run leaves the target untouched, audit row included
	if opts.Audit && !opts.DryRun && ctx.Err() == nil {
		if auditErr := RecordRun(ctx, target, report); auditErr != nil {
			logging.FromContext(ctx).Warn().Err(auditErr).Msg("failed to record sync run")
		}
	}

	return report, err
}

// NewSyncRun builds the audit row of a report.
func NewSyncRun(report *core.RunReport) (*model.SyncRun, error) {
	stages, err := json.Marshal(report.Stages)
	if err != nil {
		return nil, fmt.Errorf("marshal stages: %w", err)
	}

	totals := report.Totals()
	run := &model.SyncRun{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Status:     model.RunStatusSucceeded,
		DryRun:     report.DryRun,
		Applied:    totals.Applied,
		Skipped:    totals.Skipped,
		Failed:     totals.Failed,
		Stages:     datatypes.JSON(stages),
	}
	if !report.Succeeded() {
		run.Status = model.RunStatusFailed
		run.Error = &report.Error
	}
	return run, nil
}

func RecordRun(ctx context.Context, db *gorm.DB, report *core.RunReport) error {
	run, err := NewSyncRun(report)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(run).Error
}

type RunFilter struct {
	Since  *time.Time
	Status string
	Limit  int
	Offset int
}

// SearchRuns returns the matching audit rows, newest first, and the total
// count before paging.
func SearchRuns(ctx context.Context, db *gorm.DB, filter RunFilter) ([]model.SyncRun, int64, error) {
	query := db.WithContext(ctx).Model(&model.SyncRun{})
	if filter.Since != nil {
		query = query.Where("started_at >= ?", *filter.Since)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var runs []model.SyncRun
	err := query.
		Order("started_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&runs).Error
	return runs, total, err
}
