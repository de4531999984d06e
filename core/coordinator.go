package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"iara.com/iarasync/logging"
)

type Options struct {
	// DryRun rolls every stage back instead of committing it.
	DryRun bool

	RunID uuid.UUID

	// OnStage is called after every stage that ran to the end.
	OnStage func(StageReport)
}

// Coordinator runs stages strictly in order, one target transaction per stage.
type Coordinator struct {
	Source  *gorm.DB
	Target  *gorm.DB
	Stages  []Stage
	Options Options
}

// Run executes the pipeline. On a fatal error the current stage is rolled
// back, earlier stages stay committed, and the partial report is returned
// together with the error.
func (c *Coordinator) Run(ctx context.Context) (*RunReport, error) {
	runID := c.Options.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	report := &RunReport{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		DryRun:    c.Options.DryRun,
	}

	ctx = logging.WithRunID(ctx, runID.String())
	log := logging.FromContext(ctx)

	rec := NewReconciler()
	for _, stage := range c.Stages {
		stageReport, err := c.runStage(ctx, stage, rec)
		if err != nil {
			report.FinishedAt = time.Now().UTC()
			report.Error = err.Error()
			log.Error().Err(err).Str("stage", stage.StageName()).Msg("Critical error during synchronization")
			return report, err
		}

		report.Stages = append(report.Stages, stageReport)
		if c.Options.OnStage != nil {
			c.Options.OnStage(stageReport)
		}
	}

	report.FinishedAt = time.Now().UTC()
	log.Info().
		Int("applied", report.Totals().Applied).
		Int("skipped", report.Totals().Skipped).
		Int("ignored", report.Totals().Failed).
		Bool("dryRun", report.DryRun).
		Msg("Synchronization complete for all tables!")

	return report, nil
}

func (c *Coordinator) runStage(ctx context.Context, stage Stage, rec *Reconciler) (StageReport, error) {
	name := stage.StageName()
	ctx = logging.WithStage(ctx, name)
	log := logging.FromContext(ctx)

	started := time.Now()
	stageReport := StageReport{Name: name}

	tx := c.Target.WithContext(ctx).Begin()
	if tx.Error != nil {
		return stageReport, NewFatal(name, fmt.Errorf("begin: %w", tx.Error))
	}

	if err := stage.Sync(ctx, c.Source.WithContext(ctx), tx, rec, &stageReport); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			log.Warn().Err(rbErr).Msg("rollback failed")
		}
		return stageReport, NewFatal(name, err)
	}

	if c.Options.DryRun {
		if err := tx.Rollback().Error; err != nil {
			return stageReport, NewFatal(name, fmt.Errorf("rollback: %w", err))
		}
	} else {
		if err := tx.Commit().Error; err != nil {
			return stageReport, NewFatal(name, fmt.Errorf("commit: %w", err))
		}
		stageReport.Committed = true
	}

	stageReport.Duration = time.Since(started)
	log.Info().
		Int("total", stageReport.Total).
		Int("applied", stageReport.Applied).
		Int("skipped", stageReport.Skipped).
		Int("ignored", stageReport.Failed).
		Bool("committed", stageReport.Committed).
		Msg(stageReport.Summary())

	return stageReport, nil
}
