package core

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"iara.com/iarasync/logging"
)

// Stage is one entity sync in the run pipeline.
type Stage interface {
	StageName() string
	Sync(ctx context.Context, source, tx *gorm.DB, rec *Reconciler, report *StageReport) error
}

// EntitySync is the generic stage: read every source row of type S, turn it
// into a destination record D and upsert it into Target.
type EntitySync[S any, D any] struct {
	Name   string
	Target Target

	// Extract reads the full source snapshot.
	Extract func(ctx context.Context, source *gorm.DB) ([]S, error)

	// Prepare runs once inside the stage transaction before the first record.
	Prepare func(ctx context.Context, tx *gorm.DB) error

	// Transform may query tx. Returning an error wrapping ErrUnresolved skips the row.
	Transform func(ctx context.Context, tx *gorm.DB, row S) (D, error)

	Key func(row S) string
}

func (e *EntitySync[S, D]) StageName() string {
	return e.Name
}

func (e *EntitySync[S, D]) Sync(ctx context.Context, source, tx *gorm.DB, rec *Reconciler, report *StageReport) error {
	log := logging.FromContext(ctx)

	rows, err := e.Extract(ctx, source)
	if err != nil {
		return NewFatal(e.Name, fmt.Errorf("extract: %w", err))
	}
	report.Total = len(rows)

	if e.Prepare != nil {
		if err := e.Prepare(ctx, tx); err != nil {
			return NewFatal(e.Name, fmt.Errorf("prepare: %w", err))
		}
	}

	for _, row := range rows {
		key := e.Key(row)
		res := rec.Guard(ctx, tx, e.Target.Entity, key, func(tx *gorm.DB) error {
			record, err := e.Transform(ctx, tx, row)
			if err != nil {
				return err
			}
			return Upsert(ctx, tx, e.Target, &record)
		})

		if errors.Is(res.Err, ErrFatal) {
			return res.Err
		}

		switch res.Outcome {
		case Failed:
			log.Warn().Str("key", key).Err(res.Err).Msgf("[IGNORED] %s %s", e.Target.Entity, key)
		case Skipped:
			log.Debug().Str("key", key).Err(res.Err).Msgf("[SKIPPED] %s %s", e.Target.Entity, key)
		}
		report.Record(res)
	}

	return nil
}
