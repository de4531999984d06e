package core

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Target describes where an entity is written and how conflicts are merged.
type Target struct {
	Entity    string
	Table     string
	Conflict  []string
	Overwrite []string
}

// OnConflict builds the upsert clause. An empty overwrite list means the
// existing row is left alone.
func (t Target) OnConflict() clause.OnConflict {
	columns := make([]clause.Column, 0, len(t.Conflict))
	for _, c := range t.Conflict {
		columns = append(columns, clause.Column{Name: c})
	}

	if len(t.Overwrite) == 0 {
		return clause.OnConflict{Columns: columns, DoNothing: true}
	}
	return clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(t.Overwrite),
	}
}

// Reconciler writes records one at a time inside a stage transaction.
// Every record runs under its own savepoint so that a failing statement
// only discards its own work.
type Reconciler struct {
	seq int
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Apply upserts record into target.
func (r *Reconciler) Apply(ctx context.Context, tx *gorm.DB, target Target, key string, record any) Result {
	return r.Guard(ctx, tx, target.Entity, key, func(tx *gorm.DB) error {
		return Upsert(ctx, tx, target, record)
	})
}

// Skip records a resolution miss.
func (r *Reconciler) Skip(key string, reason error) Result {
	return Result{Outcome: Skipped, Key: key, Err: reason}
}

// Guard runs fn under a savepoint and classifies what it returns:
// nil is Applied, ErrUnresolved is Skipped, a fatal error is returned as
// *FatalError with Outcome Failed, anything else is rolled back and Failed.
func (r *Reconciler) Guard(ctx context.Context, tx *gorm.DB, entity, key string, fn func(tx *gorm.DB) error) Result {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: Failed, Key: key, Err: NewFatal(entity, err)}
	}

	r.seq++
	savepoint := fmt.Sprintf("rec_%d", r.seq)
	if err := tx.SavePoint(savepoint).Error; err != nil {
		return Result{Outcome: Failed, Key: key, Err: NewFatal(entity, fmt.Errorf("savepoint: %w", err))}
	}

	err := fn(tx)
	if err == nil {
		if err := tx.Exec("RELEASE SAVEPOINT " + savepoint).Error; err != nil {
			return Result{Outcome: Failed, Key: key, Err: NewFatal(entity, fmt.Errorf("release savepoint: %w", err))}
		}
		return Result{Outcome: Applied, Key: key}
	}

	if IsFatal(err) {
		return Result{Outcome: Failed, Key: key, Err: NewFatal(entity, err)}
	}

	if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
		return Result{Outcome: Failed, Key: key, Err: NewFatal(entity, fmt.Errorf("rollback to savepoint: %w", rbErr))}
	}

	if errors.Is(err, ErrUnresolved) {
		return r.Skip(key, err)
	}

	return Result{Outcome: Failed, Key: key, Err: &StatementError{Entity: entity, Key: key, Err: err}}
}

// Upsert inserts record and merges on the target's conflict key.
func Upsert(ctx context.Context, tx *gorm.DB, target Target, record any) error {
	return tx.WithContext(ctx).
		Table(target.Table).
		Clauses(target.OnConflict()).
		Create(record).Error
}
