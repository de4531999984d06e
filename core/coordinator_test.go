package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedSource(t *testing.T, db *gorm.DB, rows ...sourceWidget) {
	t.Helper()
	require.NoError(t, db.Create(&rows).Error)
}

func TestCoordinatorPartialFailureIsolation(t *testing.T) {
	source := openTestDB(t, "source", &sourceWidget{})
	target := openTestDB(t, "target", &widget{})
	seedSource(t, source,
		sourceWidget{ID: 1, Name: "a"},
		sourceWidget{ID: 2, Name: "b"},
		sourceWidget{ID: 3, Name: "a"},
		sourceWidget{ID: 4, Name: "d"},
	)

	var observed []StageReport
	c := &Coordinator{
		Source:  source,
		Target:  target,
		Stages:  []Stage{widgetStage("Widget")},
		Options: Options{OnStage: func(r StageReport) { observed = append(observed, r) }},
	}

	report, err := c.Run(context.Background())
	require.NoError(t, err)

	stage := report.Stage("Widget")
	require.NotNil(t, stage)
	assert.Equal(t, 4, stage.Total)
	assert.Equal(t, 3, stage.Applied)
	assert.Equal(t, 1, stage.Failed)
	assert.True(t, stage.Committed)
	require.Len(t, stage.Failures, 1)
	assert.Equal(t, "3", stage.Failures[0].Key)
	assert.Len(t, observed, 1)
	assert.True(t, report.Succeeded())

	var count int64
	require.NoError(t, target.Model(&widget{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestCoordinatorIdempotent(t *testing.T) {
	source := openTestDB(t, "source", &sourceWidget{})
	target := openTestDB(t, "target", &widget{})
	seedSource(t, source, sourceWidget{ID: 1, Name: "a"}, sourceWidget{ID: 2, Name: "b"})

	c := &Coordinator{Source: source, Target: target, Stages: []Stage{widgetStage("Widget")}}

	_, err := c.Run(context.Background())
	require.NoError(t, err)
	var first []widget
	require.NoError(t, target.Order("pk_id").Find(&first).Error)

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	var second []widget
	require.NoError(t, target.Order("pk_id").Find(&second).Error)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, report.Stage("Widget").Applied)
}

func TestCoordinatorDryRunRollsBack(t *testing.T) {
	source := openTestDB(t, "source", &sourceWidget{})
	target := openTestDB(t, "target", &widget{})
	seedSource(t, source, sourceWidget{ID: 1, Name: "a"})

	c := &Coordinator{
		Source:  source,
		Target:  target,
		Stages:  []Stage{widgetStage("Widget")},
		Options: Options{DryRun: true},
	}

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Stage("Widget").Applied)
	assert.False(t, report.Stage("Widget").Committed)

	var count int64
	require.NoError(t, target.Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCoordinatorFatalStopsRunAndKeepsEarlierStages(t *testing.T) {
	source := openTestDB(t, "source", &sourceWidget{})
	target := openTestDB(t, "target", &widget{})
	seedSource(t, source, sourceWidget{ID: 1, Name: "a"})

	broken := widgetStage("Broken")
	broken.Extract = func(ctx context.Context, source *gorm.DB) ([]sourceWidget, error) {
		return nil, errors.New("relation does not exist")
	}
	never := widgetStage("Never")

	c := &Coordinator{
		Source: source,
		Target: target,
		Stages: []Stage{widgetStage("Widget"), broken, never},
	}

	report, err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatal)

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, "Broken", fatal.Stage)

	require.Len(t, report.Stages, 1)
	assert.Equal(t, "Widget", report.Stages[0].Name)
	assert.False(t, report.Succeeded())

	var count int64
	require.NoError(t, target.Model(&widget{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCoordinatorSkipsUnresolved(t *testing.T) {
	source := openTestDB(t, "source", &sourceWidget{})
	target := openTestDB(t, "target", &widget{})
	seedSource(t, source, sourceWidget{ID: 1, Name: "a"}, sourceWidget{ID: 2, Name: "b"})

	stage := widgetStage("Widget")
	stage.Transform = func(ctx context.Context, tx *gorm.DB, row sourceWidget) (widget, error) {
		if row.ID == 2 {
			return widget{}, NewUnresolved("Widget", "2", "no parent")
		}
		return widget{ID: row.ID, Name: row.Name}, nil
	}

	c := &Coordinator{Source: source, Target: target, Stages: []Stage{stage}}
	report, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stage("Widget").Applied)
	assert.Equal(t, 1, report.Stage("Widget").Skipped)
	assert.Zero(t, report.Stage("Widget").Failed)
}
