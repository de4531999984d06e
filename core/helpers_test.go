package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   int64  `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:name;uniqueIndex"`
	Note string `gorm:"column:note"`
}

func (widget) TableName() string { return "widget" }

type sourceWidget struct {
	ID   int64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name string
	Note string
}

func (sourceWidget) TableName() string { return "source_widget" }

var widgetTarget = Target{
	Entity:    "Widget",
	Table:     "widget",
	Conflict:  []string{"pk_id"},
	Overwrite: []string{"name"},
}

func openTestDB(t *testing.T, name string, tables ...any) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), name+".db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, table := range tables {
		require.NoError(t, db.Migrator().CreateTable(table))
	}
	return db
}

func widgetStage(name string) *EntitySync[sourceWidget, widget] {
	return &EntitySync[sourceWidget, widget]{
		Name:   name,
		Target: widgetTarget,
		Extract: func(ctx context.Context, source *gorm.DB) ([]sourceWidget, error) {
			var rows []sourceWidget
			err := source.Order("id").Find(&rows).Error
			return rows, err
		},
		Transform: func(ctx context.Context, tx *gorm.DB, row sourceWidget) (widget, error) {
			return widget{ID: row.ID, Name: row.Name, Note: row.Note}, nil
		},
		Key: func(row sourceWidget) string { return fmtKey(row.ID) },
	}
}
