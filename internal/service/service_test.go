package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"daily-timegrid/internal/repository"
	"daily-timegrid/internal/timegrid"
)

type testEnv struct {
	db         *gorm.DB
	categories *CategoryService
	logs       *TimeLogService
	stats      *StatsService
	catRepo    *repository.CategoryRepository
	logRepo    *repository.TimeLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	catRepo := repository.NewCategoryRepository(db)
	logRepo := repository.NewTimeLogRepository(db)
	return &testEnv{
		db:         db,
		categories: NewCategoryService(catRepo),
		logs:       NewTimeLogService(logRepo, catRepo),
		stats:      NewStatsService(logRepo),
		catRepo:    catRepo,
		logRepo:    logRepo,
	}
}

func (e *testEnv) category(t *testing.T, name string) uint {
	t.Helper()
	id, err := e.categories.Create(context.Background(), name, "")
	require.NoError(t, err)
	return id
}

func slots(from, to int) []timegrid.SlotTime {
	return timegrid.GenerateSlots()[from:to]
}
