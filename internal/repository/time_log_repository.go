package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/timegrid"
)

// TimeLogRepository reads and writes slot assignments.
type TimeLogRepository struct {
	db *gorm.DB
}

func NewTimeLogRepository(db *gorm.DB) *TimeLogRepository {
	return &TimeLogRepository{db: db}
}

// ListForDate returns the logs of one date ordered by start time.
func (r *TimeLogRepository) ListForDate(ctx context.Context, date string) ([]model.TimeLog, error) {
	var logs []model.TimeLog
	if err := r.db.WithContext(ctx).Where("date = ?", date).Order("start_time ASC").Find(&logs).Error; err != nil {
		return nil, persistErr("list time logs", err)
	}
	return logs, nil
}

// ListAll returns every log ordered by date and start time.
func (r *TimeLogRepository) ListAll(ctx context.Context) ([]model.TimeLog, error) {
	var logs []model.TimeLog
	if err := r.db.WithContext(ctx).Order("date ASC, start_time ASC").Find(&logs).Error; err != nil {
		return nil, persistErr("list all time logs", err)
	}
	return logs, nil
}

// AssignSlots overwrites the logs of the given slots with categoryID. All
// slots are written in one transaction: either every slot is stored or none.
func (r *TimeLogRepository) AssignSlots(ctx context.Context, date string, times []timegrid.SlotTime, categoryID uint) error {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "start_time"}},
		DoUpdates: clause.AssignmentColumns([]string{"end_time", "category_id"}),
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, start := range times {
			id := categoryID
			entry := model.TimeLog{
				Date:       date,
				StartTime:  start.String(),
				EndTime:    start.End().String(),
				CategoryID: &id,
			}
			if err := tx.Clauses(upsert).Create(&entry).Error; err != nil {
				if errors.Is(err, gorm.ErrForeignKeyViolated) {
					return fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
				}
				return persistErr(fmt.Sprintf("assign slot %s %s", date, start), err)
			}
		}
		return nil
	})
}

// ClearSlot deletes the log of one slot. A missing log is not an error.
func (r *TimeLogRepository) ClearSlot(ctx context.Context, date string, start timegrid.SlotTime) error {
	if err := r.db.WithContext(ctx).Where("date = ? AND start_time = ?", date, start.String()).
		Delete(&model.TimeLog{}).Error; err != nil {
		return persistErr("clear slot", err)
	}
	return nil
}

// StatsForRange groups logged slots between start and end (inclusive, YYYY-MM-DD)
// by date and category. Hours count a quarter per slot.
func (r *TimeLogRepository) StatsForRange(ctx context.Context, start, end string) ([]model.CategoryStat, error) {
	var stats []model.CategoryStat
	err := r.db.WithContext(ctx).
		Table("time_logs AS tl").
		Select("tl.date AS date, c.id AS category_id, c.name AS category_name, c.color AS category_color, COUNT(*) * 0.25 AS hours").
		Joins("LEFT JOIN categories c ON tl.category_id = c.id").
		Where("tl.date BETWEEN ? AND ?", start, end).
		Group("tl.date, c.id, c.name, c.color").
		Order("tl.date, c.name").
		Scan(&stats).Error
	if err != nil {
		return nil, persistErr("stats for range", err)
	}
	return stats, nil
}

// ClearAll removes every log and category.
func (r *TimeLogRepository) ClearAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.TimeLog{}).Error; err != nil {
			return persistErr("clear time logs", err)
		}
		if err := tx.Where("1 = 1").Delete(&model.Category{}).Error; err != nil {
			return persistErr("clear categories", err)
		}
		return nil
	})
}
