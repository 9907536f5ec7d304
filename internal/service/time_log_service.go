package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/repository"
	"daily-timegrid/internal/timegrid"
)

// TimeLogService validates slot writes and loads resolved days.
type TimeLogService struct {
	logs       *repository.TimeLogRepository
	categories *repository.CategoryRepository
}

func NewTimeLogService(logs *repository.TimeLogRepository, categories *repository.CategoryRepository) *TimeLogService {
	return &TimeLogService{logs: logs, categories: categories}
}

// LoadDay reads the categories and logs of date and joins them onto the grid.
func (s *TimeLogService) LoadDay(ctx context.Context, date string) ([]timegrid.Slot, []model.Category, error) {
	if err := checkDate(date); err != nil {
		return nil, nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.logs.ListForDate(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	return timegrid.ResolveSlots(date, logs, categories), categories, nil
}

// AssignSlots overwrites the given slots of date with one category.
func (s *TimeLogService) AssignSlots(ctx context.Context, date string, times []timegrid.SlotTime, categoryID uint) error {
	if err := checkDate(date); err != nil {
		return err
	}
	if len(times) == 0 {
		return invalid("slots", "at least one slot is required")
	}

	seen := make(map[timegrid.SlotTime]struct{}, len(times))
	unique := make([]timegrid.SlotTime, 0, len(times))
	for _, t := range times {
		if !t.Valid() {
			return invalid("slot", fmt.Sprintf("%s is not a slot start", t))
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return err
	}
	return s.logs.AssignSlots(ctx, date, unique, categoryID)
}

func (s *TimeLogService) ClearSlot(ctx context.Context, date string, start timegrid.SlotTime) error {
	if err := checkDate(date); err != nil {
		return err
	}
	if !start.Valid() {
		return invalid("slot", fmt.Sprintf("%s is not a slot start", start))
	}
	return s.logs.ClearSlot(ctx, date, start)
}

func checkDate(date string) error {
	if _, err := timegrid.ParseDate(date); err != nil {
		if errors.Is(err, timegrid.ErrMalformedDate) {
			return invalid("date", err.Error())
		}
		return err
	}
	return nil
}
