package service

import (
	"context"
	"sort"
	"time"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/timegrid"
)

// StatsSource provides grouped slot counts for a date range.
type StatsSource interface {
	StatsForRange(ctx context.Context, start, end string) ([]model.CategoryStat, error)
}

// CategoryHours is the time spent on one category over a period.
type CategoryHours struct {
	CategoryID uint
	Name       string
	Color      string
	Hours      float64
}

// Summary is the time distribution of a period.
type Summary struct {
	Mode          timegrid.ViewMode
	Start         time.Time
	End           time.Time
	PerCategory   map[uint]float64
	Categories    []CategoryHours
	LoggedHours   float64
	UnloggedHours float64
	TotalHours    float64
}

// StatsService aggregates logged time for the dashboard and reports.
type StatsService struct {
	source StatsSource
}

func NewStatsService(source StatsSource) *StatsService {
	return &StatsService{source: source}
}

// Aggregate summarises the day, week or month containing date.
func (s *StatsService) Aggregate(ctx context.Context, date time.Time, mode timegrid.ViewMode) (Summary, error) {
	start, end := timegrid.RangeFor(date, mode)
	summary, err := s.AggregateRange(ctx, start, end)
	summary.Mode = mode
	return summary, err
}

// AggregateRange summarises start..end inclusive. Slots logged without a
// category count as unlogged.
func (s *StatsService) AggregateRange(ctx context.Context, start, end time.Time) (Summary, error) {
	summary := Summary{
		Start:       timegrid.DayOf(start),
		End:         timegrid.DayOf(end),
		PerCategory: make(map[uint]float64),
		TotalHours:  24 * float64(timegrid.DaysInRange(start, end)),
	}

	stats, err := s.source.StatsForRange(ctx, timegrid.FormatDate(start), timegrid.FormatDate(end))
	if err != nil {
		return summary, err
	}

	byID := make(map[uint]*CategoryHours)
	for _, stat := range stats {
		if stat.CategoryID == nil {
			continue
		}
		id := *stat.CategoryID
		summary.PerCategory[id] += stat.Hours
		summary.LoggedHours += stat.Hours

		entry, ok := byID[id]
		if !ok {
			entry = &CategoryHours{CategoryID: id, Name: "Unknown", Color: "#6B7280"}
			if stat.CategoryName != nil {
				entry.Name = *stat.CategoryName
			}
			if stat.CategoryColor != nil {
				entry.Color = *stat.CategoryColor
			}
			byID[id] = entry
		}
		entry.Hours += stat.Hours
	}

	summary.Categories = make([]CategoryHours, 0, len(byID))
	for _, entry := range byID {
		summary.Categories = append(summary.Categories, *entry)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if a.Hours != b.Hours {
			return a.Hours > b.Hours
		}
		return a.Name < b.Name
	})

	// Overlapping or malformed rows must not produce negative unlogged time.
	summary.UnloggedHours = summary.TotalHours - summary.LoggedHours
	if summary.UnloggedHours < 0 {
		summary.UnloggedHours = 0
	}
	return summary, nil
}
