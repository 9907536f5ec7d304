package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/repository"
)

const exportVersion = "1.0"

// Export is the full dump of stored data.
type Export struct {
	Categories []model.Category `json:"categories"`
	TimeLogs   []model.TimeLog  `json:"timeLogs"`
	ExportDate time.Time        `json:"exportDate"`
	Version    string           `json:"version"`
}

// ExportService dumps and wipes stored data.
type ExportService struct {
	categories *repository.CategoryRepository
	logs       *repository.TimeLogRepository
	now        func() time.Time
}

func NewExportService(categories *repository.CategoryRepository, logs *repository.TimeLogRepository, now func() time.Time) *ExportService {
	if now == nil {
		now = time.Now
	}
	return &ExportService{categories: categories, logs: logs, now: now}
}

func (s *ExportService) Export(ctx context.Context) (Export, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return Export{}, err
	}
	logs, err := s.logs.ListAll(ctx)
	if err != nil {
		return Export{}, err
	}
	return Export{
		Categories: categories,
		TimeLogs:   logs,
		ExportDate: s.now().UTC(),
		Version:    exportVersion,
	}, nil
}

// JSON renders Export as indented JSON.
func (s *ExportService) JSON(ctx context.Context) ([]byte, error) {
	data, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}

// ClearAll deletes every log and category.
func (s *ExportService) ClearAll(ctx context.Context) error {
	return s.logs.ClearAll(ctx)
}
