package service

import (
	"context"
	"strings"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/repository"
)

// Palette offers the colors of the category editor.
var Palette = []string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444",
	"#6366F1", "#8B5CF6", "#EC4899", "#F97316",
	"#06B6D4", "#84CC16", "#A3A3A3", "#1F2937",
}

type categoryInput struct {
	Name  string `validate:"required,max=64"`
	Color string `validate:"required,len=7,hexcolor"`
}

// CategoryService validates and stores categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a category. An empty color picks the next palette entry.
func (s *CategoryService) Create(ctx context.Context, name, color string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, invalid("name", "category name is required")
	}
	if strings.TrimSpace(color) == "" {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return 0, err
		}
		color = Palette[int(n)%len(Palette)]
	}
	input := categoryInput{Name: name, Color: normalizeColor(color)}
	if err := checkStruct(input); err != nil {
		return 0, err
	}
	return s.repo.Create(ctx, input.Name, input.Color)
}

// Update renames and recolors a category. An empty color keeps the current one.
func (s *CategoryService) Update(ctx context.Context, id uint, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "category name is required")
	}
	if strings.TrimSpace(color) == "" {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		color = current.Color
	}
	input := categoryInput{Name: name, Color: normalizeColor(color)}
	if err := checkStruct(input); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, input.Name, input.Color)
}

// Delete removes a category; its logged slots remain without a category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *CategoryService) SeedDefaults(ctx context.Context) (bool, error) {
	return s.repo.SeedDefaults(ctx)
}

func normalizeColor(raw string) string {
	color := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	return color
}
