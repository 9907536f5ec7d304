package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"daily-timegrid/internal/model"
)

// DefaultCategories are created on first start when no category exists yet.
var DefaultCategories = []model.Category{
	{Name: "Work", Color: "#3B82F6"},
	{Name: "Study", Color: "#10B981"},
	{Name: "Leisure", Color: "#F59E0B"},
	{Name: "Sleep", Color: "#6366F1"},
	{Name: "Exercise", Color: "#EF4444"},
	{Name: "Other", Color: "#6B7280"},
}

// CategoryRepository manages activity categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, persistErr("list categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	default:
		return nil, persistErr("get category", err)
	}
}

func (r *CategoryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&n).Error; err != nil {
		return 0, persistErr("count categories", err)
	}
	return n, nil
}

// Create inserts a category and returns its id. Names are unique, compared exactly.
func (r *CategoryRepository) Create(ctx context.Context, name, color string) (uint, error) {
	category := model.Category{Name: name, Color: color}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("create category %q: %w", name, ErrDuplicateName)
		}
		return 0, persistErr("create category", err)
	}
	return category.ID, nil
}

// Update renames and recolors a category.
func (r *CategoryRepository) Update(ctx context.Context, id uint, name, color string) error {
	res := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "color": color})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("update category %q: %w", name, ErrDuplicateName)
		}
		return persistErr("update category", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a category. Logs that referenced it stay, with no category.
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TimeLog{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return persistErr("unlink time logs", err)
		}
		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return persistErr("delete category", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil
	})
	return err
}

// SeedDefaults inserts DefaultCategories when the table is empty and reports
// whether it did.
func (r *CategoryRepository) SeedDefaults(ctx context.Context) (bool, error) {
	seeded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Category{}).Count(&n).Error; err != nil {
			return persistErr("count categories", err)
		}
		if n > 0 {
			return nil
		}
		defaults := make([]model.Category, len(DefaultCategories))
		copy(defaults, DefaultCategories)
		if err := tx.Create(&defaults).Error; err != nil {
			return persistErr("seed categories", err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}
