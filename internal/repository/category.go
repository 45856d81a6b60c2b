// Package repository holds gorm-backed stores shared by services and handlers.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
)

// CategoryRepository persists categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindBySlug returns nil, nil when no category has slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateIfAbsent inserts an active category unless slug is taken, then returns
// the stored row. Concurrent callers with one slug all receive the same row.
func (r *CategoryRepository) CreateIfAbsent(ctx context.Context, name, slug, description string) (*models.Category, error) {
	category := models.Category{
		Name:        name,
		Slug:        slug,
		Description: description,
		IsActive:    true,
	}

	createErr := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&category).Error

	// A lost race shows up as zero rows affected or a duplicate key; either way re-read.
	stored, err := r.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if createErr != nil {
			return nil, createErr
		}
		return nil, fmt.Errorf("category %q missing after insert", slug)
	}
	return stored, nil
}

// ListActive returns active categories ordered for display.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// SeedDefaults creates the given categories when the table is empty.
func (r *CategoryRepository) SeedDefaults(ctx context.Context, defaults []models.Category) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range defaults {
		defaults[i].IsActive = true
		if defaults[i].SortOrder == 0 {
			defaults[i].SortOrder = i + 1
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&defaults).Error
}
