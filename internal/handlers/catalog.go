package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/categorization"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/utils"
)

// SlugInvalidator drops cached lookups for a category slug.
type SlugInvalidator interface {
	Invalidate(ctx context.Context, slug string)
}

// CatalogHandler manages categories.
type CatalogHandler struct {
	db         *gorm.DB
	categories *repository.CategoryRepository
	cache      SlugInvalidator
}

// NewCatalogHandler constructs CatalogHandler. cache may be nil.
func NewCatalogHandler(db *gorm.DB, categories *repository.CategoryRepository, cache SlugInvalidator) *CatalogHandler {
	return &CatalogHandler{db: db, categories: categories, cache: cache}
}

// DefaultCategories are seeded the first time categories are listed.
func DefaultCategories() []models.Category {
	names := []string{"T-Shirts", "Jeans", "Hoodies", "Dresses", "Shoes", "Jackets"}
	categories := make([]models.Category, len(names))
	for i, name := range names {
		categories[i] = models.Category{
			Name:        name,
			Slug:        categorization.Slugify(name),
			Description: name + " for every occasion",
		}
	}
	return categories
}

// ListCategories returns active categories, seeding the defaults into an empty table.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.categories.SeedDefaults(ctx, DefaultCategories()); err != nil {
		return err
	}

	categories, err := h.categories.ListActive(ctx)
	if err != nil {
		return err
	}

	return success(c, categories)
}

// CategoryProducts returns active products whose category or subcategory has the slug.
func (h *CatalogHandler) CategoryProducts(c *fiber.Ctx) error {
	category, err := h.categories.FindBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	if category == nil {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Where("category_id = ? OR subcategory_id = ?", category.ID, category.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Subcategory").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"category":   category,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// ListAllCategories returns every category, active or not, for the admin panel.
func (h *CatalogHandler) ListAllCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var categories []models.Category
	var total int64

	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).
		Order("sort_order asc").Order("name asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       categories,
		"pagination": pg.Meta(total),
	})
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

// CreateCategory persists a new category. The slug defaults to the slugified name.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	category := models.Category{
		Name:     strings.TrimSpace(*req.Name),
		IsActive: true,
	}
	category.Slug = categorization.Slugify(category.Name)
	if req.Slug != nil && *req.Slug != "" {
		category.Slug = categorization.Slugify(*req.Slug)
	}
	if category.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "slug is empty")
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Image != nil {
		category.Image = *req.Image
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	var taken int64
	if err := h.db.Model(&models.Category{}).Where("slug = ?", category.Slug).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return fiber.NewError(fiber.StatusConflict, "category slug already exists")
	}

	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "category slug already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	oldSlug := category.Slug
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := categorization.Slugify(*req.Slug)
		if slug == "" {
			return fiber.NewError(fiber.StatusBadRequest, "slug is empty")
		}
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if len(updates) > 0 {
		if err := h.db.Model(&category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "category slug already exists")
			}
			return err
		}
	}
	h.invalidate(c.UserContext(), oldSlug)

	var updated models.Category
	if err := h.db.First(&updated, "id = ?", id).Error; err != nil {
		return err
	}
	return success(c, updated)
}

// DeleteCategory removes a category that no product references.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	var inUse int64
	if err := h.db.Model(&models.Product{}).
		Where("category_id = ? OR subcategory_id = ?", id, id).
		Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return fiber.NewError(fiber.StatusConflict, "category has products")
	}

	if err := h.db.Delete(&category).Error; err != nil {
		return err
	}
	h.invalidate(c.UserContext(), category.Slug)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) invalidate(ctx context.Context, slug string) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, slug)
	}
}
