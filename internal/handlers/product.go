package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/categorization"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler manages product browsing and CRUD for sellers and admins.
type ProductHandler struct {
	db      *gorm.DB
	catalog *services.CatalogService
	log     *zap.Logger
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, catalog *services.CatalogService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{db: db, catalog: catalog, log: logger.OrNop(log)}
}

// productView adds the derived price fields to a product.
type productView struct {
	models.Product
	CurrentPrice    decimal.Decimal `json:"current_price"`
	DiscountPercent int64           `json:"discount_percent"`
	InStock         bool            `json:"in_stock"`
}

func viewOf(p models.Product) productView {
	return productView{
		Product:         p,
		CurrentPrice:    p.CurrentPrice(),
		DiscountPercent: p.DiscountPercent(),
		InStock:         p.Stock > 0,
	}
}

func viewsOf(products []models.Product) []productView {
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = viewOf(p)
	}
	return views
}

var productSorts = map[string]string{
	"created_at": "created_at",
	"price":      "base_price",
	"rating":     "rating_average",
	"name":       "name",
}

// ListProducts returns paginated active products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).Where("is_active = ?", true)

	if slug := c.Query("category"); slug != "" {
		sub := h.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug)
		query = query.Where("category_id IN (?) OR subcategory_id IN (?)", sub, sub)
	}

	if brand := strings.TrimSpace(c.Query("brand")); brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(brand))
	}

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		q := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", q, q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("base_price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("base_price <= ?", val)
		}
	}

	if c.Query("featured") == "true" {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	column, ok := productSorts[c.Query("sort", "created_at")]
	if !ok {
		column = "created_at"
	}
	direction := "desc"
	if strings.EqualFold(c.Query("order"), "asc") {
		direction = "asc"
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Subcategory").
		Limit(pg.Limit).Offset(pg.Offset).
		Order(column + " " + direction).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       viewsOf(products),
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads an active product with relations.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.Preload("Category").
		Preload("Subcategory").
		Preload("Variants").
		Where("is_active = ?", true).
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return success(c, viewOf(product))
}

// ListSellerProducts returns the authenticated seller's products, active or not.
func (h *ProductHandler) ListSellerProducts(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).Where("seller_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").Preload("Subcategory").Preload("Variants").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       viewsOf(products),
		"pagination": pg.Meta(total),
	})
}

type productRequest struct {
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description"`
	Brand            string           `json:"brand"`
	Tags             []string         `json:"tags"`
	Images           []string         `json:"images"`
	BasePrice        decimal.Decimal  `json:"base_price"`
	DiscountedPrice  *decimal.Decimal `json:"discounted_price"`
	Stock            int              `json:"stock"`
	CategoryID       string           `json:"category_id"`
	SubcategoryID    string           `json:"subcategory_id"`
	SellerID         string           `json:"seller_id"`
	IsActive         *bool            `json:"is_active"`
	IsFeatured       bool             `json:"is_featured"`
	UseAutoCategory  bool             `json:"use_auto_category"`
	Variants         []variantRequest `json:"variants"`
}

type variantRequest struct {
	Size            string           `json:"size"`
	Color           string           `json:"color"`
	SKU             string           `json:"sku"`
	Stock           int              `json:"stock"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price"`
}

// CreateProduct handles product creation by an admin or seller.
// Sellers always own what they create.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if middleware.GetCurrentRole(c) == models.RoleSeller {
		userID, _ := middleware.GetCurrentUserID(c)
		product.SellerID = &userID
	}

	result, err := h.applyCategories(c, &product, req)
	if err != nil {
		return err
	}

	if err := h.db.Omit("Category", "Subcategory", "Seller").Create(&product).Error; err != nil {
		return err
	}

	resp := fiber.Map{"success": true, "data": viewOf(product)}
	if result != nil {
		resp["categorization"] = result
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateProduct replaces a product's fields and variants.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	existing, err := h.ownedProduct(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.SellerID = existing.SellerID
	if req.SellerID != "" && middleware.GetCurrentRole(c) == models.RoleAdmin {
		sellerID, err := uuid.Parse(req.SellerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid seller_id")
		}
		product.SellerID = &sellerID
	}
	product.RatingAverage = existing.RatingAverage
	product.RatingCount = existing.RatingCount

	result, err := h.applyCategories(c, &product, req)
	if err != nil {
		return err
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}

		variants := product.Variants
		product.Variants = nil
		if err := tx.Omit("Category", "Subcategory", "Seller").Save(&product).Error; err != nil {
			return err
		}

		for i := range variants {
			variants[i].ProductID = product.ID
		}
		if len(variants) > 0 {
			if err := tx.Create(&variants).Error; err != nil {
				return err
			}
		}
		product.Variants = variants
		return nil
	}); err != nil {
		return err
	}

	resp := fiber.Map{"success": true, "data": viewOf(product)}
	if result != nil {
		resp["categorization"] = result
	}
	return c.JSON(resp)
}

type productStatusRequest struct {
	IsActive   *bool `json:"is_active"`
	IsFeatured *bool `json:"is_featured"`
}

// UpdateProductStatus toggles visibility flags.
func (h *ProductHandler) UpdateProductStatus(c *fiber.Ctx) error {
	existing, err := h.ownedProduct(c)
	if err != nil {
		return err
	}

	var req productStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := h.db.Model(existing).Updates(updates).Error; err != nil {
		return err
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		existing.IsFeatured = *req.IsFeatured
	}

	return success(c, viewOf(*existing))
}

type stockRequest struct {
	Stock     *int   `json:"stock"`
	VariantID string `json:"variant_id"`
}

// UpdateStock sets the stock of a product or one of its variants.
func (h *ProductHandler) UpdateStock(c *fiber.Ctx) error {
	existing, err := h.ownedProduct(c)
	if err != nil {
		return err
	}

	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Stock == nil || *req.Stock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "stock must be zero or more")
	}

	if req.VariantID == "" {
		if err := h.db.Model(existing).Update("stock", *req.Stock).Error; err != nil {
			return err
		}
		existing.Stock = *req.Stock
		return success(c, viewOf(*existing))
	}

	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid variant_id")
	}
	result := h.db.Model(&models.ProductVariant{}).
		Where("id = ? AND product_id = ?", variantID, existing.ID).
		Update("stock", *req.Stock)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "variant not found")
	}

	var variant models.ProductVariant
	if err := h.db.First(&variant, "id = ?", variantID).Error; err != nil {
		return err
	}
	return success(c, variant)
}

// DeleteProduct removes a product and its variants.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	existing, err := h.ownedProduct(c)
	if err != nil {
		return err
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", existing.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", existing.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", existing.ID).Error
	}); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PreviewCategorization classifies the posted text without touching the catalog.
func (h *ProductHandler) PreviewCategorization(c *fiber.Ctx) error {
	var in categorization.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	classification := h.catalog.Categorizer().Classifier().Classify(in)
	preview := fiber.Map{
		"primary":        classification.Primary,
		"primary_slug":   categorization.Slugify(string(classification.Primary)),
		"secondary":      nil,
		"secondary_slug": nil,
		"confidence":     classification.Confidence(),
	}
	if classification.Secondary != "" {
		preview["secondary"] = classification.Secondary
		preview["secondary_slug"] = categorization.Slugify(string(classification.Secondary))
	}

	return success(c, preview)
}

// Recategorize runs the category backfill. ?all=true re-categorizes every product.
func (h *ProductHandler) Recategorize(c *fiber.Ctx) error {
	report, err := h.catalog.Backfill(c.UserContext(), c.Query("all") == "true")
	if err != nil {
		return err
	}
	return success(c, report)
}

// ownedProduct loads the :id product; sellers may only reach their own.
func (h *ProductHandler) ownedProduct(c *fiber.Ctx) (*models.Product, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}

	query := h.db.Where("id = ?", id)
	if middleware.GetCurrentRole(c) != models.RoleAdmin {
		userID, _ := middleware.GetCurrentUserID(c)
		query = query.Where("seller_id = ?", userID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// applyCategories runs auto-categorization when asked for, or when no category was given.
func (h *ProductHandler) applyCategories(c *fiber.Ctx, product *models.Product, req productRequest) (*categorization.Result, error) {
	if !req.UseAutoCategory && product.CategoryID != nil {
		return nil, nil
	}

	result, err := h.catalog.Categorize(c.UserContext(), product)
	if err != nil {
		h.log.Error("auto categorization failed", zap.String("product", product.Name), zap.Error(err))
		return nil, err
	}
	return result, nil
}

func buildProductFromRequest(req productRequest) (models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return models.Product{}, errors.New("name is required")
	}
	if !req.BasePrice.IsPositive() {
		return models.Product{}, errors.New("base_price must be positive")
	}
	if req.Stock < 0 {
		return models.Product{}, errors.New("stock must be zero or more")
	}

	product := models.Product{
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Brand:            req.Brand,
		Tags:             models.StringList(req.Tags),
		Images:           models.StringList(req.Images),
		BasePrice:        req.BasePrice,
		DiscountedPrice:  nullDecimal(req.DiscountedPrice),
		Stock:            req.Stock,
		IsActive:         true,
		IsFeatured:       req.IsFeatured,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if product.DiscountedPrice.Valid && product.DiscountedPrice.Decimal.GreaterThan(product.BasePrice) {
		return models.Product{}, errors.New("discounted_price must not exceed base_price")
	}

	var err error
	if product.CategoryID, err = optionalUUID(req.CategoryID, "category_id"); err != nil {
		return models.Product{}, err
	}
	if product.SubcategoryID, err = optionalUUID(req.SubcategoryID, "subcategory_id"); err != nil {
		return models.Product{}, err
	}
	if product.SellerID, err = optionalUUID(req.SellerID, "seller_id"); err != nil {
		return models.Product{}, err
	}

	for _, v := range req.Variants {
		if v.Stock < 0 {
			return models.Product{}, errors.New("variant stock must be zero or more")
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			Size:            v.Size,
			Color:           v.Color,
			SKU:             v.SKU,
			Stock:           v.Stock,
			Price:           v.Price,
			DiscountedPrice: nullDecimal(v.DiscountedPrice),
		})
	}

	return product, nil
}

func optionalUUID(value, field string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, errors.New("invalid " + field)
	}
	return &id, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
