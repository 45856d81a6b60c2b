package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

// SellerHandler serves the seller dashboard.
type SellerHandler struct {
	db *gorm.DB
}

func NewSellerHandler(db *gorm.DB) *SellerHandler {
	return &SellerHandler{db: db}
}

// Dashboard summarises the seller's catalog and sales.
func (h *SellerHandler) Dashboard(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var totalProducts, activeProducts, lowStock int64
	products := h.db.Model(&models.Product{}).Where("seller_id = ?", userID)
	if err := products.Session(&gorm.Session{}).Count(&totalProducts).Error; err != nil {
		return err
	}
	if err := products.Session(&gorm.Session{}).Where("is_active = ?", true).Count(&activeProducts).Error; err != nil {
		return err
	}
	if err := products.Session(&gorm.Session{}).Where("stock < ?", lowStockThreshold).Count(&lowStock).Error; err != nil {
		return err
	}

	var sales struct {
		Orders  int64
		Units   int64
		Revenue decimal.NullDecimal
	}
	if err := h.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.seller_id = ?", userID).
		Where("orders.status NOT IN ?", []string{models.OrderCancelled, models.OrderRefunded}).
		Select("COUNT(DISTINCT order_items.order_id) AS orders, " +
			"COALESCE(SUM(order_items.quantity), 0) AS units, " +
			"COALESCE(SUM(order_items.total_price), 0) AS revenue").
		Scan(&sales).Error; err != nil {
		return err
	}

	return success(c, fiber.Map{
		"total_products":     totalProducts,
		"active_products":    activeProducts,
		"low_stock_products": lowStock,
		"total_orders":       sales.Orders,
		"units_sold":         sales.Units,
		"revenue":            sales.Revenue.Decimal.Round(2),
	})
}
