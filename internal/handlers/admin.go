package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const lowStockThreshold = 5

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db, now: time.Now}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	var lowStock int64
	if err := h.db.Model(&models.Product{}).
		Where("is_active = ? AND stock < ?", true, lowStockThreshold).
		Count(&lowStock).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	totalRevenue, err := h.revenue(h.db)
	if err != nil {
		return err
	}

	now := h.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayRevenue, err := h.revenue(h.db.Where("placed_at >= ?", startOfDay))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":        totalUsers,
			"total_products":     totalProducts,
			"low_stock_products": lowStock,
			"total_orders":       totalOrders,
			"total_revenue":      totalRevenue,
			"today_revenue":      todayRevenue,
			"orders_by_status":   ordersByStatus,
		},
	})
}

// revenue sums order totals outside cancelled and refunded orders.
func (h *AdminHandler) revenue(scope *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := scope.Model(&models.Order{}).
		Where("status NOT IN ?", []string{models.OrderCancelled, models.OrderRefunded}).
		Select("COALESCE(SUM(total), 0)").
		Row().Scan(&total)
	return total.Decimal.Round(2), err
}

// ListAllUsers returns all registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	// Enrich users with order counts and total spent
	type userStats struct {
		UserID     string          `json:"user_id"`
		OrderCount int64           `json:"order_count"`
		TotalSpent decimal.Decimal `json:"total_spent"`
	}

	var stats []userStats
	if err := h.db.Model(&models.Order{}).
		Select("user_id, count(*) as order_count, COALESCE(SUM(total), 0) as total_spent").
		Where("status <> ?", models.OrderCancelled).
		Group("user_id").
		Scan(&stats).Error; err != nil {
		return err
	}

	statsMap := make(map[string]userStats)
	for _, s := range stats {
		statsMap[s.UserID] = s
	}

	type userResponse struct {
		models.User
		OrderCount int64           `json:"order_count"`
		TotalSpent decimal.Decimal `json:"total_spent"`
	}

	result := make([]userResponse, len(users))
	for i, u := range users {
		result[i] = userResponse{User: u, TotalSpent: decimal.Zero}
		if s, ok := statsMap[u.ID.String()]; ok {
			result[i].OrderCount = s.OrderCount
			result[i].TotalSpent = s.TotalSpent.Round(2)
		}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       result,
		"pagination": pg.Meta(total),
	})
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole changes a user's role. It takes effect on the user's next login.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !models.ValidRole(req.Role) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if err := h.db.Model(&user).Update("role", req.Role).Error; err != nil {
		return err
	}
	user.Role = req.Role

	return success(c, user)
}

// RecentOrders returns the most recent 5 orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	var orders []models.Order
	if err := h.db.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(5).
		Find(&orders).Error; err != nil {
		return err
	}

	return success(c, orders)
}
