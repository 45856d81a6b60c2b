package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Checkout places an order for the active cart lines.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req services.CheckoutInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if req.PaymentMethod != "" && req.PaymentMethod != "cod" && req.PaymentMethod != "online" {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported payment method")
	}

	order, err := h.orders.Checkout(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns the authenticated user's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListForUser(c.UserContext(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return success(c, order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels a pending or confirmed order.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req cancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	order, err := h.orders.Cancel(c.UserContext(), userID, id, req.Reason)
	if err != nil {
		return err
	}
	return success(c, order)
}

// ListAllOrders returns all orders with pagination and filtering.
func (h *OrderHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	status := c.Query("status")
	if status != "" && !models.ValidOrderStatus(status) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	orders, total, err := h.orders.ListAll(c.UserContext(), status, c.Query("search"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// UpdateOrderStatus moves an order along and records a tracking entry.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req services.StatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return success(c, order)
}
