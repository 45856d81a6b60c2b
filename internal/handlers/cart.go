package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

// CartHandler exposes the authenticated user's cart.
type CartHandler struct {
	carts *services.CartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart returns the cart, creating it on first access.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return respondCart(c, fiber.StatusOK)(h.carts.Get(c.UserContext(), userID))
}

// AddItem adds a product line to the cart.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req services.AddItemInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	return respondCart(c, fiber.StatusOK)(h.carts.AddItem(c.UserContext(), userID, req))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets the quantity of one line.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, itemID, err := cartItemRef(c)
	if err != nil {
		return err
	}

	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	return respondCart(c, fiber.StatusOK)(h.carts.UpdateQuantity(c.UserContext(), userID, itemID, req.Quantity))
}

// RemoveItem deletes one line.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, itemID, err := cartItemRef(c)
	if err != nil {
		return err
	}
	return respondCart(c, fiber.StatusOK)(h.carts.RemoveItem(c.UserContext(), userID, itemID))
}

// SaveForLater parks one line.
func (h *CartHandler) SaveForLater(c *fiber.Ctx) error {
	userID, itemID, err := cartItemRef(c)
	if err != nil {
		return err
	}
	return respondCart(c, fiber.StatusOK)(h.carts.SaveForLater(c.UserContext(), userID, itemID))
}

// MoveToCart returns a parked line to the cart.
func (h *CartHandler) MoveToCart(c *fiber.Ctx) error {
	userID, itemID, err := cartItemRef(c)
	if err != nil {
		return err
	}
	return respondCart(c, fiber.StatusOK)(h.carts.MoveToCart(c.UserContext(), userID, itemID))
}

type couponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon attaches a coupon code.
func (h *CartHandler) ApplyCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	return respondCart(c, fiber.StatusOK)(h.carts.ApplyCoupon(c.UserContext(), userID, req.Code))
}

// RemoveCoupon detaches the coupon.
func (h *CartHandler) RemoveCoupon(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return respondCart(c, fiber.StatusOK)(h.carts.RemoveCoupon(c.UserContext(), userID))
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return respondCart(c, fiber.StatusOK)(h.carts.Clear(c.UserContext(), userID))
}

func cartItemRef(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, itemID, nil
}

func respondCart(c *fiber.Ctx, status int) func(*models.Cart, error) error {
	return func(cart *models.Cart, err error) error {
		if err != nil {
			return err
		}
		return c.Status(status).JSON(fiber.Map{
			"success":    true,
			"data":       cart,
			"item_count": cart.ItemCount(),
		})
	}
}
