package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// ListReviews returns a product's reviews, newest first.
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	reviews, total, err := h.reviews.ListForProduct(c.UserContext(), productID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       reviews,
		"pagination": pg.Meta(total),
	})
}

// CreateReview stores the authenticated user's review of a product.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req services.ReviewInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.reviews.Create(c.UserContext(), userID, productID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}
