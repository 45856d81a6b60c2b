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

// CouponHandler manages discount codes.
type CouponHandler struct {
	db *gorm.DB
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(db *gorm.DB) *CouponHandler {
	return &CouponHandler{db: db}
}

func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var total int64
	if err := h.db.Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return err
	}

	var items []models.Coupon
	if err := h.db.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items, "pagination": pg.Meta(total)})
}

type couponPayload struct {
	Code        *string          `json:"code"`
	Description *string          `json:"description"`
	Kind        *string          `json:"kind"`
	Amount      *decimal.Decimal `json:"amount"`
	MinAmount   *decimal.Decimal `json:"min_amount"`
	IsActive    *bool            `json:"is_active"`
	ExpiresAt   *time.Time       `json:"expires_at"`
}

func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == nil || req.Kind == nil || req.Amount == nil {
		return fiber.NewError(fiber.StatusBadRequest, "code, kind and amount are required")
	}

	item := models.Coupon{IsActive: true}
	applyCoupon(&item, req)
	if err := validateCoupon(item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "coupon code already exists")
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var item models.Coupon
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}

	var req couponPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	applyCoupon(&item, req)
	if err := validateCoupon(item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Save(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "coupon code already exists")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.db.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func applyCoupon(item *models.Coupon, req couponPayload) {
	if req.Code != nil {
		item.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Kind != nil {
		item.Kind = strings.ToLower(*req.Kind)
	}
	if req.Amount != nil {
		item.Amount = *req.Amount
	}
	if req.MinAmount != nil {
		item.MinAmount = *req.MinAmount
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		item.ExpiresAt = req.ExpiresAt
	}
}

func validateCoupon(item models.Coupon) error {
	if item.Code == "" {
		return errors.New("code is required")
	}
	switch item.Kind {
	case models.CouponPercentage:
		if item.Amount.IsNegative() || item.Amount.GreaterThan(decimal.NewFromInt(100)) {
			return errors.New("percentage amount must be between 0 and 100")
		}
	case models.CouponFixed:
		if item.Amount.IsNegative() {
			return errors.New("fixed amount must not be negative")
		}
	default:
		return errors.New("kind must be percentage or fixed")
	}
	if item.MinAmount.IsNegative() {
		return errors.New("min_amount must not be negative")
	}
	return nil
}
