package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"phone":      user.Phone,
			"role":       user.Role,
			"created_at": user.CreatedAt,
			"updated_at": user.UpdatedAt,
		},
	})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// Address endpoints

// ListAddresses returns user addresses, default first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var addresses []models.UserAddress
	if err := h.db.Where("user_id = ?", userID).
		Order("is_default desc").Order("created_at asc").
		Find(&addresses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": addresses})
}

type addressRequest struct {
	Label       *string `json:"label"`
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Pincode     *string `json:"pincode"`
	Landmark    *string `json:"landmark"`
	IsDefault   *bool   `json:"is_default"`
}

func (r addressRequest) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	set("label", r.Label)
	set("name", r.Name)
	set("phone", r.Phone)
	set("address_line", r.AddressLine)
	set("city", r.City)
	set("state", r.State)
	set("pincode", r.Pincode)
	set("landmark", r.Landmark)
	if r.IsDefault != nil {
		updates["is_default"] = *r.IsDefault
	}
	return updates
}

// CreateAddress creates an address for the user. The first address becomes the default.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	values := req.updates()
	for _, required := range []string{"name", "address_line", "city", "pincode"} {
		if v, _ := values[required].(string); v == "" {
			return fiber.NewError(fiber.StatusBadRequest, required+" is required")
		}
	}

	address := models.UserAddress{UserID: userID}
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAddress{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			values["is_default"] = true
		}
		if isDefault, _ := values["is_default"].(bool); isDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
		}

		if err := tx.Create(&address).Error; err != nil {
			return err
		}
		return tx.Model(&address).Updates(values).Error
	}); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": address})
}

// UpdateAddress updates a user address.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := req.updates()
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	var address models.UserAddress
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&address, "id = ? AND user_id = ?", addrID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "address not found")
			}
			return err
		}
		if req.IsDefault != nil && *req.IsDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
		}
		return tx.Model(&address).Updates(updates).Error
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": address})
}

// DeleteAddress removes a user address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addrID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	result := h.db.Where("id = ? AND user_id = ?", addrID, userID).Delete(&models.UserAddress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "address not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "address deleted"})
}

func clearDefaultAddress(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
