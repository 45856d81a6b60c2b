package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	// Role may be "customer" (default) or "seller". Admins are promoted by an admin.
	Role string `json:"role"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}

	role := models.RoleCustomer
	switch req.Role {
	case "", models.RoleCustomer:
	case models.RoleSeller:
		role = models.RoleSeller
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooShort) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	} else if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    publicUser(user),
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "account is disabled")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    publicUser(user),
		"token":   token,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.WithContext(c.UserContext()).Preload("Addresses").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return success(c, user)
}

func publicUser(user models.User) fiber.Map {
	return fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	}
}
