package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// SettingsHandler manages the website settings singleton.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

const (
	defaultSiteName        = "Storefront"
	defaultSiteDescription = "Your one-stop destination for trendy and affordable fashion"
	defaultPrimaryColor    = "#3B82F6"
	defaultSecondaryColor  = "#1E40AF"
	defaultContactEmail    = "support@example.com"
)

func applySettingsDefaults(settings *models.WebsiteSettings) {
	if strings.TrimSpace(settings.SiteName) == "" {
		settings.SiteName = defaultSiteName
	}
	if strings.TrimSpace(settings.SiteDescription) == "" {
		settings.SiteDescription = defaultSiteDescription
	}
	if strings.TrimSpace(settings.PrimaryColor) == "" {
		settings.PrimaryColor = defaultPrimaryColor
	}
	if strings.TrimSpace(settings.SecondaryColor) == "" {
		settings.SecondaryColor = defaultSecondaryColor
	}
	if strings.TrimSpace(settings.ContactEmail) == "" {
		settings.ContactEmail = defaultContactEmail
	}
	if settings.HeroImages == nil {
		settings.HeroImages = models.StringList{}
	}
	if settings.Announcements == nil {
		settings.Announcements = models.StringList{}
	}
}

func validateSettings(input *models.WebsiteSettings) error {
	if strings.TrimSpace(input.ContactEmail) != "" {
		if _, err := mail.ParseAddress(input.ContactEmail); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email format")
		}
	}
	return nil
}

// GetSettings returns the current website settings (public endpoint).
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	var settings models.WebsiteSettings
	if err := h.db.First(&settings).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	applySettingsDefaults(&settings)
	return success(c, settings)
}

// UpdateSettings creates or replaces the website settings (admin endpoint).
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var input models.WebsiteSettings
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validateSettings(&input); err != nil {
		return err
	}

	var existing models.WebsiteSettings
	result := h.db.First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		input.BaseModel = models.BaseModel{}
		if err := h.db.Create(&input).Error; err != nil {
			return err
		}
		applySettingsDefaults(&input)
		return success(c, input)
	} else if result.Error != nil {
		return result.Error
	}

	// Copy fields explicitly so id and created_at survive the client payload.
	existing.SiteName = input.SiteName
	existing.SiteDescription = input.SiteDescription
	existing.PrimaryColor = input.PrimaryColor
	existing.SecondaryColor = input.SecondaryColor
	existing.Logo = input.Logo
	existing.ContactEmail = input.ContactEmail
	existing.ContactPhone = input.ContactPhone
	existing.Address = input.Address
	existing.HeroImages = input.HeroImages
	existing.Announcements = input.Announcements
	existing.Facebook = input.Facebook
	existing.Instagram = input.Instagram
	existing.Twitter = input.Twitter
	existing.Youtube = input.Youtube

	if err := h.db.Save(&existing).Error; err != nil {
		return err
	}

	applySettingsDefaults(&existing)
	return success(c, existing)
}
