package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

func TestErrorHandlerStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"fiber error", fiber.NewError(fiber.StatusTeapot, "short and stout"), fiber.StatusTeapot, "short and stout"},
		{"not found", services.ErrItemNotFound, fiber.StatusNotFound, "cart item not found"},
		{"wrapped bad request", fmt.Errorf("%w: minimum is 1000.00", services.ErrCouponMinimum), fiber.StatusBadRequest, "order amount is below the coupon minimum: minimum is 1000.00"},
		{"duplicate review", services.ErrDuplicateReview, fiber.StatusConflict, "product already reviewed"},
		{"gorm not found", gorm.ErrRecordNotFound, fiber.StatusNotFound, "record not found"},
		{"unexpected", errors.New("connection reset"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestValidateCoupon(t *testing.T) {
	valid := models.Coupon{Code: "SAVE10", Kind: models.CouponPercentage, Amount: decimal.NewFromInt(10)}
	assert.NoError(t, validateCoupon(valid))

	tooMuch := valid
	tooMuch.Amount = decimal.NewFromInt(150)
	assert.Error(t, validateCoupon(tooMuch))

	fixed := valid
	fixed.Kind = models.CouponFixed
	fixed.Amount = decimal.NewFromInt(500)
	assert.NoError(t, validateCoupon(fixed))

	unknown := valid
	unknown.Kind = "bogo"
	assert.Error(t, validateCoupon(unknown))

	negativeMin := valid
	negativeMin.MinAmount = decimal.NewFromInt(-1)
	assert.Error(t, validateCoupon(negativeMin))
}

func TestApplyCouponNormalises(t *testing.T) {
	code, kind := " welcome ", "FIXED"
	var item models.Coupon
	applyCoupon(&item, couponPayload{Code: &code, Kind: &kind})
	assert.Equal(t, "WELCOME", item.Code)
	assert.Equal(t, models.CouponFixed, item.Kind)
}

func TestBuildProductFromRequest(t *testing.T) {
	discounted := decimal.NewFromInt(800)
	product, err := buildProductFromRequest(productRequest{
		Name:            "  Slim Fit Jeans ",
		BasePrice:       decimal.NewFromInt(1000),
		DiscountedPrice: &discounted,
		Stock:           3,
		Tags:            []string{"denim"},
		Variants:        []variantRequest{{Size: "32", Color: "blue", Stock: 2, Price: decimal.NewFromInt(1000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Slim Fit Jeans", product.Name)
	assert.True(t, product.IsActive)
	assert.True(t, product.CurrentPrice().Equal(discounted))
	assert.Equal(t, int64(20), product.DiscountPercent())
	assert.Len(t, product.Variants, 1)
	assert.Nil(t, product.CategoryID)

	_, err = buildProductFromRequest(productRequest{Name: "Tee"})
	assert.EqualError(t, err, "base_price must be positive")

	tooHigh := decimal.NewFromInt(2000)
	_, err = buildProductFromRequest(productRequest{Name: "Tee", BasePrice: decimal.NewFromInt(100), DiscountedPrice: &tooHigh})
	assert.Error(t, err)

	_, err = buildProductFromRequest(productRequest{Name: "Tee", BasePrice: decimal.NewFromInt(100), CategoryID: "nope"})
	assert.EqualError(t, err, "invalid category_id")
}

func TestApplySettingsDefaults(t *testing.T) {
	settings := models.WebsiteSettings{SiteName: "Thread & Co"}
	applySettingsDefaults(&settings)

	assert.Equal(t, "Thread & Co", settings.SiteName)
	assert.Equal(t, defaultPrimaryColor, settings.PrimaryColor)
	assert.Equal(t, defaultContactEmail, settings.ContactEmail)
	assert.NotNil(t, settings.Announcements)
}

func TestDefaultCategories(t *testing.T) {
	categories := DefaultCategories()
	require.Len(t, categories, 6)
	assert.Equal(t, "t-shirts", categories[0].Slug)
	assert.Equal(t, "jackets", categories[5].Slug)
}
