package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)
}

func newCartService(db *gorm.DB) *CartService {
	svc := NewCartService(db, pricing.NewCalculator(pricing.DefaultRates()), "INR", nil)
	svc.now = fixedClock
	return svc
}

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Name: "Test User", Email: email, Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createProduct(t *testing.T, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:      name,
		BasePrice: dec(price),
		Stock:     stock,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func createCoupon(t *testing.T, db *gorm.DB, code, kind, amount, minAmount string) models.Coupon {
	t.Helper()
	coupon := models.Coupon{
		Code:      code,
		Kind:      kind,
		Amount:    dec(amount),
		MinAmount: dec(minAmount),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&coupon).Error)
	return coupon
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, got.Equal(dec(want)), "%s = %s, want %s", field, got.String(), want)
}

func lineFor(t *testing.T, cart *models.Cart, productID uuid.UUID) models.CartItem {
	t.Helper()
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return item
		}
	}
	t.Fatalf("no cart line for product %s", productID)
	return models.CartItem{}
}
