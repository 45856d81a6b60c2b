package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
)

func TestCartGetCreatesEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	user := createUser(t, db, "empty@example.com")

	cart, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "INR", cart.Currency)
	assert.Empty(t, cart.Items)
	assertMoney(t, "0", cart.Subtotal, "subtotal")
	assertMoney(t, "100", cart.Shipping, "shipping")
	assertMoney(t, "100", cart.Total, "total")

	again, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartAddItemMergesSameLine(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "merge@example.com")
	product := createProduct(t, db, "Cotton Tee", "250", 10)

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 1, Size: "M", Color: "red"})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 1, Size: "M", Color: "red"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assertMoney(t, "500", cart.Items[0].TotalPrice, "line total")
	assertMoney(t, "500", cart.Subtotal, "subtotal")
	assertMoney(t, "100", cart.Shipping, "shipping")
	assertMoney(t, "90", cart.Tax, "tax")
	assertMoney(t, "690", cart.Total, "total")

	cart, err = svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 1, Size: "L", Color: "red"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCartAddItemValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "invalid@example.com")
	product := createProduct(t, db, "Cotton Tee", "250", 2)

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, user.ID, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 3})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error)
	_, err = svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestCartUsesVariantPrice(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	user := createUser(t, db, "variant@example.com")
	product := createProduct(t, db, "Denim Jacket", "1200", 5)
	require.NoError(t, db.Create(&models.ProductVariant{
		ProductID:       product.ID,
		Size:            "XL",
		Color:           "blue",
		SKU:             "DJ-XL-BLU",
		Stock:           3,
		Price:           dec("1300"),
		DiscountedPrice: decimal.NewNullDecimal(dec("1100")),
	}).Error)

	cart, err := svc.AddItem(context.Background(), user.ID, AddItemInput{ProductID: product.ID, Quantity: 1, Size: "xl", Color: "Blue"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "DJ-XL-BLU", cart.Items[0].SKU)
	assertMoney(t, "1100", cart.Items[0].TotalPrice, "line total")
	assertMoney(t, "0", cart.Shipping, "shipping")
}

func TestCartUpdateRemoveSaveMove(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "ops@example.com")
	tee := createProduct(t, db, "Tee", "100", 20)
	hoodie := createProduct(t, db, "Hoodie", "900", 20)

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: tee.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: hoodie.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	teeLine, hoodieLine := lineFor(t, cart, tee.ID).ID, lineFor(t, cart, hoodie.ID).ID
	assertMoney(t, "1000", cart.Subtotal, "subtotal")
	assertMoney(t, "100", cart.Shipping, "shipping at the threshold")

	cart, err = svc.UpdateQuantity(ctx, user.ID, teeLine, 3)
	require.NoError(t, err)
	assertMoney(t, "1200", cart.Subtotal, "subtotal after update")
	assertMoney(t, "0", cart.Shipping, "shipping after update")

	_, err = svc.UpdateQuantity(ctx, user.ID, teeLine, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.UpdateQuantity(ctx, user.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	cart, err = svc.SaveForLater(ctx, user.ID, hoodieLine)
	require.NoError(t, err)
	assertMoney(t, "300", cart.Subtotal, "subtotal with saved line")
	assert.Equal(t, 3, cart.ItemCount())

	cart, err = svc.MoveToCart(ctx, user.ID, hoodieLine)
	require.NoError(t, err)
	assertMoney(t, "1200", cart.Subtotal, "subtotal after move")

	cart, err = svc.RemoveItem(ctx, user.ID, teeLine)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assertMoney(t, "900", cart.Subtotal, "subtotal after remove")

	cart, err = svc.Clear(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assertMoney(t, "100", cart.Total, "total after clear")
}

func TestCartCoupons(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "coupon@example.com")
	product := createProduct(t, db, "Blazer", "1500", 5)
	createCoupon(t, db, "SAVE10", models.CouponPercentage, "10", "1000")
	createCoupon(t, db, "BIG", models.CouponFixed, "100", "5000")
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	old := createCoupon(t, db, "OLD", models.CouponFixed, "10", "0")
	require.NoError(t, db.Model(&old).Update("expires_at", expired).Error)

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.ApplyCoupon(ctx, user.ID, " save10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", cart.Coupon.Code)
	assertMoney(t, "1500", cart.Subtotal, "subtotal")
	assertMoney(t, "150", cart.Discount, "discount")
	assertMoney(t, "0", cart.Shipping, "shipping")
	assertMoney(t, "243", cart.Tax, "tax")
	assertMoney(t, "1593", cart.Total, "total")

	_, err = svc.ApplyCoupon(ctx, user.ID, "BIG")
	assert.ErrorIs(t, err, ErrCouponMinimum)
	_, err = svc.ApplyCoupon(ctx, user.ID, "NOPE")
	assert.ErrorIs(t, err, ErrCouponNotFound)
	_, err = svc.ApplyCoupon(ctx, user.ID, "OLD")
	assert.ErrorIs(t, err, ErrCouponNotFound)

	cart, err = svc.RemoveCoupon(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, cart.HasCoupon())
	assertMoney(t, "0", cart.Discount, "discount after removal")
	assertMoney(t, "1770", cart.Total, "total after removal")
}

func TestCartTotalsMatchFreshCompute(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "fresh@example.com")
	a := createProduct(t, db, "A", "199.99", 50)
	b := createProduct(t, db, "B", "349.50", 50)
	createCoupon(t, db, "PCT", models.CouponPercentage, "12.5", "0")

	calc := pricing.NewCalculator(pricing.DefaultRates())
	check := func(cart *models.Cart) {
		t.Helper()
		var stored models.Cart
		require.NoError(t, db.Preload("Items").First(&stored, "id = ?", cart.ID).Error)

		want := calc.Compute(lineItems(stored.Items), couponOf(&stored))
		assertMoney(t, want.Subtotal.String(), stored.Subtotal, "subtotal")
		assertMoney(t, want.Discount.String(), stored.Discount, "discount")
		assertMoney(t, want.Shipping.String(), stored.Shipping, "shipping")
		assertMoney(t, want.Tax.String(), stored.Tax, "tax")
		assertMoney(t, want.Total.String(), stored.Total, "total")
	}

	cart, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)
	check(cart)

	cart, err = svc.AddItem(ctx, user.ID, AddItemInput{ProductID: b.ID, Quantity: 1})
	require.NoError(t, err)
	check(cart)

	cart, err = svc.ApplyCoupon(ctx, user.ID, "PCT")
	require.NoError(t, err)
	check(cart)

	cart, err = svc.UpdateQuantity(ctx, user.ID, lineFor(t, cart, b.ID).ID, 4)
	require.NoError(t, err)
	check(cart)

	cart, err = svc.SaveForLater(ctx, user.ID, lineFor(t, cart, a.ID).ID)
	require.NoError(t, err)
	check(cart)
}

func createVariant(t *testing.T, db *gorm.DB, product models.Product, size, color string, stock int) models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{ProductID: product.ID, Size: size, Color: color, Stock: stock}
	require.NoError(t, db.Create(&variant).Error)
	return variant
}

func TestCartVariantStockLimitsQuantity(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "sizes@example.com")
	product := createProduct(t, db, "Polo", "500", 100)
	createVariant(t, db, product, "M", "red", 2)

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 3, Size: "M", Color: "red"})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	cart, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 1, Size: "M", Color: "red"})
	require.NoError(t, err)
	line := lineFor(t, cart, product.ID).ID

	_, err = svc.UpdateQuantity(ctx, user.ID, line, 50)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	cart, err = svc.UpdateQuantity(ctx, user.ID, line, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, lineFor(t, cart, product.ID).Quantity)
}

func TestCartMoveToCartMergesWithActiveLine(t *testing.T) {
	db := setupTestDB(t)
	svc := newCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "merge@example.com")
	product := createProduct(t, db, "Beanie", "250", 3)

	cart, err := svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	parked := lineFor(t, cart, product.ID).ID
	_, err = svc.SaveForLater(ctx, user.ID, parked)
	require.NoError(t, err)

	cart, err = svc.AddItem(ctx, user.ID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	var active uuid.UUID
	for _, item := range cart.Items {
		if !item.IsSavedForLater {
			active = item.ID
		}
	}

	_, err = svc.MoveToCart(ctx, user.ID, parked)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.UpdateQuantity(ctx, user.ID, active, 1)
	require.NoError(t, err)

	cart, err = svc.MoveToCart(ctx, user.ID, parked)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, active, cart.Items[0].ID)
	assert.Equal(t, 3, cart.ItemCount())
	assertMoney(t, "750", cart.Subtotal, "subtotal after merge")

	var rows int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
