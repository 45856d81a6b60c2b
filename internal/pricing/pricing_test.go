package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(t *testing.T, qty int, price string) LineItem {
	t.Helper()
	item, err := NewLineItem(uuid.New(), qty, dec(price), decimal.NullDecimal{})
	require.NoError(t, err)
	return item
}

func assertBreakdown(t *testing.T, got Breakdown, subtotal, discount, shipping, tax, total string) {
	t.Helper()
	assert.True(t, got.Subtotal.Equal(dec(subtotal)), "subtotal = %s, want %s", got.Subtotal, subtotal)
	assert.True(t, got.Discount.Equal(dec(discount)), "discount = %s, want %s", got.Discount, discount)
	assert.True(t, got.Shipping.Equal(dec(shipping)), "shipping = %s, want %s", got.Shipping, shipping)
	assert.True(t, got.Tax.Equal(dec(tax)), "tax = %s, want %s", got.Tax, tax)
	assert.True(t, got.Total.Equal(dec(total)), "total = %s, want %s", got.Total, total)
}

func TestComputeEmptyCartPaysShipping(t *testing.T) {
	got := NewCalculator(DefaultRates()).Compute(nil, nil)
	assertBreakdown(t, got, "0", "0", "100", "0", "100")
}

func TestComputePercentageCouponAboveThreshold(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	coupon := &Coupon{Code: "SAVE10", Kind: KindPercentage, Amount: dec("10"), MinAmount: dec("500")}

	got := calc.Compute([]LineItem{line(t, 1, "1500")}, coupon)
	assertBreakdown(t, got, "1500", "150", "0", "243", "1593")
}

func TestComputeBelowThresholdNoCoupon(t *testing.T) {
	got := NewCalculator(DefaultRates()).Compute([]LineItem{line(t, 2, "250")}, nil)
	assertBreakdown(t, got, "500", "0", "100", "90", "690")
}

func TestComputeThresholdIsExclusive(t *testing.T) {
	got := NewCalculator(DefaultRates()).Compute([]LineItem{line(t, 1, "1000")}, nil)
	assertBreakdown(t, got, "1000", "0", "100", "180", "1280")
}

func TestComputeFixedCouponCappedAtSubtotal(t *testing.T) {
	coupon := &Coupon{Code: "BIG", Kind: KindFixed, Amount: dec("800")}

	got := NewCalculator(DefaultRates()).Compute([]LineItem{line(t, 1, "300")}, coupon)
	assertBreakdown(t, got, "300", "300", "100", "0", "100")
}

func TestComputeCouponBelowMinimumIgnored(t *testing.T) {
	coupon := &Coupon{Code: "MIN", Kind: KindFixed, Amount: dec("50"), MinAmount: dec("1000")}

	calc := NewCalculator(DefaultRates())
	got := calc.Compute([]LineItem{line(t, 1, "999.99")}, coupon)
	assert.True(t, got.Discount.IsZero())

	percent := &Coupon{Code: "SAVE10", Kind: KindPercentage, Amount: dec("10"), MinAmount: dec("1000")}
	got = calc.Compute([]LineItem{line(t, 2, "250")}, percent)
	assertBreakdown(t, got, "500", "0", "100", "90", "690")
}

func TestComputeUsesDiscountedPriceAndSkipsSavedItems(t *testing.T) {
	discounted, err := NewLineItem(uuid.New(), 3, dec("200"), decimal.NewNullDecimal(dec("150")))
	require.NoError(t, err)
	saved := line(t, 5, "999")
	saved.Active = false
	zeroDiscount, err := NewLineItem(uuid.New(), 1, dec("40"), decimal.NewNullDecimal(decimal.Zero))
	require.NoError(t, err)

	got := NewCalculator(DefaultRates()).Compute([]LineItem{discounted, saved, zeroDiscount}, nil)
	assertBreakdown(t, got, "490", "0", "100", "88.2", "678.2")
}

func TestComputeRoundsOnceHalfUp(t *testing.T) {
	// 3 x 33.335 = 100.005; tax 18.0009.
	got := NewCalculator(DefaultRates()).Compute([]LineItem{line(t, 3, "33.335")}, nil)
	assertBreakdown(t, got, "100.01", "0", "100", "18", "218.01")
}

func TestComputeInvariants(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	coupons := []*Coupon{
		nil,
		{Kind: KindPercentage, Amount: dec("100")},
		{Kind: KindPercentage, Amount: dec("12.5"), MinAmount: dec("300")},
		{Kind: KindFixed, Amount: dec("5000")},
		{Kind: KindFixed, Amount: dec("0")},
	}
	carts := [][]LineItem{
		nil,
		{line(t, 1, "0.01")},
		{line(t, 4, "249.99"), line(t, 1, "19.5")},
		{line(t, 10, "1200")},
	}

	for _, items := range carts {
		for _, coupon := range coupons {
			got := calc.Compute(items, coupon)
			assert.False(t, got.Discount.IsNegative())
			assert.True(t, got.Discount.LessThanOrEqual(got.Subtotal))
			assert.False(t, got.Tax.IsNegative())
			assert.False(t, got.Total.IsNegative())

			again := calc.Compute(items, coupon)
			assert.Equal(t, got, again)
		}
	}
}

func TestNewLineItemRejectsQuantity(t *testing.T) {
	_, err := NewLineItem(uuid.New(), 0, dec("10"), decimal.NullDecimal{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewLineItem(uuid.New(), -2, dec("10"), decimal.NullDecimal{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCustomRates(t *testing.T) {
	calc := NewCalculator(Rates{
		TaxRate:               dec("0.05"),
		FreeShippingThreshold: dec("200"),
		FlatShippingFee:       dec("25"),
	})

	got := calc.Compute([]LineItem{line(t, 1, "150")}, nil)
	assertBreakdown(t, got, "150", "0", "25", "7.5", "182.5")
}
