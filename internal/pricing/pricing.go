// Package pricing derives cart and order totals from line items.
package pricing

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity is returned for line quantities below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Coupon kinds.
const (
	KindPercentage = "percentage"
	KindFixed      = "fixed"
)

// LineItem is one priced line of a cart or order.
type LineItem struct {
	ProductID       uuid.UUID
	Size            string
	Color           string
	SKU             string
	Quantity        int
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
	// Active is false for lines saved for later.
	Active bool
}

// NewLineItem builds an active line, rejecting quantities below one.
func NewLineItem(productID uuid.UUID, quantity int, price decimal.Decimal, discounted decimal.NullDecimal) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, ErrInvalidQuantity
	}
	return LineItem{
		ProductID:       productID,
		Quantity:        quantity,
		Price:           price,
		DiscountedPrice: discounted,
		Active:          true,
	}, nil
}

// UnitPrice is the discounted price when present and positive, else the price.
func (l LineItem) UnitPrice() decimal.Decimal {
	if l.DiscountedPrice.Valid && l.DiscountedPrice.Decimal.IsPositive() {
		return l.DiscountedPrice.Decimal
	}
	return l.Price
}

// Total is quantity times unit price.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Coupon is the discount applied to a subtotal.
type Coupon struct {
	Code      string
	Kind      string
	Amount    decimal.Decimal
	MinAmount decimal.Decimal
}

// Breakdown is the result of Compute. Every field is rounded to two places.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Rates are the storefront's pricing constants.
type Rates struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// DefaultRates returns 18% tax and a flat 100 fee for subtotals up to 1000.
func DefaultRates() Rates {
	return Rates{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(1000),
		FlatShippingFee:       decimal.NewFromInt(100),
	}
}

// Calculator computes breakdowns with fixed rates. The zero value is not usable; use NewCalculator.
type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Rates returns the calculator's constants.
func (c *Calculator) Rates() Rates {
	return c.rates
}

var hundred = decimal.NewFromInt(100)

// Compute totals the active items and applies coupon, shipping and tax.
// An empty cart still pays the flat shipping fee.
func (c *Calculator) Compute(items []LineItem, coupon *Coupon) Breakdown {
	subtotal := decimal.Zero
	for _, item := range items {
		if !item.Active {
			continue
		}
		subtotal = subtotal.Add(item.Total())
	}

	discount := decimal.Zero
	if coupon != nil && subtotal.GreaterThanOrEqual(coupon.MinAmount) {
		switch coupon.Kind {
		case KindPercentage:
			discount = subtotal.Mul(coupon.Amount).Div(hundred)
		case KindFixed:
			discount = coupon.Amount
		}
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		discount = decimal.Min(discount, subtotal)
	}

	shipping := c.rates.FlatShippingFee
	if subtotal.GreaterThan(c.rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(c.rates.TaxRate)
	total := taxable.Add(tax).Add(shipping)

	return Breakdown{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Shipping: shipping.Round(2),
		Tax:      tax.Round(2),
		Total:    total.Round(2),
	}
}
