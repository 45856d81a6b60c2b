package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon kinds.
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

type Coupon struct {
	BaseModel
	Code        string          `gorm:"uniqueIndex;not null" json:"code"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `gorm:"type:decimal(16,2)" json:"amount"`
	MinAmount   decimal.Decimal `gorm:"type:decimal(16,2)" json:"min_amount"`
	IsActive    bool            `json:"is_active"`
	ExpiresAt   *time.Time      `json:"expires_at"`
}

// AppliedCoupon is the coupon snapshot held by a cart.
type AppliedCoupon struct {
	Code      string          `json:"code"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `gorm:"type:decimal(16,2)" json:"amount"`
	MinAmount decimal.Decimal `gorm:"type:decimal(16,2)" json:"min_amount"`
}

type Cart struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items       []CartItem      `json:"items"`
	Coupon      AppliedCoupon   `gorm:"embedded;embeddedPrefix:coupon_" json:"coupon"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(16,2)" json:"subtotal"`
	Discount    decimal.Decimal `gorm:"type:decimal(16,2)" json:"discount"`
	Tax         decimal.Decimal `gorm:"type:decimal(16,2)" json:"tax"`
	Shipping    decimal.Decimal `gorm:"type:decimal(16,2)" json:"shipping"`
	Total       decimal.Decimal `gorm:"type:decimal(16,2)" json:"total"`
	Currency    string          `json:"currency"`
	LastUpdated time.Time       `json:"last_updated"`
}

// HasCoupon reports whether a coupon is applied.
func (c Cart) HasCoupon() bool {
	return c.Coupon.Code != ""
}

// ActiveItems returns the items not saved for later.
func (c Cart) ActiveItems() []CartItem {
	active := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if !item.IsSavedForLater {
			active = append(active, item)
		}
	}
	return active
}

// ItemCount sums quantities over active items.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.ActiveItems() {
		count += item.Quantity
	}
	return count
}

type CartItem struct {
	BaseModel
	CartID          uuid.UUID           `gorm:"type:uuid;index" json:"cart_id"`
	ProductID       uuid.UUID           `gorm:"type:uuid;index" json:"product_id"`
	Product         *Product            `json:"product,omitempty"`
	Size            string              `json:"size"`
	Color           string              `json:"color"`
	SKU             string              `json:"sku"`
	Quantity        int                 `json:"quantity"`
	Price           decimal.Decimal     `gorm:"type:decimal(16,2)" json:"price"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"discounted_price"`
	TotalPrice      decimal.Decimal     `gorm:"type:decimal(16,2)" json:"total_price"`
	IsSavedForLater bool                `json:"is_saved_for_later"`
	AddedAt         time.Time           `json:"added_at"`
}
