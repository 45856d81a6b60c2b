package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderPending        = "pending"
	OrderConfirmed      = "confirmed"
	OrderProcessing     = "processing"
	OrderShipped        = "shipped"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
	OrderReturned       = "returned"
	OrderRefunded       = "refunded"
)

// Parties that can cancel an order.
const (
	CancelledByCustomer = "customer"
	CancelledByAdmin    = "admin"
	CancelledBySystem   = "system"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

var orderStatuses = map[string]bool{
	OrderPending: true, OrderConfirmed: true, OrderProcessing: true, OrderShipped: true,
	OrderOutForDelivery: true, OrderDelivered: true, OrderCancelled: true,
	OrderReturned: true, OrderRefunded: true,
}

// ValidOrderStatus reports whether status is a known order status.
func ValidOrderStatus(status string) bool {
	return orderStatuses[status]
}

// Cancellable reports whether the customer may still cancel the order.
func (o Order) Cancellable() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}

// AdminCancellable reports whether an admin may still cancel the order.
// Delivered, returned and refunded orders are past the point of cancellation.
func (o Order) AdminCancellable() bool {
	switch o.Status {
	case OrderDelivered, OrderReturned, OrderRefunded, OrderCancelled:
		return false
	}
	return true
}

type Order struct {
	BaseModel
	OrderNumber        string          `gorm:"uniqueIndex" json:"order_number"`
	UserID             uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User               *User           `json:"user,omitempty"`
	Items              []OrderItem     `json:"items,omitempty"`
	ShippingAddress    ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentStatus      string          `json:"payment_status"`
	Status             string          `gorm:"index" json:"status"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(16,2)" json:"subtotal"`
	Discount           decimal.Decimal `gorm:"type:decimal(16,2)" json:"discount"`
	Tax                decimal.Decimal `gorm:"type:decimal(16,2)" json:"tax"`
	ShippingFee        decimal.Decimal `gorm:"type:decimal(16,2)" json:"shipping_fee"`
	Total              decimal.Decimal `gorm:"type:decimal(16,2)" json:"total"`
	Currency           string          `json:"currency"`
	CouponCode         string          `json:"coupon_code"`
	Notes              string          `json:"notes"`
	IsGift             bool            `json:"is_gift"`
	GiftMessage        string          `json:"gift_message"`
	PlacedAt           time.Time       `gorm:"index" json:"placed_at"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	CancelledBy        string          `json:"cancelled_by"`
	CancellationReason string          `json:"cancellation_reason"`
	// StockReleased is set once the order's units went back to stock.
	StockReleased bool            `json:"-"`
	Tracking      []OrderTracking `json:"tracking,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID         uuid.UUID           `gorm:"type:uuid;index" json:"order_id"`
	ProductID       uuid.UUID           `gorm:"type:uuid;index" json:"product_id"`
	VariantID       *uuid.UUID          `gorm:"type:uuid" json:"variant_id,omitempty"`
	SellerID        *uuid.UUID          `gorm:"type:uuid;index" json:"seller_id"`
	ProductName     string              `json:"product_name"`
	Size            string              `json:"size"`
	Color           string              `json:"color"`
	SKU             string              `json:"sku"`
	Quantity        int                 `json:"quantity"`
	Price           decimal.Decimal     `gorm:"type:decimal(16,2)" json:"price"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"discounted_price"`
	TotalPrice      decimal.Decimal     `gorm:"type:decimal(16,2)" json:"total_price"`
}

type OrderTracking struct {
	BaseModel
	OrderID        uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Status         string    `json:"status"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	TrackingNumber string    `json:"tracking_number"`
	Courier        string    `json:"courier"`
	Timestamp      time.Time `json:"timestamp"`
}
