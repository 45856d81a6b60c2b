package services

import "errors"

var (
	ErrItemNotFound        = errors.New("cart item not found")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrProductNotFound     = errors.New("product not found")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrCouponNotFound      = errors.New("coupon not found or expired")
	ErrCouponMinimum       = errors.New("order amount is below the coupon minimum")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrAddressRequired     = errors.New("shipping address is required")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrDuplicateReview     = errors.New("product already reviewed")
)
