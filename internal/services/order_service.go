package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
)

const (
	orderNumberPrefix      = "TC"
	maxOrderNumberAttempts = 5
	defaultPaymentMethod   = "cod"
)

// OrderNotifier is told about every placed order.
type OrderNotifier interface {
	NotifyNewOrder(OrderNotification) error
}

// OrderService turns carts into orders and manages their lifecycle.
type OrderService struct {
	db       *gorm.DB
	carts    *CartService
	notifier OrderNotifier
	log      *zap.Logger
	now      func() time.Time
}

// NewOrderService constructs OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, carts *CartService, notifier OrderNotifier, log *zap.Logger) *OrderService {
	return &OrderService{db: db, carts: carts, notifier: notifier, log: logger.OrNop(log), now: time.Now}
}

// CheckoutInput selects the shipping address and payment details.
// AddressID wins over ShippingAddress; with neither the default address is used.
type CheckoutInput struct {
	AddressID       *uuid.UUID              `json:"address_id"`
	ShippingAddress *models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                  `json:"payment_method"`
	Notes           string                  `json:"notes"`
	IsGift          bool                    `json:"is_gift"`
	GiftMessage     string                  `json:"gift_message"`
}

// StatusUpdate is an admin status change with its tracking details.
type StatusUpdate struct {
	Status         string `json:"status"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	TrackingNumber string `json:"tracking_number"`
	Courier        string `json:"courier"`
}

// FormatOrderNumber renders TC<yymmdd><seq:4>.
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, day.Format("060102"), seq)
}

// Checkout places an order for the active cart lines, reserves stock and
// leaves only saved-for-later lines in the cart.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		order, err = s.checkout(ctx, userID, in, int64(attempt))
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.log.Warn("order number collision, retrying", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	s.notify(order)
	return order, nil
}

func (s *OrderService) checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput, offset int64) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.carts.loadOrCreate(tx, userID)
		if err != nil {
			return err
		}

		active := cart.ActiveItems()
		if len(active) == 0 {
			return ErrEmptyCart
		}

		address, err := resolveAddress(tx, userID, in)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(active))
		for _, line := range active {
			if line.Product == nil {
				return ErrProductNotFound
			}
			if !line.Product.IsActive {
				return fmt.Errorf("%w: %s", ErrProductUnavailable, line.Product.Name)
			}

			variantID, err := reserveStock(tx, line)
			if err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				ProductID:       line.ProductID,
				VariantID:       variantID,
				SellerID:        line.Product.SellerID,
				ProductName:     line.Product.Name,
				Size:            line.Size,
				Color:           line.Color,
				SKU:             line.SKU,
				Quantity:        line.Quantity,
				Price:           line.Price,
				DiscountedPrice: line.DiscountedPrice,
				TotalPrice:      cartLine(line).Total().Round(2),
			})
		}

		breakdown := s.carts.calc.Compute(lineItems(active), couponOf(cart))

		now := s.now()
		number, err := s.nextOrderNumber(tx, now, offset)
		if err != nil {
			return err
		}

		paymentMethod := strings.TrimSpace(in.PaymentMethod)
		if paymentMethod == "" {
			paymentMethod = defaultPaymentMethod
		}

		order = &models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Items:           items,
			ShippingAddress: address,
			PaymentMethod:   paymentMethod,
			PaymentStatus:   models.PaymentPending,
			Status:          models.OrderPending,
			Subtotal:        breakdown.Subtotal,
			Discount:        breakdown.Discount,
			Tax:             breakdown.Tax,
			ShippingFee:     breakdown.Shipping,
			Total:           breakdown.Total,
			Currency:        cart.Currency,
			CouponCode:      cart.Coupon.Code,
			Notes:           in.Notes,
			IsGift:          in.IsGift,
			GiftMessage:     in.GiftMessage,
			PlacedAt:        now,
			Tracking: []models.OrderTracking{{
				Status:      models.OrderPending,
				Description: "Order placed",
				Timestamp:   now,
			}},
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ? AND is_saved_for_later = ?", cart.ID, false).
			Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		saved := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.IsSavedForLater {
				saved = append(saved, item)
			}
		}
		cart.Items = saved
		cart.Coupon = models.AppliedCoupon{}
		return s.carts.recalculate(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// reserveStock takes the line's units off the product and, when the line
// matches a variant, off that variant too.
func reserveStock(tx *gorm.DB, line models.CartItem) (*uuid.UUID, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
		Update("stock", gorm.Expr("stock - ?", line.Quantity))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.Product.Name)
	}

	variant := variantFor(*line.Product, line.Size, line.Color)
	if variant == nil {
		return nil, nil
	}
	res = tx.Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variant.ID, line.Quantity).
		Update("stock", gorm.Expr("stock - ?", line.Quantity))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s %s/%s", ErrInsufficientStock, line.Product.Name, line.Size, line.Color)
	}
	id := variant.ID
	return &id, nil
}

// nextOrderNumber numbers the order after the orders already placed today.
func (s *OrderService) nextOrderNumber(tx *gorm.DB, now time.Time, offset int64) (string, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	if err := tx.Model(&models.Order{}).
		Where("placed_at >= ? AND placed_at < ?", start, start.AddDate(0, 0, 1)).
		Count(&count).Error; err != nil {
		return "", err
	}
	return FormatOrderNumber(now, count+1+offset), nil
}

func resolveAddress(tx *gorm.DB, userID uuid.UUID, in CheckoutInput) (models.ShippingAddress, error) {
	var address models.UserAddress

	if in.AddressID != nil {
		err := tx.First(&address, "id = ? AND user_id = ?", *in.AddressID, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShippingAddress{}, fmt.Errorf("%w: address not found", ErrAddressRequired)
		}
		if err != nil {
			return models.ShippingAddress{}, err
		}
		return address.Snapshot(), nil
	}

	if in.ShippingAddress != nil && strings.TrimSpace(in.ShippingAddress.Address) != "" {
		return *in.ShippingAddress, nil
	}

	err := tx.Where("user_id = ? AND is_default = ?", userID, true).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ShippingAddress{}, ErrAddressRequired
	}
	if err != nil {
		return models.ShippingAddress{}, err
	}
	return address.Snapshot(), nil
}

// ListForUser returns a page of the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

// ListAll returns a page of all orders, optionally filtered by status or order number.
func (s *OrderService) ListAll(ctx context.Context, status, search string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(shipping_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").Preload("User").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

// Get returns one of the user's orders with items and tracking history.
func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.find(s.db.WithContext(ctx), "id = ? AND user_id = ?", orderID, userID)
}

// Cancel cancels a pending or confirmed order of the user and restores stock.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.find(tx, "id = ? AND user_id = ?", orderID, userID)
		if err != nil {
			return err
		}
		if !order.Cancellable() {
			return ErrOrderNotCancellable
		}
		return s.cancel(tx, order, models.CancelledByCustomer, reason)
	})
	if err != nil {
		return nil, err
	}
	return s.find(s.db.WithContext(ctx), "id = ?", orderID)
}

// UpdateStatus moves an order to a new status and appends a tracking entry.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, in StatusUpdate) (*models.Order, error) {
	if !models.ValidOrderStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.find(tx, "id = ?", orderID)
		if err != nil {
			return err
		}

		if in.Status == models.OrderCancelled {
			if order.Status == models.OrderCancelled {
				return nil
			}
			if !order.AdminCancellable() {
				return ErrOrderNotCancellable
			}
			return s.cancel(tx, order, models.CancelledByAdmin, in.Description)
		}

		updates := map[string]interface{}{"status": in.Status}
		if in.Status == models.OrderDelivered && order.PaymentMethod == defaultPaymentMethod {
			updates["payment_status"] = models.PaymentPaid
		}
		if in.Status == models.OrderRefunded {
			updates["payment_status"] = models.PaymentRefunded
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}

		description := in.Description
		if description == "" {
			description = "Order " + strings.ReplaceAll(in.Status, "_", " ")
		}
		return tx.Create(&models.OrderTracking{
			OrderID:        order.ID,
			Status:         in.Status,
			Description:    description,
			Location:       in.Location,
			TrackingNumber: in.TrackingNumber,
			Courier:        in.Courier,
			Timestamp:      s.now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status updated", zap.String("order_id", orderID.String()), zap.String("status", in.Status))
	return s.find(s.db.WithContext(ctx), "id = ?", orderID)
}

// cancel marks the order cancelled. Stock goes back at most once per order.
func (s *OrderService) cancel(tx *gorm.DB, order *models.Order, by, reason string) error {
	if !order.StockReleased {
		if err := releaseStock(tx, order.Items); err != nil {
			return err
		}
	}

	now := s.now()
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":              models.OrderCancelled,
		"cancelled_at":        now,
		"cancelled_by":        by,
		"cancellation_reason": reason,
		"stock_released":      true,
	}).Error; err != nil {
		return err
	}

	description := "Order cancelled"
	if reason != "" {
		description += ": " + reason
	}
	return tx.Create(&models.OrderTracking{
		OrderID:     order.ID,
		Status:      models.OrderCancelled,
		Description: description,
		Timestamp:   now,
	}).Error
}

func releaseStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
			return err
		}
		if item.VariantID == nil {
			continue
		}
		if err := tx.Model(&models.ProductVariant{}).
			Where("id = ?", *item.VariantID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) find(db *gorm.DB, query string, args ...interface{}) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where(query, args...).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) notify(order *models.Order) {
	if s.notifier == nil {
		return
	}

	var user models.User
	if err := s.db.Select("name", "email").First(&user, "id = ?", order.UserID).Error; err != nil {
		s.log.Warn("order notification user lookup failed", zap.Error(err))
	}

	notification := OrderNotification{
		OrderNumber:   order.OrderNumber,
		Total:         order.Total,
		Currency:      order.Currency,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		PaymentMethod: order.PaymentMethod,
		City:          order.ShippingAddress.City,
	}
	for _, item := range order.Items {
		notification.Items = append(notification.Items, OrderItemNotification{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    unitPrice(item),
		})
	}

	go func() {
		if err := s.notifier.NotifyNewOrder(notification); err != nil {
			s.log.Warn("order notification failed", zap.String("order_number", notification.OrderNumber), zap.Error(err))
		}
	}()
}

func unitPrice(item models.OrderItem) decimal.Decimal {
	if item.DiscountedPrice.Valid && item.DiscountedPrice.Decimal.IsPositive() {
		return item.DiscountedPrice.Decimal
	}
	return item.Price
}
