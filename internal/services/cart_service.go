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
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
)

// CartService owns the per-user cart. Every mutation recomputes the totals
// from the full item list.
type CartService struct {
	db       *gorm.DB
	calc     *pricing.Calculator
	currency string
	log      *zap.Logger
	now      func() time.Time
}

// NewCartService constructs CartService.
func NewCartService(db *gorm.DB, calc *pricing.Calculator, currency string, log *zap.Logger) *CartService {
	if currency == "" {
		currency = "INR"
	}
	return &CartService{db: db, calc: calc, currency: currency, log: logger.OrNop(log), now: time.Now}
}

// AddItemInput describes a product line to add.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

// Get returns the user's cart, creating an empty one on first access.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = s.loadOrCreate(tx, userID)
		return err
	})
	return cart, err
}

// AddItem adds a product line, merging with an active line of the same product, size and color.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, in AddItemInput) (*models.Cart, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		var product models.Product
		if err := tx.Preload("Variants").First(&product, "id = ?", in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if !product.IsActive {
			return ErrProductUnavailable
		}

		price, discounted, sku, stock := priceFor(product, in.Size, in.Color)

		for i := range cart.Items {
			item := &cart.Items[i]
			if item.IsSavedForLater || item.ProductID != product.ID || item.Size != in.Size || item.Color != in.Color {
				continue
			}
			quantity := item.Quantity + in.Quantity
			if quantity > stock {
				return ErrInsufficientStock
			}
			item.Quantity = quantity
			return tx.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error
		}

		if in.Quantity > stock {
			return ErrInsufficientStock
		}

		item := models.CartItem{
			CartID:          cart.ID,
			ProductID:       product.ID,
			Size:            in.Size,
			Color:           in.Color,
			SKU:             sku,
			Quantity:        in.Quantity,
			Price:           price,
			DiscountedPrice: discounted,
			TotalPrice:      decimal.Zero,
			AddedAt:         s.now(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		item.Product = &product
		cart.Items = append(cart.Items, item)
		return nil
	})
}

// UpdateQuantity sets the quantity of one line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		item, err := findItem(cart, itemID)
		if err != nil {
			return err
		}
		if quantity > stockFor(item) {
			return ErrInsufficientStock
		}
		item.Quantity = quantity
		return tx.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error
	})
}

// RemoveItem deletes one line.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		if _, err := findItem(cart, itemID); err != nil {
			return err
		}
		if err := tx.Delete(&models.CartItem{}, "id = ?", itemID).Error; err != nil {
			return err
		}

		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
		return nil
	})
}

// SaveForLater parks a line outside the totals.
func (s *CartService) SaveForLater(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	return s.setSaved(ctx, userID, itemID, true)
}

// MoveToCart returns a parked line to the active cart.
func (s *CartService) MoveToCart(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	return s.setSaved(ctx, userID, itemID, false)
}

func (s *CartService) setSaved(ctx context.Context, userID, itemID uuid.UUID, saved bool) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		item, err := findItem(cart, itemID)
		if err != nil {
			return err
		}
		if item.IsSavedForLater == saved {
			return nil
		}
		if !saved {
			return moveToActive(tx, cart, item)
		}
		item.IsSavedForLater = true
		return tx.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("is_saved_for_later", true).Error
	})
}

// moveToActive returns a parked line to the cart, folding it into an active
// line of the same product, size and color when one exists.
func moveToActive(tx *gorm.DB, cart *models.Cart, parked *models.CartItem) error {
	for i := range cart.Items {
		line := &cart.Items[i]
		if line.IsSavedForLater || line.ProductID != parked.ProductID || line.Size != parked.Size || line.Color != parked.Color {
			continue
		}

		quantity := line.Quantity + parked.Quantity
		if quantity > stockFor(line) {
			return ErrInsufficientStock
		}
		if err := tx.Model(&models.CartItem{}).Where("id = ?", line.ID).Update("quantity", quantity).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CartItem{}, "id = ?", parked.ID).Error; err != nil {
			return err
		}

		line.Quantity = quantity
		parkedID := parked.ID
		kept := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ID != parkedID {
				kept = append(kept, item)
			}
		}
		cart.Items = kept
		return nil
	}

	if parked.Quantity > stockFor(parked) {
		return ErrInsufficientStock
	}
	parked.IsSavedForLater = false
	return tx.Model(&models.CartItem{}).Where("id = ?", parked.ID).Update("is_saved_for_later", false).Error
}

// ApplyCoupon validates code against the current subtotal and attaches it.
func (s *CartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCouponNotFound
	}

	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		var coupon models.Coupon
		if err := tx.Where("code = ? AND is_active = ?", code, true).First(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCouponNotFound
			}
			return err
		}
		if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
			return ErrCouponNotFound
		}

		subtotal := s.calc.Compute(lineItems(cart.Items), nil).Subtotal
		if subtotal.LessThan(coupon.MinAmount) {
			return fmt.Errorf("%w: minimum is %s", ErrCouponMinimum, coupon.MinAmount.StringFixed(2))
		}

		cart.Coupon = models.AppliedCoupon{
			Code:      coupon.Code,
			Kind:      coupon.Kind,
			Amount:    coupon.Amount,
			MinAmount: coupon.MinAmount,
		}
		return nil
	})
}

// RemoveCoupon detaches the applied coupon.
func (s *CartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(_ *gorm.DB, cart *models.Cart) error {
		cart.Coupon = models.AppliedCoupon{}
		return nil
	})
}

// Clear removes every line and the coupon.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(tx *gorm.DB, cart *models.Cart) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		cart.Items = nil
		cart.Coupon = models.AppliedCoupon{}
		return nil
	})
}

func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, fn func(tx *gorm.DB, cart *models.Cart) error) (*models.Cart, error) {
	var result *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.loadOrCreate(tx, userID)
		if err != nil {
			return err
		}
		if err := fn(tx, cart); err != nil {
			return err
		}
		if err := s.recalculate(tx, cart); err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("cart updated",
		zap.String("user_id", userID.String()),
		zap.String("total", result.Total.StringFixed(2)),
	)
	return result, nil
}

func (s *CartService) loadOrCreate(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.load(tx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := models.Cart{UserID: userID, Currency: s.currency, LastUpdated: s.now()}
	applyBreakdown(&fresh, s.calc.Compute(nil, nil))
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return nil, err
	}
	return s.load(tx, userID)
}

func (s *CartService) load(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC").Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Variants").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// recalculate refreshes line totals and the cart breakdown, then persists both.
func (s *CartService) recalculate(tx *gorm.DB, cart *models.Cart) error {
	for i := range cart.Items {
		item := &cart.Items[i]
		item.TotalPrice = cartLine(*item).Total().Round(2)
		if err := tx.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("total_price", item.TotalPrice).Error; err != nil {
			return err
		}
	}

	applyBreakdown(cart, s.calc.Compute(lineItems(cart.Items), couponOf(cart)))
	cart.LastUpdated = s.now()
	return tx.Omit(clause.Associations).Save(cart).Error
}

func findItem(cart *models.Cart, itemID uuid.UUID) (*models.CartItem, error) {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

// variantFor returns the product variant matching size and color, if any.
func variantFor(product models.Product, size, color string) *models.ProductVariant {
	for i := range product.Variants {
		variant := &product.Variants[i]
		if strings.EqualFold(variant.Size, size) && strings.EqualFold(variant.Color, color) {
			return variant
		}
	}
	return nil
}

// priceFor picks the variant matching size and color when it carries its own price.
// The stock returned is the variant's when a variant matches.
func priceFor(product models.Product, size, color string) (decimal.Decimal, decimal.NullDecimal, string, int) {
	variant := variantFor(product, size, color)
	if variant == nil {
		return product.BasePrice, product.DiscountedPrice, "", product.Stock
	}
	if variant.Price.IsPositive() {
		return variant.Price, variant.DiscountedPrice, variant.SKU, variant.Stock
	}
	return product.BasePrice, product.DiscountedPrice, variant.SKU, variant.Stock
}

// stockFor is the stock limiting a cart line: its variant's when one matches.
func stockFor(item *models.CartItem) int {
	if item.Product == nil {
		return 0
	}
	_, _, _, stock := priceFor(*item.Product, item.Size, item.Color)
	return stock
}

func cartLine(item models.CartItem) pricing.LineItem {
	return pricing.LineItem{
		ProductID:       item.ProductID,
		Size:            item.Size,
		Color:           item.Color,
		SKU:             item.SKU,
		Quantity:        item.Quantity,
		Price:           item.Price,
		DiscountedPrice: item.DiscountedPrice,
		Active:          !item.IsSavedForLater,
	}
}

func lineItems(items []models.CartItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLine(item))
	}
	return lines
}

func couponOf(cart *models.Cart) *pricing.Coupon {
	if !cart.HasCoupon() {
		return nil
	}
	return &pricing.Coupon{
		Code:      cart.Coupon.Code,
		Kind:      cart.Coupon.Kind,
		Amount:    cart.Coupon.Amount,
		MinAmount: cart.Coupon.MinAmount,
	}
}

func applyBreakdown(cart *models.Cart, b pricing.Breakdown) {
	cart.Subtotal = b.Subtotal
	cart.Discount = b.Discount
	cart.Tax = b.Tax
	cart.Shipping = b.Shipping
	cart.Total = b.Total
}
