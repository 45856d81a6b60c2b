package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	Brand            string              `gorm:"index" json:"brand"`
	Tags             StringList          `json:"tags"`
	Images           StringList          `json:"images"`
	BasePrice        decimal.Decimal     `gorm:"type:decimal(16,2)" json:"base_price"`
	DiscountedPrice  decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"discounted_price"`
	Stock            int                 `json:"stock"`
	CategoryID       *uuid.UUID          `gorm:"type:uuid;index" json:"category_id"`
	Category         *Category           `json:"category,omitempty"`
	SubcategoryID    *uuid.UUID          `gorm:"type:uuid" json:"subcategory_id"`
	Subcategory      *Category           `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	SellerID         *uuid.UUID          `gorm:"type:uuid;index" json:"seller_id"`
	Seller           *User               `json:"seller,omitempty"`
	IsActive         bool                `gorm:"index" json:"is_active"`
	IsFeatured       bool                `json:"is_featured"`
	RatingAverage    float64             `json:"rating_average"`
	RatingCount      int                 `json:"rating_count"`
	Variants         []ProductVariant    `json:"variants,omitempty"`
}

// CurrentPrice is the discounted price when one is set, otherwise the base price.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.DiscountedPrice.Valid && p.DiscountedPrice.Decimal.IsPositive() {
		return p.DiscountedPrice.Decimal
	}
	return p.BasePrice
}

// DiscountPercent is the whole-number percentage saved off the base price.
func (p Product) DiscountPercent() int64 {
	if !p.DiscountedPrice.Valid || !p.BasePrice.IsPositive() {
		return 0
	}
	saved := p.BasePrice.Sub(p.DiscountedPrice.Decimal)
	return saved.Div(p.BasePrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type ProductVariant struct {
	BaseModel
	ProductID       uuid.UUID           `gorm:"type:uuid;index" json:"product_id"`
	Size            string              `json:"size"`
	Color           string              `json:"color"`
	SKU             string              `json:"sku"`
	Stock           int                 `json:"stock"`
	Price           decimal.Decimal     `gorm:"type:decimal(16,2)" json:"price"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:decimal(16,2)" json:"discounted_price"`
}

type Review struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_product_user" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
}
