package services

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// ReviewService stores product reviews and keeps product ratings current.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// Create adds the user's single review of a product and recomputes its rating.
func (s *ReviewService) Create(ctx context.Context, userID, productID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("product_id = ? AND user_id = ?", productID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateReview
		}

		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReview
			}
			return err
		}
		return refreshRating(tx, productID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListForProduct returns a page of reviews, newest first.
func (s *ReviewService) ListForProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.Review, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&reviews).Error
	return reviews, total, err
}

// refreshRating stores the average rating, rounded to one decimal, and the review count.
func refreshRating(tx *gorm.DB, productID uuid.UUID) error {
	var stats struct {
		Average float64
		Count   int64
	}
	if err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&stats).Error; err != nil {
		return err
	}

	return tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
		"rating_average": math.Round(stats.Average*10) / 10,
		"rating_count":   stats.Count,
	}).Error
}
