package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/categorization"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
)

const backfillBatchSize = 100

// CatalogService applies automatic categorization to products.
type CatalogService struct {
	db          *gorm.DB
	categorizer *categorization.Service
	log         *zap.Logger
}

func NewCatalogService(db *gorm.DB, categorizer *categorization.Service, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, categorizer: categorizer, log: logger.OrNop(log)}
}

// Categorizer exposes the underlying categorization service.
func (s *CatalogService) Categorizer() *categorization.Service {
	return s.categorizer
}

// CategorizationInput builds the classifier input from a product's text fields.
func CategorizationInput(p models.Product) categorization.Input {
	return categorization.Input{
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Tags:        []string(p.Tags),
	}
}

// Categorize sets the product's category and subcategory from its text.
// The product is not saved.
func (s *CatalogService) Categorize(ctx context.Context, product *models.Product) (*categorization.Result, error) {
	result, err := s.categorizer.Categorize(ctx, CategorizationInput(*product))
	if err != nil {
		return nil, err
	}

	product.CategoryID = &result.Primary.ID
	product.Category = result.Primary
	product.SubcategoryID = nil
	product.Subcategory = nil
	if result.Secondary != nil {
		product.SubcategoryID = &result.Secondary.ID
		product.Subcategory = result.Secondary
	}
	return result, nil
}

// BackfillReport summarises a recategorization run.
type BackfillReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Backfill categorizes products without a category, or every product when all is set.
// A failed product is counted and skipped; repository failures on the product table abort the run.
func (s *CatalogService) Backfill(ctx context.Context, all bool) (BackfillReport, error) {
	var report BackfillReport

	query := s.db.WithContext(ctx).Model(&models.Product{})
	if !all {
		query = query.Where("category_id IS NULL")
	}

	var batch []models.Product
	result := query.FindInBatches(&batch, backfillBatchSize, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			product := &batch[i]
			report.Scanned++

			if _, err := s.Categorize(ctx, product); err != nil {
				report.Failed++
				s.log.Warn("backfill categorize failed", zap.String("product_id", product.ID.String()), zap.Error(err))
				continue
			}

			if err := s.db.WithContext(ctx).Model(&models.Product{}).
				Where("id = ?", product.ID).
				Updates(map[string]interface{}{
					"category_id":    product.CategoryID,
					"subcategory_id": product.SubcategoryID,
				}).Error; err != nil {
				return fmt.Errorf("update product %s: %w", product.ID, err)
			}
			report.Updated++
		}
		return nil
	})
	if result.Error != nil {
		return report, result.Error
	}

	s.log.Info("category backfill finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
