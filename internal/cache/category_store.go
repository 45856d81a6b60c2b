package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/storefront/internal/categorization"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
)

// CategoryStore puts the cache in front of a categorization.CategoryStore.
// Cache failures are logged and fall through to the wrapped store.
type CategoryStore struct {
	next  categorization.CategoryStore
	cache *Cache
	log   *zap.Logger
}

var _ categorization.CategoryStore = (*CategoryStore)(nil)

func NewCategoryStore(next categorization.CategoryStore, cache *Cache, log *zap.Logger) *CategoryStore {
	return &CategoryStore{next: next, cache: cache, log: logger.OrNop(log)}
}

func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cached models.Category
	hit, err := s.cache.Get(ctx, slugKey(slug), &cached)
	if err != nil {
		s.log.Warn("category cache read failed", zap.String("slug", slug), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	category, err := s.next.FindBySlug(ctx, slug)
	if err != nil || category == nil {
		return category, err
	}
	s.store(ctx, category)
	return category, nil
}

func (s *CategoryStore) CreateIfAbsent(ctx context.Context, name, slug, description string) (*models.Category, error) {
	category, err := s.next.CreateIfAbsent(ctx, name, slug, description)
	if err != nil {
		return nil, err
	}
	s.store(ctx, category)
	return category, nil
}

// Invalidate drops the cached entry for slug after an update or delete.
func (s *CategoryStore) Invalidate(ctx context.Context, slug string) {
	if err := s.cache.Delete(ctx, slugKey(slug)); err != nil {
		s.log.Warn("category cache invalidate failed", zap.String("slug", slug), zap.Error(err))
	}
}

func (s *CategoryStore) store(ctx context.Context, category *models.Category) {
	if err := s.cache.Set(ctx, slugKey(category.Slug), category); err != nil {
		s.log.Warn("category cache write failed", zap.String("slug", category.Slug), zap.Error(err))
	}
}

func slugKey(slug string) string {
	return "slug:" + slug
}
