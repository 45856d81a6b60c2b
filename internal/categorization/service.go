package categorization

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/models"
)

// ErrRepository marks failures of the category store.
var ErrRepository = errors.New("category repository failure")

// CategoryStore is the persistence the service resolves tags through.
type CategoryStore interface {
	// FindBySlug returns nil, nil when no category has slug.
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	// CreateIfAbsent inserts the category unless slug exists and returns the stored row.
	CreateIfAbsent(ctx context.Context, name, slug, description string) (*models.Category, error)
}

// Detected holds the raw tags chosen by the classifier.
type Detected struct {
	Primary   Tag  `json:"primary"`
	Secondary *Tag `json:"secondary"`
}

// Result is a classification resolved to stored categories.
type Result struct {
	Primary    *models.Category `json:"primary_category"`
	Secondary  *models.Category `json:"secondary_category"`
	Confidence Confidence       `json:"confidence"`
	Detected   Detected         `json:"detected_keywords"`
}

// Service classifies products and resolves the tags to categories,
// creating them on first use.
type Service struct {
	classifier *Classifier
	store      CategoryStore
	log        *zap.Logger
	group      singleflight.Group
}

// NewService wires a classifier to a category store.
func NewService(classifier *Classifier, store CategoryStore, log *zap.Logger) *Service {
	if classifier == nil {
		classifier = NewClassifier(nil, MatchWordStart)
	}
	return &Service{classifier: classifier, store: store, log: logger.OrNop(log)}
}

// Classifier exposes the pure classifier used by the service.
func (s *Service) Classifier() *Classifier {
	return s.classifier
}

// Categorize classifies in and resolves the primary and optional secondary category.
func (s *Service) Categorize(ctx context.Context, in Input) (*Result, error) {
	c := s.classifier.Classify(in)

	result := &Result{
		Confidence: c.Confidence(),
		Detected:   Detected{Primary: c.Primary},
	}

	primary, err := s.Resolve(ctx, c.Primary)
	if err != nil {
		return nil, err
	}
	result.Primary = primary

	if c.Secondary != "" {
		secondary := c.Secondary
		result.Detected.Secondary = &secondary

		category, err := s.Resolve(ctx, secondary)
		if err != nil {
			return nil, err
		}
		result.Secondary = category
	}

	s.log.Debug("product categorized",
		zap.String("primary", string(c.Primary)),
		zap.String("secondary", string(c.Secondary)),
		zap.String("mode", s.classifier.Mode().String()),
	)

	return result, nil
}

// Resolve returns the category for tag, creating it when missing. Concurrent
// calls for the same slug share one lookup.
func (s *Service) Resolve(ctx context.Context, tag Tag) (*models.Category, error) {
	slug := Slugify(string(tag))

	v, err, _ := s.group.Do(slug, func() (interface{}, error) {
		existing, err := s.store.FindBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("%w: find %q: %w", ErrRepository, slug, err)
		}
		if existing != nil {
			return existing, nil
		}

		created, err := s.store.CreateIfAbsent(ctx, DisplayName(tag), slug, DefaultDescription(tag))
		if err != nil {
			return nil, fmt.Errorf("%w: create %q: %w", ErrRepository, slug, err)
		}
		s.log.Info("category created", zap.String("slug", slug), zap.String("id", created.ID.String()))
		return created, nil
	})
	if err != nil {
		s.log.Error("category resolution failed", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	category := *v.(*models.Category)
	return &category, nil
}
