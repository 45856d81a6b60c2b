package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestReviewRecomputesRating(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReviewService(db)
	ctx := context.Background()
	product := createProduct(t, db, "Maxi Dress", "1800", 3)

	for i, rating := range []int{5, 4, 4} {
		user := createUser(t, db, []string{"a@example.com", "b@example.com", "c@example.com"}[i])
		_, err := svc.Create(ctx, user.ID, product.ID, ReviewInput{Rating: rating, Title: "ok"})
		require.NoError(t, err)
	}

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 4.3, stored.RatingAverage)
	assert.Equal(t, 3, stored.RatingCount)

	reviews, total, err := svc.ListForProduct(ctx, product.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, reviews, 2)
}

func TestReviewValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReviewService(db)
	ctx := context.Background()
	product := createProduct(t, db, "Tote", "700", 3)
	user := createUser(t, db, "reviewer@example.com")

	_, err := svc.Create(ctx, user.ID, product.ID, ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Create(ctx, user.ID, product.ID, ReviewInput{Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.Create(ctx, user.ID, uuid.New(), ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Create(ctx, user.ID, product.ID, ReviewInput{Rating: 3})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, product.ID, ReviewInput{Rating: 4})
	assert.ErrorIs(t, err, ErrDuplicateReview)
}
