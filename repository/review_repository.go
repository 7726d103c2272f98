package repository

import (
	"context"
	"fmt"

	"marketplace-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// CreateWithRatings inserts the review and folds its rating into the
	// seller aggregate, and into the food item aggregate when one is
	// targeted, as one transaction.
	CreateWithRatings(ctx context.Context, review *models.Review) error
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	// FindBySellerID pages through a seller's reviews, newest first,
	// narrowed by filter.
	FindBySellerID(ctx context.Context, sellerID string, filter models.ReviewFilter, page, limit int) ([]models.Review, int64, error)
}

type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) ReviewRepository {
	return &GormReviewRepository{db: db}
}

// incrementalMean is applied in a single UPDATE so the database serializes
// concurrent reviews on the same row. Both SET expressions read the
// pre-update column values.
func incrementalMean(rating int) map[string]any {
	return map[string]any{
		"rating":        gorm.Expr("(rating * total_ratings + ?) / (total_ratings + 1)", float64(rating)),
		"total_ratings": gorm.Expr("total_ratings + 1"),
	}
}

func (r *GormReviewRepository) CreateWithRatings(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("insert review: %w", err)
		}

		res := tx.Model(&models.Seller{}).
			Where("id = ?", review.SellerID).
			UpdateColumns(incrementalMean(review.Rating))
		if res.Error != nil {
			return fmt.Errorf("update seller rating: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrSellerNotFound
		}

		if review.FoodItemID == nil {
			return nil
		}
		// A dish removed from the menu after delivery can still be reviewed.
		res = tx.Unscoped().Model(&models.FoodItem{}).
			Where("id = ?", *review.FoodItemID).
			UpdateColumns(incrementalMean(review.Rating))
		if res.Error != nil {
			return fmt.Errorf("update food item rating: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrFoodItemNotFound
		}
		return nil
	})
}

func (r *GormReviewRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormReviewRepository) FindBySellerID(ctx context.Context, sellerID string, filter models.ReviewFilter, page, limit int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	query := applyReviewFilter(
		r.db.WithContext(ctx).Model(&models.Review{}).Where("seller_id = ?", sellerID),
		filter,
	)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func applyReviewFilter(query *gorm.DB, filter models.ReviewFilter) *gorm.DB {
	if filter.FoodItemID != nil {
		query = query.Where("food_item_id = ?", *filter.FoodItemID)
	}
	if filter.Rating != nil {
		query = query.Where("rating = ?", *filter.Rating)
	}
	if filter.MaxRating != nil {
		query = query.Where("rating <= ?", *filter.MaxRating)
	}
	return query
}
