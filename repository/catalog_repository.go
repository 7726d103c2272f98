package repository

import (
	"context"

	"marketplace-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository is the read side of the catalog used by checkout and
// reviews.
type CatalogRepository interface {
	// Snapshot batch-loads the given food items. Unknown and soft-deleted
	// items are absent from the result.
	Snapshot(ctx context.Context, foodItemIDs []uuid.UUID) (models.CatalogSnapshot, error)
	FindSeller(ctx context.Context, sellerID string) (*models.Seller, error)
	FindFoodItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error)
}

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) Snapshot(ctx context.Context, foodItemIDs []uuid.UUID) (models.CatalogSnapshot, error) {
	snap := make(models.CatalogSnapshot, len(foodItemIDs))
	if len(foodItemIDs) == 0 {
		return snap, nil
	}

	var items []models.FoodItem
	if err := r.db.WithContext(ctx).
		Where("id IN ?", foodItemIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		snap[it.ID] = models.CatalogEntry{
			FoodItemID: it.ID,
			SellerID:   it.SellerID,
			Name:       it.Name,
			Price:      it.Price,
			Available:  it.IsAvailable,
		}
	}
	return snap, nil
}

func (r *GormCatalogRepository) FindSeller(ctx context.Context, sellerID string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).Where("id = ?", sellerID).First(&seller).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *GormCatalogRepository) FindFoodItem(ctx context.Context, id uuid.UUID) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
