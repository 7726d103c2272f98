package repository

import (
	"context"

	"marketplace-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is the cart store consumed by checkout.
type CartRepository interface {
	// LinesForCustomer returns the customer's cart lines, restricted to
	// sellerIDs when it is non-empty.
	LinesForCustomer(ctx context.Context, customerID string, sellerIDs []string) ([]models.CartItem, error)
	// AddItem inserts the line or adds to the quantity of an existing line
	// for the same food item.
	AddItem(ctx context.Context, item *models.CartItem) error
	Remove(ctx context.Context, customerID string, foodItemIDs []uuid.UUID) error
	// UpdateQuantity sets the quantity of an existing line and refreshes
	// the price the customer has seen. It returns ErrCartItemNotFound when
	// the customer has no line for the food item.
	UpdateQuantity(ctx context.Context, customerID string, foodItemID uuid.UUID, quantity int, unitPrice int64) error
	// Clear empties the customer's cart, or only sellerID's lines when it is
	// non-empty, and returns the number of lines removed.
	Clear(ctx context.Context, customerID, sellerID string) (int64, error)
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) LinesForCustomer(ctx context.Context, customerID string, sellerIDs []string) ([]models.CartItem, error) {
	var items []models.CartItem
	query := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if len(sellerIDs) > 0 {
		query = query.Where("seller_id IN ?", sellerIDs)
	}
	if err := query.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormCartRepository) AddItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "food_item_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "quantity"}, Value: gorm.Expr("cart_items.quantity + excluded.quantity")},
				{Column: clause.Column{Name: "unit_price"}, Value: gorm.Expr("excluded.unit_price")},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
			},
		}).
		Create(item).Error
}

func (r *GormCartRepository) Remove(ctx context.Context, customerID string, foodItemIDs []uuid.UUID) error {
	if len(foodItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND food_item_id IN ?", customerID, foodItemIDs).
		Delete(&models.CartItem{}).Error
}

func (r *GormCartRepository) UpdateQuantity(ctx context.Context, customerID string, foodItemID uuid.UUID, quantity int, unitPrice int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("customer_id = ? AND food_item_id = ?", customerID, foodItemID).
		Updates(map[string]any{"quantity": quantity, "unit_price": unitPrice})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *GormCartRepository) Clear(ctx context.Context, customerID, sellerID string) (int64, error) {
	query := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if sellerID != "" {
		query = query.Where("seller_id = ?", sellerID)
	}
	res := query.Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
