package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// CreateFromCart persists the order and removes the given cart lines in
	// one transaction. If any of the lines is already gone nothing is
	// written and ErrCartChanged is returned.
	CreateFromCart(ctx context.Context, order *models.Order, cartItemIDs []uuid.UUID) error
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCustomerID(ctx context.Context, customerID string, page, limit int) ([]models.Order, int64, error)
	FindBySellerID(ctx context.Context, sellerID string, page, limit int) ([]models.Order, int64, error)
	// UpdateStatus moves the order from `from` to `to` only if it is still
	// in `from`. ErrStaleState is returned otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) CreateFromCart(ctx context.Context, order *models.Order, cartItemIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if len(cartItemIDs) == 0 {
			return nil
		}
		res := tx.Where("customer_id = ? AND id IN ?", order.CustomerID, cartItemIDs).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("remove cart lines: %w", res.Error)
		}
		if res.RowsAffected != int64(len(cartItemIDs)) {
			return ErrCartChanged
		}
		return nil
	})
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByCustomerID retrieves orders placed by a customer with pagination
func (r *GormOrderRepository) FindByCustomerID(ctx context.Context, customerID string, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(ctx, "customer_id = ?", customerID, page, limit)
}

// FindBySellerID retrieves orders received by a seller with pagination
func (r *GormOrderRepository) FindBySellerID(ctx context.Context, sellerID string, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(ctx, "seller_id = ?", sellerID, page, limit)
}

func (r *GormOrderRepository) paginate(ctx context.Context, cond string, arg any, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where(cond, arg)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) error {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case models.OrderStatusCancelled:
		updates["cancelled_at"] = at
	case models.OrderStatusDelivered:
		updates["delivered_at"] = at
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *GormOrderRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
