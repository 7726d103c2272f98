package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-service/models"

	"gorm.io/gorm"
)

// StatisticsRepository aggregates order data for seller dashboards.
type StatisticsRepository interface {
	SellerStatistics(ctx context.Context, sellerID string) (*models.SellerStatistics, error)
	// TopItems ranks the seller's food items by quantity sold in delivered
	// orders.
	TopItems(ctx context.Context, sellerID string, limit int) ([]models.TopItem, error)
	// Dashboard reports today's and this month's activity as of now, in UTC,
	// together with catalog and review totals.
	Dashboard(ctx context.Context, sellerID string, now time.Time) (*models.SellerDashboard, error)
}

type GormStatisticsRepository struct {
	db *gorm.DB
}

func NewGormStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &GormStatisticsRepository{db: db}
}

type statusCount struct {
	Status models.OrderStatus
	Count  int64
}

func (r *GormStatisticsRepository) SellerStatistics(ctx context.Context, sellerID string) (*models.SellerStatistics, error) {
	db := r.db.WithContext(ctx)
	stats := &models.SellerStatistics{
		SellerID:       sellerID,
		OrdersByStatus: make(map[models.OrderStatus]int64),
	}

	var counts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("seller_id = ?", sellerID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.OrdersByStatus[c.Status] = c.Count
		stats.TotalOrders += c.Count
	}

	var revenue struct {
		Revenue int64
		Orders  int64
	}
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("seller_id = ? AND status = ?", sellerID, models.OrderStatusDelivered).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.Revenue = revenue.Revenue
	if revenue.Orders > 0 {
		stats.AverageOrderValue = revenue.Revenue / revenue.Orders
	}

	var seller models.Seller
	err := db.Where("id = ?", sellerID).First(&seller).Error
	switch {
	case err == nil:
		stats.Rating = seller.Rating
		stats.TotalRatings = seller.TotalRatings
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return stats, nil
}

func (r *GormStatisticsRepository) TopItems(ctx context.Context, sellerID string, limit int) ([]models.TopItem, error) {
	items := []models.TopItem{}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.food_item_id AS food_item_id,
			MAX(order_items.name) AS name,
			SUM(order_items.quantity) AS quantity_sold,
			SUM(order_items.quantity * order_items.unit_price) AS revenue,
			COUNT(DISTINCT order_items.order_id) AS order_count`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.seller_id = ? AND orders.status = ? AND orders.deleted_at IS NULL", sellerID, models.OrderStatusDelivered).
		Group("order_items.food_item_id").
		Order("quantity_sold DESC, revenue DESC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

type periodTotals struct {
	Orders  int64
	Revenue int64
	Pending int64
}

func (r *GormStatisticsRepository) totalsSince(db *gorm.DB, sellerID string, since time.Time) (periodTotals, error) {
	var t periodTotals
	err := db.Model(&models.Order{}).
		Select(`COUNT(*) AS orders,
			COALESCE(SUM(CASE WHEN status = ? THEN total ELSE 0 END), 0) AS revenue,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending`,
			models.OrderStatusDelivered, models.OrderStatusPending).
		Where("seller_id = ? AND created_at >= ?", sellerID, since).
		Scan(&t).Error
	return t, err
}

func (r *GormStatisticsRepository) Dashboard(ctx context.Context, sellerID string, now time.Time) (*models.SellerDashboard, error) {
	db := r.db.WithContext(ctx)
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	d := &models.SellerDashboard{SellerID: sellerID}

	day, err := r.totalsSince(db, sellerID, today)
	if err != nil {
		return nil, err
	}
	d.TodayOrders, d.TodayRevenue, d.TodayPending = day.Orders, day.Revenue, day.Pending

	mon, err := r.totalsSince(db, sellerID, month)
	if err != nil {
		return nil, err
	}
	d.MonthOrders, d.MonthRevenue = mon.Orders, mon.Revenue

	var orders struct {
		Pending   int64
		Customers int64
	}
	if err := db.Model(&models.Order{}).
		Select(`COALESCE(SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END), 0) AS pending,
			COUNT(DISTINCT customer_id) AS customers`,
			[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing}).
		Where("seller_id = ?", sellerID).
		Scan(&orders).Error; err != nil {
		return nil, err
	}
	d.PendingOrders, d.DistinctCustomers = orders.Pending, orders.Customers

	var items struct {
		Total     int64
		Available int64
	}
	if err := db.Model(&models.FoodItem{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_available THEN 1 ELSE 0 END), 0) AS available").
		Where("seller_id = ?", sellerID).
		Scan(&items).Error; err != nil {
		return nil, err
	}
	d.TotalItems, d.AvailableItems = items.Total, items.Available

	var reviews struct {
		Count   int64
		Average float64
	}
	if err := db.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("seller_id = ?", sellerID).
		Scan(&reviews).Error; err != nil {
		return nil, err
	}
	d.ReviewCount, d.AverageRating = reviews.Count, reviews.Average
	return d, nil
}
