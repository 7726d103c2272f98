package models

import "github.com/google/uuid"

// SellerStatistics summarizes a seller's orders. Revenue counts delivered
// orders only.
type SellerStatistics struct {
	SellerID          string                `json:"seller_id"`
	TotalOrders       int64                 `json:"total_orders"`
	OrdersByStatus    map[OrderStatus]int64 `json:"orders_by_status"`
	Revenue           int64                 `json:"revenue"`
	AverageOrderValue int64                 `json:"average_order_value"`
	Rating            float64               `json:"rating"`
	TotalRatings      int                   `json:"total_ratings"`
}

// TopItem is one row of a seller's best sellers, computed over delivered
// orders.
type TopItem struct {
	FoodItemID   uuid.UUID `json:"food_item_id"`
	Name         string    `json:"name"`
	QuantitySold int64     `json:"quantity_sold"`
	Revenue      int64     `json:"revenue"`
	OrderCount   int64     `json:"order_count"`
}

// SellerDashboard is the at-a-glance view for a seller. Revenue figures count
// delivered orders only; order counts include every status.
type SellerDashboard struct {
	SellerID          string  `json:"seller_id"`
	TodayOrders       int64   `json:"today_orders"`
	TodayRevenue      int64   `json:"today_revenue"`
	TodayPending      int64   `json:"today_pending"`
	MonthOrders       int64   `json:"month_orders"`
	MonthRevenue      int64   `json:"month_revenue"`
	PendingOrders     int64   `json:"pending_orders"`
	TotalItems        int64   `json:"total_items"`
	AvailableItems    int64   `json:"available_items"`
	DistinctCustomers int64   `json:"distinct_customers"`
	AverageRating     float64 `json:"average_rating"`
	ReviewCount       int64   `json:"review_count"`
}

const (
	DefaultTopItemsLimit = 10
	MaxTopItemsLimit     = 50
)
