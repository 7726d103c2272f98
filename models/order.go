package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// FulfillmentPath is the linear happy path every order follows.
var FulfillmentPath = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// ParseOrderStatus converts a client supplied value into a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	if st == OrderStatusCancelled {
		return st, true
	}
	for _, known := range FulfillmentPath {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Position returns the index of s on the fulfillment path, or -1 for
// cancelled and unknown statuses.
func (s OrderStatus) Position() int {
	for i, st := range FulfillmentPath {
		if st == s {
			return i
		}
	}
	return -1
}

type Order struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	CustomerID  string         `gorm:"type:varchar(64);not null;index" json:"customer_id"`
	SellerID    string         `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	Status      OrderStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Total       int64          `gorm:"not null" json:"total"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems  []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ContainsFoodItem reports whether foodItemID is one of the order's lines.
func (o *Order) ContainsFoodItem(foodItemID uuid.UUID) bool {
	for _, it := range o.OrderItems {
		if it.FoodItemID == foodItemID {
			return true
		}
	}
	return false
}

// OrderItem is one order line. UnitPrice is captured from the catalog when
// the order is created and never changes afterwards.
type OrderItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	FoodItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"food_item_id"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
}

func (it *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

func (it OrderItem) Subtotal() int64 {
	return int64(it.Quantity) * it.UnitPrice
}

// UpdateOrderStatusRequest is the payload for PUT /orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Orders []Order  `json:"orders"`
	Meta   MetaData `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}
