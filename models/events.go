package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
	EventReviewCreated      = "review.created"
)

// Event is the envelope published to the event bus after a commit.
type Event struct {
	EventType string    `json:"event_type"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type OrderEventPayload struct {
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	CustomerID     string      `json:"customer_id"`
	SellerID       string      `json:"seller_id"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	Total          int64       `json:"total"`
	ActorID        string      `json:"actor_id,omitempty"`
}

type ReviewEventPayload struct {
	ReviewID   uuid.UUID  `json:"review_id"`
	OrderID    uuid.UUID  `json:"order_id"`
	SellerID   string     `json:"seller_id"`
	FoodItemID *uuid.UUID `json:"food_item_id,omitempty"`
	Rating     int        `json:"rating"`
}

func NewOrderEvent(eventType string, o *Order, previous OrderStatus, actorID string) Event {
	return Event{
		EventType: eventType,
		Key:       o.ID.String(),
		Timestamp: time.Now().UTC(),
		Payload: OrderEventPayload{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			CustomerID:     o.CustomerID,
			SellerID:       o.SellerID,
			Status:         o.Status,
			PreviousStatus: previous,
			Total:          o.Total,
			ActorID:        actorID,
		},
	}
}

func NewReviewEvent(r *Review) Event {
	return Event{
		EventType: EventReviewCreated,
		Key:       r.OrderID.String(),
		Timestamp: time.Now().UTC(),
		Payload: ReviewEventPayload{
			ReviewID:   r.ID,
			OrderID:    r.OrderID,
			SellerID:   r.SellerID,
			FoodItemID: r.FoodItemID,
			Rating:     r.Rating,
		},
	}
}
