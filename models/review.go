package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxReviewCommentLength = 1000

// Review is a customer's rating of a delivered order. At most one review
// exists per order, enforced by the unique index on OrderID.
type Review struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	CustomerID string     `gorm:"type:varchar(64);not null;index" json:"customer_id"`
	SellerID   string     `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	FoodItemID *uuid.UUID `gorm:"type:uuid;index" json:"food_item_id,omitempty"`
	Rating     int        `gorm:"not null" json:"rating"`
	Comment    string     `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CreateReviewRequest is the payload for POST /orders/:id/review.
type CreateReviewRequest struct {
	Rating     int        `json:"rating" binding:"required"`
	Comment    string     `json:"comment"`
	FoodItemID *uuid.UUID `json:"food_item_id"`
}

// LowRatingThreshold is the highest rating a seller's low rated view shows.
const LowRatingThreshold = 2

// ReviewFilter narrows a seller's review listing. Nil fields do not filter.
type ReviewFilter struct {
	Rating     *int
	MaxRating  *int
	FoodItemID *uuid.UUID
}
