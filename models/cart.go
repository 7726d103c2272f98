package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one persisted cart line. UnitPrice is the price the customer
// last saw; nil means the customer never saw a price and the line cannot be
// stale.
type CartItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_customer_item" json:"customer_id"`
	FoodItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_customer_item" json:"food_item_id"`
	SellerID   string    `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  *int64    `json:"unit_price,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *CartItem) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartLine is the validator's view of a cart line. SellerID is the seller the
// line claims to belong to and may be empty.
type CartLine struct {
	FoodItemID    uuid.UUID `json:"food_item_id" binding:"required"`
	SellerID      string    `json:"seller_id,omitempty"`
	Quantity      int       `json:"quantity"`
	ObservedPrice *int64    `json:"observed_price,omitempty"`
}

func (c CartItem) Line() CartLine {
	return CartLine{
		FoodItemID:    c.FoodItemID,
		SellerID:      c.SellerID,
		Quantity:      c.Quantity,
		ObservedPrice: c.UnitPrice,
	}
}

// CartLineStatus classifies a single line during validation.
type CartLineStatus string

const (
	CartLineValid           CartLineStatus = "valid"
	CartLineUnavailable     CartLineStatus = "unavailable"
	CartLineStalePrice      CartLineStatus = "stale_price"
	CartLineInvalidQuantity CartLineStatus = "invalid_quantity"
	CartLineSellerMismatch  CartLineStatus = "seller_mismatch"
)

type CartLineResult struct {
	FoodItemID   uuid.UUID      `json:"food_item_id"`
	Name         string         `json:"name,omitempty"`
	Quantity     int            `json:"quantity"`
	Status       CartLineStatus `json:"status"`
	CurrentPrice int64          `json:"current_price,omitempty"`
	Reason       string         `json:"reason,omitempty"`
}

// SellerCartValidation is the validation result for one seller's lines.
type SellerCartValidation struct {
	SellerID string           `json:"seller_id"`
	Valid    bool             `json:"valid"`
	Lines    []CartLineResult `json:"lines"`
	Total    int64            `json:"total"`
}

// CartValidation is the per seller breakdown returned by the validator.
type CartValidation struct {
	Valid   bool                   `json:"valid"`
	Sellers []SellerCartValidation `json:"sellers"`
}

// Seller returns the group for sellerID, if present.
func (v CartValidation) Seller(sellerID string) (SellerCartValidation, bool) {
	for _, s := range v.Sellers {
		if s.SellerID == sellerID {
			return s, true
		}
	}
	return SellerCartValidation{}, false
}

// AddCartItemRequest is the payload for POST /cart/items.
type AddCartItemRequest struct {
	FoodItemID uuid.UUID `json:"food_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required"`
}

// ValidateCartRequest validates an ad hoc set of lines, e.g. from a client
// side cart.
type ValidateCartRequest struct {
	Items []CartLine `json:"items" binding:"required,dive"`
}

// UpdateCartItemRequest is the payload for PUT /cart/items/:foodItemId.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}
