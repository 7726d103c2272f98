package models

import "github.com/google/uuid"

type CheckoutOutcome string

const (
	CheckoutFullSuccess    CheckoutOutcome = "full_success"
	CheckoutPartialSuccess CheckoutOutcome = "partial_success"
	CheckoutFullFailure    CheckoutOutcome = "full_failure"
)

// CheckoutSelectedRequest checks out the listed sellers' portions of the
// caller's cart.
type CheckoutSelectedRequest struct {
	SellerIDs []string `json:"seller_ids" binding:"required,min=1"`
}

// BuyNowRequest purchases a single item without touching the cart.
// ExpectedPrice, when sent, is checked against the catalog like a cart
// line's reference price.
type BuyNowRequest struct {
	FoodItemID    uuid.UUID `json:"food_item_id" binding:"required"`
	Quantity      int       `json:"quantity" binding:"required"`
	ExpectedPrice *int64    `json:"expected_price,omitempty"`
}

func (r BuyNowRequest) Line() CartLine {
	return CartLine{
		FoodItemID:    r.FoodItemID,
		Quantity:      r.Quantity,
		ObservedPrice: r.ExpectedPrice,
	}
}

type SellerError struct {
	SellerID string           `json:"seller_id"`
	Reason   string           `json:"reason"`
	Lines    []CartLineResult `json:"lines,omitempty"`
}

// CheckoutResult reports every requested seller exactly once, either as a
// created order or as a SellerError.
type CheckoutResult struct {
	Outcome      CheckoutOutcome `json:"outcome"`
	Orders       []Order         `json:"orders"`
	SellerErrors []SellerError   `json:"seller_errors"`
}

func (r *CheckoutResult) OrderIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Orders))
	for _, o := range r.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}

// ResolveOutcome derives the outcome from what was created and what failed.
func (r *CheckoutResult) ResolveOutcome() {
	switch {
	case len(r.SellerErrors) == 0 && len(r.Orders) > 0:
		r.Outcome = CheckoutFullSuccess
	case len(r.Orders) > 0:
		r.Outcome = CheckoutPartialSuccess
	default:
		r.Outcome = CheckoutFullFailure
	}
}
