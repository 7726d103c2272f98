package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrStaleState means a compare-and-set update found the row in a
	// different state than the caller observed.
	ErrStaleState = errors.New("order status changed concurrently")
	// ErrCartChanged means some cart lines being checked out were removed
	// by a concurrent request.
	ErrCartChanged = errors.New("cart lines changed concurrently")
	// ErrAlreadyReviewed is returned when the order already has a review.
	ErrAlreadyReviewed = errors.New("order already reviewed")
	// ErrSellerNotFound and ErrFoodItemNotFound are returned when an
	// aggregate row to update is missing.
	ErrSellerNotFound   = errors.New("seller not found")
	ErrFoodItemNotFound = errors.New("food item not found")
	// ErrCartItemNotFound is returned when updating a cart line that does
	// not exist.
	ErrCartItemNotFound = errors.New("cart item not found")
)

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey detects unique index violations. Dialects that do not
// translate their driver errors are matched on the message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
