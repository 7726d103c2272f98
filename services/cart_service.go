package services

import (
	"context"
	"errors"
	"strings"

	"marketplace-service/models"
	"marketplace-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService manages the cart and answers "would this checkout work".
// Validation never changes the cart.
type CartService interface {
	AddItem(ctx context.Context, p models.Principal, req models.AddCartItemRequest) (*models.CartItem, *ServiceError)
	GetCart(ctx context.Context, p models.Principal) ([]models.CartItem, *ServiceError)
	RemoveItem(ctx context.Context, p models.Principal, foodItemID uuid.UUID) *ServiceError
	// UpdateItem sets a line's quantity and refreshes its price to the
	// current catalog price.
	UpdateItem(ctx context.Context, p models.Principal, foodItemID uuid.UUID, req models.UpdateCartItemRequest) (*models.CartItem, *ServiceError)
	ClearCart(ctx context.Context, p models.Principal) (int64, *ServiceError)
	ClearSellerCart(ctx context.Context, p models.Principal, sellerID string) (int64, *ServiceError)
	ValidateCart(ctx context.Context, p models.Principal) (*models.CartValidation, *ServiceError)
	ValidateSellerCart(ctx context.Context, p models.Principal, sellerID string) (*models.SellerCartValidation, *ServiceError)
	ValidateLines(ctx context.Context, lines []models.CartLine) (*models.CartValidation, *ServiceError)
}

type cartServiceImpl struct {
	carts   repository.CartRepository
	catalog repository.CatalogRepository
	logger  *zap.Logger
}

func NewCartService(carts repository.CartRepository, catalog repository.CatalogRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, catalog: catalog, logger: logger}
}

// AddItem records the current catalog price on the line so a later price
// change shows up as a stale line at checkout.
func (s *cartServiceImpl) AddItem(ctx context.Context, p models.Principal, req models.AddCartItemRequest) (*models.CartItem, *ServiceError) {
	if req.Quantity <= 0 {
		return nil, newValidationFailure("Quantity must be greater than zero")
	}

	food, err := s.catalog.FindFoodItem(ctx, req.FoodItemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newNotFound("Food item not found")
		}
		return nil, newUnexpected(s.logger, "Failed to load food item", err, zap.String("food_item_id", req.FoodItemID.String()))
	}
	if !food.IsAvailable {
		return nil, newValidationFailureCode(string(models.CartLineUnavailable), "Food item is not available")
	}

	price := food.Price
	item := &models.CartItem{
		CustomerID: p.UserID,
		FoodItemID: food.ID,
		SellerID:   food.SellerID,
		Quantity:   req.Quantity,
		UnitPrice:  &price,
	}
	if err := s.carts.AddItem(ctx, item); err != nil {
		return nil, newUnexpected(s.logger, "Failed to add cart item", err, zap.String("customer_id", p.UserID))
	}
	return item, nil
}

func (s *cartServiceImpl) GetCart(ctx context.Context, p models.Principal) ([]models.CartItem, *ServiceError) {
	items, err := s.carts.LinesForCustomer(ctx, p.UserID, nil)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load cart", err, zap.String("customer_id", p.UserID))
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, p models.Principal, foodItemID uuid.UUID) *ServiceError {
	if err := s.carts.Remove(ctx, p.UserID, []uuid.UUID{foodItemID}); err != nil {
		return newUnexpected(s.logger, "Failed to remove cart item", err, zap.String("customer_id", p.UserID))
	}
	return nil
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, p models.Principal, foodItemID uuid.UUID, req models.UpdateCartItemRequest) (*models.CartItem, *ServiceError) {
	if req.Quantity <= 0 {
		return nil, newValidationFailure("Quantity must be greater than zero")
	}

	food, err := s.catalog.FindFoodItem(ctx, foodItemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newNotFound("Food item not found")
		}
		return nil, newUnexpected(s.logger, "Failed to load food item", err, zap.String("food_item_id", foodItemID.String()))
	}
	if !food.IsAvailable {
		return nil, newValidationFailureCode(string(models.CartLineUnavailable), "Food item is not available")
	}

	if err := s.carts.UpdateQuantity(ctx, p.UserID, foodItemID, req.Quantity, food.Price); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, newNotFound("Cart item not found")
		}
		return nil, newUnexpected(s.logger, "Failed to update cart item", err, zap.String("customer_id", p.UserID))
	}

	lines, err := s.carts.LinesForCustomer(ctx, p.UserID, []string{food.SellerID})
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load cart", err, zap.String("customer_id", p.UserID))
	}
	for i := range lines {
		if lines[i].FoodItemID == foodItemID {
			return &lines[i], nil
		}
	}
	// Removed by a concurrent request after the update.
	return nil, newNotFound("Cart item not found")
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, p models.Principal) (int64, *ServiceError) {
	return s.clear(ctx, p.UserID, "")
}

func (s *cartServiceImpl) ClearSellerCart(ctx context.Context, p models.Principal, sellerID string) (int64, *ServiceError) {
	if strings.TrimSpace(sellerID) == "" {
		return 0, newValidationFailure("Seller ID is required")
	}
	return s.clear(ctx, p.UserID, sellerID)
}

func (s *cartServiceImpl) clear(ctx context.Context, customerID, sellerID string) (int64, *ServiceError) {
	removed, err := s.carts.Clear(ctx, customerID, sellerID)
	if err != nil {
		return 0, newUnexpected(s.logger, "Failed to clear cart", err,
			zap.String("customer_id", customerID), zap.String("seller_id", sellerID))
	}
	s.logger.Info("Cart cleared",
		zap.String("customer_id", customerID),
		zap.String("seller_id", sellerID),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

func (s *cartServiceImpl) ValidateCart(ctx context.Context, p models.Principal) (*models.CartValidation, *ServiceError) {
	items, serr := s.loadLines(ctx, p.UserID, nil)
	if serr != nil {
		return nil, serr
	}
	return s.validate(ctx, items)
}

// ValidateSellerCart validates one seller's portion of the cart. A seller
// with no lines in the cart comes back invalid with no lines.
func (s *cartServiceImpl) ValidateSellerCart(ctx context.Context, p models.Principal, sellerID string) (*models.SellerCartValidation, *ServiceError) {
	items, serr := s.loadLines(ctx, p.UserID, []string{sellerID})
	if serr != nil {
		return nil, serr
	}
	v, serr := s.validate(ctx, items)
	if serr != nil {
		return nil, serr
	}
	group, ok := v.Seller(sellerID)
	if !ok {
		group = models.SellerCartValidation{SellerID: sellerID, Lines: []models.CartLineResult{}}
	}
	return &group, nil
}

func (s *cartServiceImpl) ValidateLines(ctx context.Context, lines []models.CartLine) (*models.CartValidation, *ServiceError) {
	return s.validate(ctx, lines)
}

func (s *cartServiceImpl) loadLines(ctx context.Context, customerID string, sellerIDs []string) ([]models.CartLine, *ServiceError) {
	items, err := s.carts.LinesForCustomer(ctx, customerID, sellerIDs)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load cart", err, zap.String("customer_id", customerID))
	}
	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
	}
	return lines, nil
}

func (s *cartServiceImpl) validate(ctx context.Context, lines []models.CartLine) (*models.CartValidation, *ServiceError) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.FoodItemID)
	}
	snap, err := s.catalog.Snapshot(ctx, ids)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load catalog snapshot", err)
	}
	v := ValidateCart(lines, snap)
	return &v, nil
}
