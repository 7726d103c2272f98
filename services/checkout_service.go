package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"marketplace-service/models"
	"marketplace-service/repository"
	aws_pkg "marketplace-service/pkg/aws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CheckoutService turns carts, or a single item, into orders.
type CheckoutService interface {
	// CheckoutSelected creates one order per requested seller. Sellers
	// succeed or fail independently; the result lists every seller that had
	// lines in the cart exactly once.
	CheckoutSelected(ctx context.Context, p models.Principal, req models.CheckoutSelectedRequest, idempotencyKey string) (*models.CheckoutResult, *ServiceError)
	// BuyNow orders one item without touching the cart.
	BuyNow(ctx context.Context, p models.Principal, req models.BuyNowRequest, idempotencyKey string) (*models.Order, *ServiceError)
}

type CheckoutOptions struct {
	// Concurrency bounds how many sellers are processed at once.
	Concurrency    int
	IdempotencyTTL time.Duration
}

type checkoutServiceImpl struct {
	carts   repository.CartRepository
	catalog repository.CatalogRepository
	orders  repository.OrderRepository
	idem    repository.IdempotencyStore
	events  EventPublisher
	metrics *aws_pkg.MetricsClient
	opts    CheckoutOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewCheckoutService creates a CheckoutService. idem and metrics may be nil.
func NewCheckoutService(
	carts repository.CartRepository,
	catalog repository.CatalogRepository,
	orders repository.OrderRepository,
	idem repository.IdempotencyStore,
	events EventPublisher,
	metrics *aws_pkg.MetricsClient,
	opts CheckoutOptions,
	logger *zap.Logger,
) CheckoutService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if events == nil {
		events = NoopPublisher()
	}
	return &checkoutServiceImpl{
		carts:   carts,
		catalog: catalog,
		orders:  orders,
		idem:    idem,
		events:  events,
		metrics: metrics,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *checkoutServiceImpl) CheckoutSelected(ctx context.Context, p models.Principal, req models.CheckoutSelectedRequest, idempotencyKey string) (*models.CheckoutResult, *ServiceError) {
	sellerIDs := uniqueNonEmpty(req.SellerIDs)
	if len(sellerIDs) == 0 {
		return nil, newValidationFailure("at least one seller must be selected")
	}

	run := func() (*models.CheckoutResult, *ServiceError) {
		return s.checkoutSelected(ctx, p.UserID, sellerIDs)
	}
	// A full failure changes nothing, so the customer may retry it with the
	// same key once the cart is fixed.
	keep := func(r *models.CheckoutResult) bool { return len(r.Orders) > 0 }
	return runIdempotent(ctx, s, "checkout", p.UserID, idempotencyKey, run, keep)
}

func (s *checkoutServiceImpl) checkoutSelected(ctx context.Context, customerID string, sellerIDs []string) (*models.CheckoutResult, *ServiceError) {
	items, err := s.carts.LinesForCustomer(ctx, customerID, sellerIDs)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load cart", err, zap.String("customer_id", customerID))
	}
	if len(items) == 0 {
		return nil, newValidationFailure("no cart items for the selected sellers")
	}

	bySeller := make(map[string][]models.CartItem)
	foodIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		bySeller[it.SellerID] = append(bySeller[it.SellerID], it)
		foodIDs = append(foodIDs, it.FoodItemID)
	}
	sellers := make([]string, 0, len(bySeller))
	for id := range bySeller {
		sellers = append(sellers, id)
	}
	sort.Strings(sellers)

	snap, err := s.catalog.Snapshot(ctx, foodIDs)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load catalog snapshot", err, zap.String("customer_id", customerID))
	}

	type sellerOutcome struct {
		order *models.Order
		fail  *models.SellerError
	}
	outcomes := make([]sellerOutcome, len(sellers))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, sellerID := range sellers {
		i, sellerID := i, sellerID
		g.Go(func() error {
			order, fail := s.checkoutSeller(ctx, customerID, sellerID, bySeller[sellerID], snap)
			outcomes[i] = sellerOutcome{order: order, fail: fail}
			return nil
		})
	}
	_ = g.Wait()

	result := &models.CheckoutResult{
		Orders:       []models.Order{},
		SellerErrors: []models.SellerError{},
	}
	for _, o := range outcomes {
		if o.order != nil {
			result.Orders = append(result.Orders, *o.order)
		} else {
			result.SellerErrors = append(result.SellerErrors, *o.fail)
		}
	}
	result.ResolveOutcome()

	switch result.Outcome {
	case models.CheckoutPartialSuccess:
		recordCount(s.metrics, aws_pkg.MetricCheckoutPartial, nil)
	case models.CheckoutFullFailure:
		recordCount(s.metrics, aws_pkg.MetricCheckoutFailures, map[string]string{"Outcome": string(result.Outcome)})
	}

	s.logger.Info("Checkout completed",
		zap.String("customer_id", customerID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("orders", len(result.Orders)),
		zap.Int("seller_errors", len(result.SellerErrors)),
	)
	return result, nil
}

// checkoutSeller validates and persists one seller's portion of the cart.
// Exactly one of the return values is non-nil.
func (s *checkoutServiceImpl) checkoutSeller(ctx context.Context, customerID, sellerID string, items []models.CartItem, snap models.CatalogSnapshot) (*models.Order, *models.SellerError) {
	lines := make([]models.CartLine, 0, len(items))
	cartItemIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
		cartItemIDs = append(cartItemIDs, it.ID)
	}

	group, ok := ValidateCart(lines, snap).Seller(sellerID)
	if !ok || !group.Valid {
		return nil, &models.SellerError{
			SellerID: sellerID,
			Reason:   summarizeProblems(group),
			Lines:    problemLines(group),
		}
	}

	order := s.buildOrder(customerID, group)
	if err := s.orders.CreateFromCart(ctx, order, cartItemIDs); err != nil {
		if errors.Is(err, repository.ErrCartChanged) {
			return nil, &models.SellerError{SellerID: sellerID, Reason: "cart changed during checkout, please retry"}
		}
		s.logger.Error("Failed to create order",
			zap.String("customer_id", customerID),
			zap.String("seller_id", sellerID),
			zap.Error(err),
		)
		return nil, &models.SellerError{SellerID: sellerID, Reason: "failed to create order"}
	}

	s.orderCreated(ctx, order)
	return order, nil
}

func (s *checkoutServiceImpl) BuyNow(ctx context.Context, p models.Principal, req models.BuyNowRequest, idempotencyKey string) (*models.Order, *ServiceError) {
	run := func() (*models.Order, *ServiceError) {
		return s.buyNow(ctx, p.UserID, req)
	}
	keep := func(*models.Order) bool { return true }
	return runIdempotent(ctx, s, "buy-now", p.UserID, idempotencyKey, run, keep)
}

func (s *checkoutServiceImpl) buyNow(ctx context.Context, customerID string, req models.BuyNowRequest) (*models.Order, *ServiceError) {
	snap, err := s.catalog.Snapshot(ctx, []uuid.UUID{req.FoodItemID})
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to load catalog snapshot", err, zap.String("food_item_id", req.FoodItemID.String()))
	}
	if _, ok := snap.Lookup(req.FoodItemID); !ok {
		return nil, newNotFound("Food item not found")
	}

	validation := ValidateCart([]models.CartLine{req.Line()}, snap)
	group := validation.Sellers[0]
	if !group.Valid {
		line := group.Lines[0]
		return nil, newValidationFailureCode(string(line.Status), line.Reason)
	}

	order := s.buildOrder(customerID, group)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, newUnexpected(s.logger, "Failed to create order", err,
			zap.String("customer_id", customerID),
			zap.String("seller_id", group.SellerID),
		)
	}

	s.orderCreated(ctx, order)
	return order, nil
}

// buildOrder turns a valid seller group into a pending order. Prices come
// from the catalog snapshot captured in the group, never from the client.
func (s *checkoutServiceImpl) buildOrder(customerID string, group models.SellerCartValidation) *models.Order {
	now := s.now().UTC()
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: generateOrderNumber(now),
		CustomerID:  customerID,
		SellerID:    group.SellerID,
		Status:      models.OrderStatusPending,
		OrderItems:  make([]models.OrderItem, 0, len(group.Lines)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, l := range group.Lines {
		item := models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FoodItemID: l.FoodItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.CurrentPrice,
		}
		order.Total += item.Subtotal()
		order.OrderItems = append(order.OrderItems, item)
	}
	return order
}

func (s *checkoutServiceImpl) orderCreated(ctx context.Context, order *models.Order) {
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("seller_id", order.SellerID),
		zap.Int64("total", order.Total),
	)
	recordCount(s.metrics, aws_pkg.MetricOrdersCreated, map[string]string{"Seller": order.SellerID})
	s.events.Publish(ctx, models.NewOrderEvent(models.EventOrderCreated, order, "", order.CustomerID))
}

// generateOrderNumber returns ORD-YYYYMMDD-XXXXXXXX.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

func summarizeProblems(g models.SellerCartValidation) string {
	if len(g.Lines) == 0 {
		return "no items for this seller"
	}
	counts := make(map[models.CartLineStatus]int)
	var order []models.CartLineStatus
	for _, l := range g.Lines {
		if l.Status == models.CartLineValid {
			continue
		}
		if counts[l.Status] == 0 {
			order = append(order, l.Status)
		}
		counts[l.Status]++
	}
	parts := make([]string, 0, len(order))
	for _, st := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[st], strings.ReplaceAll(string(st), "_", " ")))
	}
	return "cart validation failed: " + strings.Join(parts, ", ")
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// runIdempotent executes run at most once per (customer, scope, key) while
// the stored response lives. Without a key or a store it simply runs.
// Results rejected by keep release the key instead of being stored.
func runIdempotent[T any](
	ctx context.Context,
	s *checkoutServiceImpl,
	scope, customerID, key string,
	run func() (*T, *ServiceError),
	keep func(*T) bool,
) (*T, *ServiceError) {
	if key == "" || s.idem == nil {
		return run()
	}
	fullKey := customerID + ":" + scope + ":" + key

	reserved, err := s.idem.Reserve(ctx, fullKey, s.opts.IdempotencyTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable, continuing without it", zap.String("key", fullKey), zap.Error(err))
		return run()
	}

	if !reserved {
		stored, err := s.idem.Get(ctx, fullKey)
		if err != nil {
			return nil, newUnexpected(s.logger, "Failed to read idempotency key", err, zap.String("key", fullKey))
		}
		switch stored {
		case "":
			// The key expired between Reserve and Get; claim it once more.
			reserved, err = s.idem.Reserve(ctx, fullKey, s.opts.IdempotencyTTL)
			if err != nil {
				return nil, newUnexpected(s.logger, "Failed to reserve idempotency key", err, zap.String("key", fullKey))
			}
			if !reserved {
				return nil, newConflict(CodeInProgress, "A request with this idempotency key is already in progress")
			}
		case repository.PendingMarker:
			return nil, newConflict(CodeInProgress, "A request with this idempotency key is already in progress")
		default:
			var replay T
			if err := json.Unmarshal([]byte(stored), &replay); err != nil {
				return nil, newUnexpected(s.logger, "Corrupt idempotency record", err, zap.String("key", fullKey))
			}
			recordCount(s.metrics, aws_pkg.MetricIdempotentReplays, map[string]string{"Scope": scope})
			s.logger.Info("Replaying idempotent response", zap.String("key", fullKey))
			return &replay, nil
		}
	}

	res, serr := run()
	if serr != nil || !keep(res) {
		if err := s.idem.Release(context.WithoutCancel(ctx), fullKey); err != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", fullKey), zap.Error(err))
		}
		return res, serr
	}

	data, err := json.Marshal(res)
	if err == nil {
		err = s.idem.Complete(context.WithoutCancel(ctx), fullKey, string(data), s.opts.IdempotencyTTL)
	}
	if err != nil {
		s.logger.Warn("Failed to store idempotent response", zap.String("key", fullKey), zap.Error(err))
	}
	return res, nil
}
