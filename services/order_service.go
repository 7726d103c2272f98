package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-service/models"
	"marketplace-service/repository"
	aws_pkg "marketplace-service/pkg/aws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService exposes order reads and the status state machine.
type OrderService interface {
	GetOrder(ctx context.Context, p models.Principal, orderID uuid.UUID) (*models.Order, *ServiceError)
	GetMyOrders(ctx context.Context, p models.Principal, page, limit int) (*models.OrderListResponse, *ServiceError)
	GetSellerOrders(ctx context.Context, p models.Principal, sellerID string, page, limit int) (*models.OrderListResponse, *ServiceError)
	UpdateStatus(ctx context.Context, p models.Principal, orderID uuid.UUID, req models.UpdateOrderStatusRequest) (*models.Order, *ServiceError)
	DeleteOrder(ctx context.Context, p models.Principal, orderID uuid.UUID) *ServiceError
	GetSellerStatistics(ctx context.Context, p models.Principal, sellerID string) (*models.SellerStatistics, *ServiceError)
	GetTopItems(ctx context.Context, p models.Principal, sellerID string, limit int) ([]models.TopItem, *ServiceError)
	GetDashboard(ctx context.Context, p models.Principal, sellerID string) (*models.SellerDashboard, *ServiceError)
}

type orderServiceImpl struct {
	orders  repository.OrderRepository
	stats   repository.StatisticsRepository
	events  EventPublisher
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
	now     func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	stats repository.StatisticsRepository,
	events EventPublisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) OrderService {
	if events == nil {
		events = NoopPublisher()
	}
	return &orderServiceImpl{
		orders:  orders,
		stats:   stats,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *orderServiceImpl) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newNotFound("Order not found")
		}
		return nil, newUnexpected(s.logger, "Failed to load order", err, zap.String("order_id", orderID.String()))
	}
	return order, nil
}

// GetOrder returns the order to its customer, its seller, or an admin.
func (s *orderServiceImpl) GetOrder(ctx context.Context, p models.Principal, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, serr := s.loadOrder(ctx, orderID)
	if serr != nil {
		return nil, serr
	}
	if _, owner := ResolveActor(p, order); !owner {
		return nil, newForbidden("You are not allowed to view this order")
	}
	return order, nil
}

func (s *orderServiceImpl) GetMyOrders(ctx context.Context, p models.Principal, page, limit int) (*models.OrderListResponse, *ServiceError) {
	orders, total, err := s.orders.FindByCustomerID(ctx, p.UserID, page, limit)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to fetch orders", err, zap.String("customer_id", p.UserID))
	}
	return newOrderList(orders, total, page, limit), nil
}

// GetSellerOrders lists the orders received by sellerID, or by the caller
// when sellerID is empty.
func (s *orderServiceImpl) GetSellerOrders(ctx context.Context, p models.Principal, sellerID string, page, limit int) (*models.OrderListResponse, *ServiceError) {
	sellerID, serr := resolveSeller(p, sellerID, "You are not allowed to list these orders")
	if serr != nil {
		return nil, serr
	}
	orders, total, err := s.orders.FindBySellerID(ctx, sellerID, page, limit)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to fetch orders", err, zap.String("seller_id", sellerID))
	}
	return newOrderList(orders, total, page, limit), nil
}

// UpdateStatus authorizes the requested transition against the permission
// table, checks its legality, and applies it with a compare-and-set on the
// status that was read. A concurrent writer that got there first turns this
// call into a Conflict; the caller should re-read and retry.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, p models.Principal, orderID uuid.UUID, req models.UpdateOrderStatusRequest) (*models.Order, *ServiceError) {
	to, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		return nil, newValidationFailure(fmt.Sprintf("Unknown order status %q", req.Status))
	}

	order, serr := s.loadOrder(ctx, orderID)
	if serr != nil {
		return nil, serr
	}

	from := order.Status
	role, owner := ResolveActor(p, order)
	kind := ClassifyTransition(from, to)
	if !CanTransition(role, kind, owner) {
		s.logger.Warn("Order transition denied",
			zap.String("order_id", orderID.String()),
			zap.String("user_id", p.UserID),
			zap.String("role", string(role)),
			zap.String("kind", string(kind)),
			zap.Bool("owner", owner),
		)
		return nil, newForbidden("You are not allowed to make this change to the order")
	}
	if serr := CheckTransition(from, to, role == models.RoleAdmin); serr != nil {
		return nil, serr
	}

	now := s.now().UTC()
	if err := s.orders.UpdateStatus(ctx, orderID, from, to, now); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, newConflict(CodeStaleState, "Order status changed in the meantime, reload and try again")
		}
		return nil, newUnexpected(s.logger, "Failed to update order status", err, zap.String("order_id", orderID.String()))
	}

	order.Status = to
	order.UpdatedAt = now
	switch to {
	case models.OrderStatusCancelled:
		order.CancelledAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("by", p.UserID),
		zap.String("role", string(role)),
	)
	recordCount(s.metrics, aws_pkg.MetricOrderTransitions, map[string]string{"To": string(to), "Role": string(role)})
	s.events.Publish(ctx, models.NewOrderEvent(models.EventOrderStatusChanged, order, from, p.UserID))
	return order, nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, p models.Principal, orderID uuid.UUID) *ServiceError {
	order, serr := s.loadOrder(ctx, orderID)
	if serr != nil {
		return serr
	}
	role, owner := ResolveActor(p, order)
	if !CanDelete(role, owner) {
		return newForbidden("You are not allowed to delete this order")
	}

	if err := s.orders.SoftDelete(ctx, orderID); err != nil {
		if repository.IsNotFound(err) {
			return newNotFound("Order not found")
		}
		return newUnexpected(s.logger, "Failed to delete order", err, zap.String("order_id", orderID.String()))
	}

	s.logger.Info("Order deleted", zap.String("order_id", orderID.String()), zap.String("by", p.UserID))
	s.events.Publish(ctx, models.NewOrderEvent(models.EventOrderDeleted, order, order.Status, p.UserID))
	return nil
}

// resolveSeller picks the seller a seller scoped read is about: sellerID
// when given, otherwise the caller. Sellers only see their own data; admins
// see anyone's but must name the seller unless they are one.
func resolveSeller(p models.Principal, sellerID, denied string) (string, *ServiceError) {
	if sellerID == "" {
		if p.IsAdmin() && !p.HasRole(models.RoleSeller) {
			return "", newValidationFailure("seller_id is required")
		}
		sellerID = p.UserID
	}
	if !p.IsAdmin() && (sellerID != p.UserID || !p.HasRole(models.RoleSeller)) {
		return "", newForbidden(denied)
	}
	return sellerID, nil
}

// GetSellerStatistics reports on sellerID, or on the caller when sellerID is
// empty.
func (s *orderServiceImpl) GetSellerStatistics(ctx context.Context, p models.Principal, sellerID string) (*models.SellerStatistics, *ServiceError) {
	sellerID, serr := resolveSeller(p, sellerID, "You are not allowed to view these statistics")
	if serr != nil {
		return nil, serr
	}

	stats, err := s.stats.SellerStatistics(ctx, sellerID)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to compute seller statistics", err, zap.String("seller_id", sellerID))
	}
	return stats, nil
}

// GetTopItems returns the seller's best selling items. A non-positive limit
// falls back to the default; larger limits are capped.
func (s *orderServiceImpl) GetTopItems(ctx context.Context, p models.Principal, sellerID string, limit int) ([]models.TopItem, *ServiceError) {
	sellerID, serr := resolveSeller(p, sellerID, "You are not allowed to view these statistics")
	if serr != nil {
		return nil, serr
	}
	switch {
	case limit <= 0:
		limit = models.DefaultTopItemsLimit
	case limit > models.MaxTopItemsLimit:
		limit = models.MaxTopItemsLimit
	}

	items, err := s.stats.TopItems(ctx, sellerID, limit)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to compute top items", err, zap.String("seller_id", sellerID))
	}
	if items == nil {
		items = []models.TopItem{}
	}
	return items, nil
}

func (s *orderServiceImpl) GetDashboard(ctx context.Context, p models.Principal, sellerID string) (*models.SellerDashboard, *ServiceError) {
	sellerID, serr := resolveSeller(p, sellerID, "You are not allowed to view this dashboard")
	if serr != nil {
		return nil, serr
	}

	d, err := s.stats.Dashboard(ctx, sellerID, s.now())
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to compute seller dashboard", err, zap.String("seller_id", sellerID))
	}
	return d, nil
}

func newOrderList(orders []models.Order, total int64, page, limit int) *models.OrderListResponse {
	if orders == nil {
		orders = []models.Order{}
	}
	return &models.OrderListResponse{
		Orders: orders,
		Meta: models.MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
