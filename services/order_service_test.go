package services_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrderService(orders *memOrders, events *recordingPublisher) services.OrderService {
	stats := &stubStats{stats: &models.SellerStatistics{OrdersByStatus: map[models.OrderStatus]int64{}}}
	return services.NewOrderService(orders, stats, events, nil, zap.NewNop())
}

func seedOrder(orders *memOrders, status models.OrderStatus) *models.Order {
	return orders.put(&models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-TEST",
		CustomerID:  "cust-1",
		SellerID:    "seller-1",
		Status:      status,
		Total:       1000,
	})
}

func updateTo(status models.OrderStatus) models.UpdateOrderStatusRequest {
	return models.UpdateOrderStatusRequest{Status: string(status)}
}

func TestService_UpdateStatus_CustomerCancelPending(t *testing.T) {
	orders := newMemOrders(&memCart{})
	events := &recordingPublisher{}
	svc := newTestOrderService(orders, events)
	o := seedOrder(orders, models.OrderStatusPending)

	updated, err := svc.UpdateStatus(context.Background(), customer("cust-1"), o.ID, updateTo(models.OrderStatusCancelled))
	require.Nil(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)
	assert.Equal(t, []string{models.EventOrderStatusChanged}, events.types())
}

func TestService_UpdateStatus_CustomerCannotCancelOutForDelivery(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusOutForDelivery)

	_, err := svc.UpdateStatus(context.Background(), customer("cust-1"), o.ID, updateTo(models.OrderStatusCancelled))
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)
	assert.Equal(t, http.StatusForbidden, err.StatusCode)

	stored, _ := orders.FindByID(context.Background(), o.ID)
	assert.Equal(t, models.OrderStatusOutForDelivery, stored.Status)
}

func TestService_UpdateStatus_SellerSkipIsInvalid(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), seller("seller-1"), o.ID, updateTo(models.OrderStatusDelivered))
	require.NotNil(t, err)
	assert.Equal(t, services.KindInvalidState, err.Kind)
	assert.Equal(t, services.CodeInvalidTransition, err.Code)
}

func TestService_UpdateStatus_AdminSkipSucceeds(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusPending)

	updated, err := svc.UpdateStatus(context.Background(), admin("root"), o.ID, updateTo(models.OrderStatusDelivered))
	require.Nil(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
	assert.NotNil(t, updated.DeliveredAt)
}

func TestService_UpdateStatus_SellerWalksHappyPath(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusPending)

	for _, st := range models.FulfillmentPath[1:] {
		updated, err := svc.UpdateStatus(context.Background(), seller("seller-1"), o.ID, updateTo(st))
		require.Nil(t, err, "to %s", st)
		assert.Equal(t, st, updated.Status)
	}

	_, err := svc.UpdateStatus(context.Background(), seller("seller-1"), o.ID, updateTo(models.OrderStatusCancelled))
	require.NotNil(t, err)
	assert.Equal(t, services.CodeAlreadyFinalized, err.Code)
}

func TestService_UpdateStatus_OtherSellerForbidden(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), seller("seller-2"), o.ID, updateTo(models.OrderStatusConfirmed))
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	_, err = svc.UpdateStatus(context.Background(), seller("seller-2"), o.ID, updateTo(models.OrderStatusCancelled))
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)
}

func TestService_UpdateStatus_InputErrors(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), admin("root"), o.ID, models.UpdateOrderStatusRequest{Status: "teleported"})
	require.NotNil(t, err)
	assert.Equal(t, services.KindValidationFailure, err.Kind)

	_, err = svc.UpdateStatus(context.Background(), admin("root"), uuid.New(), updateTo(models.OrderStatusConfirmed))
	require.NotNil(t, err)
	assert.Equal(t, services.KindNotFound, err.Kind)
}

func TestService_UpdateStatus_ConcurrentConflictingTransitions(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	o := seedOrder(orders, models.OrderStatusPending)

	var wg sync.WaitGroup
	results := make([]*services.ServiceError, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = svc.UpdateStatus(context.Background(), customer("cust-1"), o.ID, updateTo(models.OrderStatusCancelled))
	}()
	go func() {
		defer wg.Done()
		_, results[1] = svc.UpdateStatus(context.Background(), admin("root"), o.ID, updateTo(models.OrderStatusDelivered))
	}()
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r == nil {
			succeeded++
			continue
		}
		// The loser either lost the compare-and-set or read the winner's
		// status first.
		assert.Contains(t, []services.ErrorKind{services.KindConflict, services.KindInvalidState}, r.Kind)
	}
	assert.Equal(t, 1, succeeded)
}

// staleReads serves a snapshot taken before another writer moved the order.
type staleReads struct {
	*memOrders
	snapshot models.Order
}

func (s *staleReads) FindByID(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	cp := s.snapshot
	return &cp, nil
}

func TestService_UpdateStatus_StaleStateConflict(t *testing.T) {
	orders := newMemOrders(&memCart{})
	o := seedOrder(orders, models.OrderStatusPending)
	snapshot := *o
	require.NoError(t, orders.UpdateStatus(context.Background(), o.ID, models.OrderStatusPending, models.OrderStatusConfirmed, o.CreatedAt))

	stats := &stubStats{stats: &models.SellerStatistics{}}
	svc := services.NewOrderService(&staleReads{memOrders: orders, snapshot: snapshot}, stats, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), customer("cust-1"), o.ID, updateTo(models.OrderStatusCancelled))
	require.NotNil(t, err)
	assert.Equal(t, services.KindConflict, err.Kind)
	assert.Equal(t, services.CodeStaleState, err.Code)
	assert.Equal(t, http.StatusConflict, err.StatusCode)

	stored, _ := orders.FindByID(context.Background(), o.ID)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
}

func TestService_DeleteOrder(t *testing.T) {
	orders := newMemOrders(&memCart{})
	events := &recordingPublisher{}
	svc := newTestOrderService(orders, events)
	ctx := context.Background()

	o := seedOrder(orders, models.OrderStatusPending)
	err := svc.DeleteOrder(ctx, customer("cust-1"), o.ID)
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	err = svc.DeleteOrder(ctx, seller("seller-2"), o.ID)
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	assert.Nil(t, svc.DeleteOrder(ctx, seller("seller-1"), o.ID))
	assert.Equal(t, []string{models.EventOrderDeleted}, events.types())

	other := seedOrder(orders, models.OrderStatusDelivered)
	assert.Nil(t, svc.DeleteOrder(ctx, admin("root"), other.ID))

	err = svc.DeleteOrder(ctx, admin("root"), uuid.New())
	require.NotNil(t, err)
	assert.Equal(t, services.KindNotFound, err.Kind)
}

func TestService_GetOrder_Visibility(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	ctx := context.Background()
	o := seedOrder(orders, models.OrderStatusPending)

	for _, p := range []models.Principal{customer("cust-1"), seller("seller-1"), admin("root")} {
		got, err := svc.GetOrder(ctx, p, o.ID)
		require.Nil(t, err, p.UserID)
		assert.Equal(t, o.ID, got.ID)
	}

	_, err := svc.GetOrder(ctx, customer("cust-2"), o.ID)
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)
}

func TestService_GetMyOrders_Pagination(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	for i := 0; i < 5; i++ {
		seedOrder(orders, models.OrderStatusPending)
	}

	resp, err := svc.GetMyOrders(context.Background(), customer("cust-1"), 1, 2)
	require.Nil(t, err)
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(5), resp.Meta.TotalOrders)
	assert.Equal(t, int64(3), resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasMore)

	resp, err = svc.GetMyOrders(context.Background(), customer("nobody"), 1, 10)
	require.Nil(t, err)
	assert.NotNil(t, resp.Orders)
	assert.Empty(t, resp.Orders)
}

func TestService_GetSellerStatistics_Access(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	ctx := context.Background()

	stats, err := svc.GetSellerStatistics(ctx, seller("seller-1"), "")
	require.Nil(t, err)
	assert.Equal(t, "seller-1", stats.SellerID)

	_, err = svc.GetSellerStatistics(ctx, seller("seller-1"), "seller-2")
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	_, err = svc.GetSellerStatistics(ctx, customer("cust-1"), "")
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	stats, err = svc.GetSellerStatistics(ctx, admin("root"), "seller-2")
	require.Nil(t, err)
	assert.Equal(t, "seller-2", stats.SellerID)
}

func TestService_GetSellerOrders_Scope(t *testing.T) {
	orders := newMemOrders(&memCart{})
	svc := newTestOrderService(orders, &recordingPublisher{})
	ctx := context.Background()
	seedOrder(orders, models.OrderStatusPending)
	seedOrder(orders, models.OrderStatusDelivered)

	resp, err := svc.GetSellerOrders(ctx, seller("seller-1"), "", 1, 10)
	require.Nil(t, err)
	assert.Len(t, resp.Orders, 2)

	resp, err = svc.GetSellerOrders(ctx, admin("root"), "seller-1", 1, 10)
	require.Nil(t, err)
	assert.Len(t, resp.Orders, 2)

	_, err = svc.GetSellerOrders(ctx, admin("root"), "", 1, 10)
	require.NotNil(t, err)
	assert.Equal(t, services.KindValidationFailure, err.Kind)

	_, err = svc.GetSellerOrders(ctx, seller("seller-2"), "seller-1", 1, 10)
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	_, err = svc.GetSellerOrders(ctx, customer("cust-1"), "", 1, 10)
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)
}

func TestService_GetTopItems_LimitAndAccess(t *testing.T) {
	stats := &stubStats{top: []models.TopItem{{FoodItemID: uuid.New(), Name: "ramen", QuantitySold: 7}}}
	svc := services.NewOrderService(newMemOrders(&memCart{}), stats, nil, nil, zap.NewNop())
	ctx := context.Background()

	items, err := svc.GetTopItems(ctx, seller("seller-1"), "", 0)
	require.Nil(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "seller-1", stats.lastSeller)
	assert.Equal(t, models.DefaultTopItemsLimit, stats.lastLimit)

	_, err = svc.GetTopItems(ctx, admin("root"), "seller-3", 500)
	require.Nil(t, err)
	assert.Equal(t, "seller-3", stats.lastSeller)
	assert.Equal(t, models.MaxTopItemsLimit, stats.lastLimit)

	_, err = svc.GetTopItems(ctx, seller("seller-1"), "seller-3", 5)
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)

	stats.top = nil
	items, err = svc.GetTopItems(ctx, seller("seller-1"), "", 5)
	require.Nil(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	stats.err = errStorage
	_, err = svc.GetTopItems(ctx, seller("seller-1"), "", 5)
	require.NotNil(t, err)
	assert.Equal(t, services.KindUnexpected, err.Kind)
}

func TestService_GetDashboard(t *testing.T) {
	stats := &stubStats{}
	svc := services.NewOrderService(newMemOrders(&memCart{}), stats, nil, nil, zap.NewNop())
	ctx := context.Background()

	d, err := svc.GetDashboard(ctx, seller("seller-1"), "")
	require.Nil(t, err)
	assert.Equal(t, "seller-1", d.SellerID)
	assert.False(t, stats.lastNow.IsZero())

	_, err = svc.GetDashboard(ctx, customer("cust-1"), "seller-1")
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)
}
