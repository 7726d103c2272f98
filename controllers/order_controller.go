package controllers

import (
	"net/http"

	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	orderID, ok := uuidParam(ctx, "id", "order")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), p, orderID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// GetMyOrders handles GET /orders/my-orders.
func (oc *OrderController) GetMyOrders(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	result, svcErr := oc.orderService.GetMyOrders(ctx.Request.Context(), p, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetSellerOrders handles GET /orders/seller. Admins name the seller with
// ?seller_id=.
func (oc *OrderController) GetSellerOrders(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	result, svcErr := oc.orderService.GetSellerOrders(ctx.Request.Context(), p, ctx.Query("seller_id"), page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// UpdateStatus handles PUT /orders/:id/status.
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	orderID, ok := uuidParam(ctx, "id", "order")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	order, svcErr := oc.orderService.UpdateStatus(ctx.Request.Context(), p, orderID, req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder handles DELETE /orders/:id.
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	orderID, ok := uuidParam(ctx, "id", "order")
	if !ok {
		return
	}

	if svcErr := oc.orderService.DeleteOrder(ctx.Request.Context(), p, orderID); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// GetMyStatistics handles GET /seller/statistics for the calling seller.
func (oc *OrderController) GetMyStatistics(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	oc.statistics(ctx, p, p.UserID)
}

// GetSellerStatistics handles GET /sellers/:id/statistics.
func (oc *OrderController) GetSellerStatistics(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	oc.statistics(ctx, p, ctx.Param("id"))
}

func (oc *OrderController) statistics(ctx *gin.Context, p models.Principal, sellerID string) {
	stats, svcErr := oc.orderService.GetSellerStatistics(ctx.Request.Context(), p, sellerID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"statistics": stats})
}

// GetTopItems handles GET /seller/top-items.
func (oc *OrderController) GetTopItems(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	limit, ok := optionalIntQuery(ctx, "limit")
	if !ok {
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	items, svcErr := oc.orderService.GetTopItems(ctx.Request.Context(), p, ctx.Query("seller_id"), n)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GetDashboard handles GET /seller/dashboard.
func (oc *OrderController) GetDashboard(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	d, svcErr := oc.orderService.GetDashboard(ctx.Request.Context(), p, ctx.Query("seller_id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"dashboard": d})
}
