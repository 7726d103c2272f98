package controllers

import (
	"net/http"

	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	checkoutService services.CheckoutService
}

func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// CheckoutSelected handles POST /orders/checkout-selected. The status code
// reflects the outcome: 200 when every seller succeeded, 207 when some did
// and 400 when none did.
func (cc *CheckoutController) CheckoutSelected(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var req models.CheckoutSelectedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	result, svcErr := cc.checkoutService.CheckoutSelected(ctx.Request.Context(), p, req, ctx.GetHeader(idempotencyKeyHeader))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(checkoutStatus(result.Outcome), result)
}

// BuyNow handles POST /orders/buy-now.
func (cc *CheckoutController) BuyNow(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var req models.BuyNowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	order, svcErr := cc.checkoutService.BuyNow(ctx.Request.Context(), p, req, ctx.GetHeader(idempotencyKeyHeader))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

func checkoutStatus(outcome models.CheckoutOutcome) int {
	switch outcome {
	case models.CheckoutFullSuccess:
		return http.StatusOK
	case models.CheckoutPartialSuccess:
		return http.StatusMultiStatus
	default:
		return http.StatusBadRequest
	}
}
