package controllers

import (
	"net/http"

	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// AddItem handles POST /cart/items.
func (cc *CartController) AddItem(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	item, svcErr := cc.cartService.AddItem(ctx.Request.Context(), p, req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"item": item})
}

// GetCart handles GET /cart.
func (cc *CartController) GetCart(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	items, svcErr := cc.cartService.GetCart(ctx.Request.Context(), p)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

// RemoveItem handles DELETE /cart/items/:foodItemId.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	foodItemID, ok := uuidParam(ctx, "foodItemId", "food item")
	if !ok {
		return
	}

	if svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), p, foodItemID); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UpdateItem handles PUT /cart/items/:foodItemId.
func (cc *CartController) UpdateItem(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	foodItemID, ok := uuidParam(ctx, "foodItemId", "food item")
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	item, svcErr := cc.cartService.UpdateItem(ctx.Request.Context(), p, foodItemID, req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"item": item})
}

// ClearCart handles DELETE /cart.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	removed, svcErr := cc.cartService.ClearCart(ctx.Request.Context(), p)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ClearSellerCart handles DELETE /cart/seller/:sellerId.
func (cc *CartController) ClearSellerCart(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	removed, svcErr := cc.cartService.ClearSellerCart(ctx.Request.Context(), p, ctx.Param("sellerId"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ValidateCart handles POST /cart/validate.
func (cc *CartController) ValidateCart(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	result, svcErr := cc.cartService.ValidateCart(ctx.Request.Context(), p)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ValidateSellerCart handles POST /cart/validate/seller/:sellerId.
func (cc *CartController) ValidateSellerCart(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	result, svcErr := cc.cartService.ValidateSellerCart(ctx.Request.Context(), p, ctx.Param("sellerId"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ValidateLines handles POST /cart/validate-lines for carts held client side.
func (cc *CartController) ValidateLines(ctx *gin.Context) {
	var req models.ValidateCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	result, svcErr := cc.cartService.ValidateLines(ctx.Request.Context(), req.Items)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
