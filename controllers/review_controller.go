package controllers

import (
	"net/http"

	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviewService services.ReviewService
}

func NewReviewController(reviewService services.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// CreateReview handles POST /orders/:id/review.
func (rc *ReviewController) CreateReview(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	orderID, ok := uuidParam(ctx, "id", "order")
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request", err)
		return
	}

	review, svcErr := rc.reviewService.CreateReview(ctx.Request.Context(), p, orderID, req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListSellerReviews handles GET /sellers/:id/reviews with optional rating
// and food_item_id filters.
func (rc *ReviewController) ListSellerReviews(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	rating, ok := optionalIntQuery(ctx, "rating")
	if !ok {
		return
	}
	foodItemID, ok := optionalUUIDQuery(ctx, "food_item_id", "food item")
	if !ok {
		return
	}

	filter := models.ReviewFilter{Rating: rating, FoodItemID: foodItemID}
	reviews, total, svcErr := rc.reviewService.ListSellerReviews(ctx.Request.Context(), ctx.Param("id"), filter, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	respondReviews(ctx, reviews, total, page, limit)
}

// ListLowRated handles GET /reviews/low-rated for the calling seller.
func (rc *ReviewController) ListLowRated(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)
	foodItemID, ok := optionalUUIDQuery(ctx, "food_item_id", "food item")
	if !ok {
		return
	}

	reviews, total, svcErr := rc.reviewService.ListLowRated(ctx.Request.Context(), p, foodItemID, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	respondReviews(ctx, reviews, total, page, limit)
}

func respondReviews(ctx *gin.Context, reviews []models.Review, total int64, page, limit int) {
	ctx.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"meta": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
