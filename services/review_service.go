package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"marketplace-service/models"
	"marketplace-service/repository"
	aws_pkg "marketplace-service/pkg/aws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	// CreateReview records a customer's review of a delivered order and folds
	// the rating into the seller's, and optionally a food item's, aggregate.
	CreateReview(ctx context.Context, p models.Principal, orderID uuid.UUID, req models.CreateReviewRequest) (*models.Review, *ServiceError)
	ListSellerReviews(ctx context.Context, sellerID string, filter models.ReviewFilter, page, limit int) ([]models.Review, int64, *ServiceError)
	// ListLowRated shows the calling seller the reviews rated at or below
	// models.LowRatingThreshold, optionally for a single food item.
	ListLowRated(ctx context.Context, p models.Principal, foodItemID *uuid.UUID, page, limit int) ([]models.Review, int64, *ServiceError)
}

type reviewServiceImpl struct {
	orders  repository.OrderRepository
	reviews repository.ReviewRepository
	events  EventPublisher
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

func NewReviewService(
	orders repository.OrderRepository,
	reviews repository.ReviewRepository,
	events EventPublisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) ReviewService {
	if events == nil {
		events = NoopPublisher()
	}
	return &reviewServiceImpl{
		orders:  orders,
		reviews: reviews,
		events:  events,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *reviewServiceImpl) CreateReview(ctx context.Context, p models.Principal, orderID uuid.UUID, req models.CreateReviewRequest) (*models.Review, *ServiceError) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, newValidationFailure("Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > models.MaxReviewCommentLength {
		return nil, newValidationFailure(fmt.Sprintf("Comment cannot exceed %d characters", models.MaxReviewCommentLength))
	}

	// Preconditions are checked in a fixed order; the first failure wins.
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, newNotFound("Order not found")
		}
		return nil, newUnexpected(s.logger, "Failed to load order", err, zap.String("order_id", orderID.String()))
	}
	if order.CustomerID != p.UserID {
		return nil, newForbidden("You can only review your own orders")
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, newInvalidState(CodeWrongStatus, "Only delivered orders can be reviewed")
	}
	exists, err := s.reviews.ExistsForOrder(ctx, orderID)
	if err != nil {
		return nil, newUnexpected(s.logger, "Failed to check existing review", err, zap.String("order_id", orderID.String()))
	}
	if exists {
		return nil, newInvalidState(CodeAlreadyReviewed, "This order has already been reviewed")
	}
	if req.FoodItemID != nil && !order.ContainsFoodItem(*req.FoodItemID) {
		return nil, newValidationFailure("Food item is not part of this order")
	}

	review := &models.Review{
		ID:         uuid.New(),
		OrderID:    order.ID,
		CustomerID: p.UserID,
		SellerID:   order.SellerID,
		FoodItemID: req.FoodItemID,
		Rating:     req.Rating,
		Comment:    comment,
	}

	if err := s.reviews.CreateWithRatings(ctx, review); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReviewed):
			// Lost a race with a concurrent review of the same order.
			return nil, newInvalidState(CodeAlreadyReviewed, "This order has already been reviewed")
		case errors.Is(err, repository.ErrSellerNotFound):
			return nil, newNotFound("Seller not found")
		case errors.Is(err, repository.ErrFoodItemNotFound):
			return nil, newNotFound("Food item not found")
		}
		return nil, newUnexpected(s.logger, "Failed to create review", err, zap.String("order_id", orderID.String()))
	}

	s.logger.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("seller_id", review.SellerID),
		zap.Int("rating", review.Rating),
	)
	recordCount(s.metrics, aws_pkg.MetricReviewsCreated, map[string]string{"Seller": review.SellerID})
	s.events.Publish(ctx, models.NewReviewEvent(review))
	return review, nil
}

func (s *reviewServiceImpl) ListSellerReviews(ctx context.Context, sellerID string, filter models.ReviewFilter, page, limit int) ([]models.Review, int64, *ServiceError) {
	if filter.Rating != nil && (*filter.Rating < 1 || *filter.Rating > 5) {
		return nil, 0, newValidationFailure("Rating must be between 1 and 5")
	}
	return s.list(ctx, sellerID, filter, page, limit)
}

func (s *reviewServiceImpl) ListLowRated(ctx context.Context, p models.Principal, foodItemID *uuid.UUID, page, limit int) ([]models.Review, int64, *ServiceError) {
	if !p.HasRole(models.RoleSeller) {
		return nil, 0, newForbidden("Only sellers can view their low rated reviews")
	}
	threshold := models.LowRatingThreshold
	return s.list(ctx, p.UserID, models.ReviewFilter{MaxRating: &threshold, FoodItemID: foodItemID}, page, limit)
}

func (s *reviewServiceImpl) list(ctx context.Context, sellerID string, filter models.ReviewFilter, page, limit int) ([]models.Review, int64, *ServiceError) {
	reviews, total, err := s.reviews.FindBySellerID(ctx, sellerID, filter, page, limit)
	if err != nil {
		return nil, 0, newUnexpected(s.logger, "Failed to list reviews", err, zap.String("seller_id", sellerID))
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, total, nil
}
