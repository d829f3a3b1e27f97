package services

import (
	"context"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/models"
	"github.com/urbankisan/backend-go/repository"
)

type CreateReviewInput struct {
	UserID    primitive.ObjectID
	UserName  string
	ProductID primitive.ObjectID
	OrderID   primitive.ObjectID
	Rating    int
	Comment   string
}

type CanReviewResult struct {
	CanReview bool   `json:"canReview"`
	OrderID   string `json:"orderId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ReviewView is a review annotated with vote counts and the caller's vote.
type ReviewView struct {
	models.Review
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	UserVote  string `json:"userVote,omitempty"`
}

type ReviewService interface {
	Create(ctx context.Context, in CreateReviewInput) (*models.Review, *ServiceError)
	CanReview(ctx context.Context, userID, productID primitive.ObjectID) (*CanReviewResult, *ServiceError)
	// ListByProduct is public; requesterID may be the zero ObjectID.
	ListByProduct(ctx context.Context, productID, requesterID primitive.ObjectID) ([]ReviewView, *ServiceError)
	Update(ctx context.Context, id, userID primitive.ObjectID, rating int, comment string) (*models.Review, *ServiceError)
	// Vote toggles the caller's vote: casting a polarity removes the
	// opposite vote, re-casting the same polarity retracts it.
	Vote(ctx context.Context, id, userID primitive.ObjectID, up bool) (*models.VoteState, *ServiceError)
	Delete(ctx context.Context, id primitive.ObjectID) *ServiceError
	List(ctx context.Context, page, limit int64) ([]models.Review, int64, *ServiceError)
	Votes(ctx context.Context, id primitive.ObjectID) (*models.Review, *ServiceError)
}

type reviewService struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{reviews: reviews, orders: orders, products: products, logger: logger}
}

func (s *reviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, *ServiceError) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, errBadRequest("Rating must be between 1 and 5")
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Order not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.Error(err))
		return nil, errInternal("Failed to create review")
	}
	if order.UserID != in.UserID {
		return nil, errForbidden("Not authorized to review this order")
	}
	if order.OrderStatus != models.OrderStatusDelivered {
		return nil, errBadRequest("You can only review products from delivered orders")
	}

	found := false
	for _, item := range order.Items {
		if item.ProductID == in.ProductID {
			found = true
			break
		}
	}
	if !found {
		return nil, errBadRequest("This order does not contain that product")
	}

	exists, err := s.reviews.Exists(ctx, in.UserID, in.ProductID, in.OrderID)
	if err != nil {
		s.logger.Error("review lookup failed", zap.Error(err))
		return nil, errInternal("Failed to create review")
	}
	if exists {
		return nil, errBadRequest("You have already reviewed this product for this order")
	}

	now := time.Now()
	review := &models.Review{
		ID:        primitive.NewObjectID(),
		UserID:    in.UserID,
		UserName:  in.UserName,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		Upvotes:   []primitive.ObjectID{},
		Downvotes: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.reviews.Create(ctx, review)
	if err == repository.ErrDuplicate {
		// Unique index backstop against a racing double-submit.
		return nil, errBadRequest("You have already reviewed this product for this order")
	}
	if err != nil {
		s.logger.Error("review creation failed", zap.Error(err))
		return nil, errInternal("Failed to create review")
	}

	s.recomputeRating(ctx, in.ProductID)
	return review, nil
}

// recomputeRating rewrites the product's derived rating fields from the
// current review set: mean rating rounded to one decimal, 0 when no reviews
// remain.
func (s *reviewService) recomputeRating(ctx context.Context, productID primitive.ObjectID) {
	avg, count, err := s.reviews.Aggregate(ctx, productID)
	if err != nil {
		s.logger.Error("rating aggregation failed", zap.String("productId", productID.Hex()), zap.Error(err))
		return
	}
	rating := math.Round(avg*10) / 10
	if count == 0 {
		rating = 0
	}
	if err := s.products.UpdateRating(ctx, productID, rating, count); err != nil {
		s.logger.Error("rating update failed", zap.String("productId", productID.Hex()), zap.Error(err))
	}
}

func (s *reviewService) CanReview(ctx context.Context, userID, productID primitive.ObjectID) (*CanReviewResult, *ServiceError) {
	order, err := s.orders.FindDeliveredWithProduct(ctx, userID, productID)
	if err == repository.ErrNotFound {
		return &CanReviewResult{CanReview: false, Reason: "No delivered order contains this product"}, nil
	}
	if err != nil {
		s.logger.Error("order lookup failed", zap.Error(err))
		return nil, errInternal("Failed to check review eligibility")
	}

	exists, err := s.reviews.Exists(ctx, userID, productID, order.ID)
	if err != nil {
		s.logger.Error("review lookup failed", zap.Error(err))
		return nil, errInternal("Failed to check review eligibility")
	}
	if exists {
		return &CanReviewResult{CanReview: false, Reason: "You have already reviewed this product"}, nil
	}
	return &CanReviewResult{CanReview: true, OrderID: order.ID.Hex()}, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID, requesterID primitive.ObjectID) ([]ReviewView, *ServiceError) {
	reviews, err := s.reviews.FindByProduct(ctx, productID)
	if err != nil {
		s.logger.Error("failed to list reviews", zap.Error(err))
		return nil, errInternal("Failed to fetch reviews")
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, review := range reviews {
		view := ReviewView{
			Review:    review,
			Upvotes:   len(review.Upvotes),
			Downvotes: len(review.Downvotes),
		}
		if !requesterID.IsZero() {
			if models.HasVote(review.Upvotes, requesterID) {
				view.UserVote = "up"
			} else if models.HasVote(review.Downvotes, requesterID) {
				view.UserVote = "down"
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *reviewService) Update(ctx context.Context, id, userID primitive.ObjectID, rating int, comment string) (*models.Review, *ServiceError) {
	if rating < 1 || rating > 5 {
		return nil, errBadRequest("Rating must be between 1 and 5")
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Review not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch review", zap.Error(err))
		return nil, errInternal("Failed to update review")
	}
	if review.UserID != userID {
		return nil, errForbidden("Not authorized to edit this review")
	}

	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)
	if err := s.reviews.Update(ctx, review); err != nil {
		s.logger.Error("review update failed", zap.Error(err))
		return nil, errInternal("Failed to update review")
	}

	s.recomputeRating(ctx, review.ProductID)
	return review, nil
}

func (s *reviewService) Vote(ctx context.Context, id, userID primitive.ObjectID, up bool) (*models.VoteState, *ServiceError) {
	review, err := s.reviews.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Review not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch review", zap.Error(err))
		return nil, errInternal("Failed to record vote")
	}

	target, opposite := "upvotes", "downvotes"
	targetSet := review.Upvotes
	if !up {
		target, opposite = "downvotes", "upvotes"
		targetSet = review.Downvotes
	}

	// Re-casting the same polarity retracts it; otherwise the vote lands in
	// the target set and leaves the opposite set in one update.
	var updated *models.Review
	if models.HasVote(targetSet, userID) {
		updated, err = s.reviews.Vote(ctx, id, userID, "", target)
	} else {
		updated, err = s.reviews.Vote(ctx, id, userID, target, opposite)
	}
	if err == repository.ErrNotFound {
		return nil, errNotFound("Review not found")
	}
	if err != nil {
		s.logger.Error("vote update failed", zap.Error(err))
		return nil, errInternal("Failed to record vote")
	}

	state := &models.VoteState{
		Upvotes:   len(updated.Upvotes),
		Downvotes: len(updated.Downvotes),
	}
	if models.HasVote(updated.Upvotes, userID) {
		state.UserVote = "up"
	} else if models.HasVote(updated.Downvotes, userID) {
		state.UserVote = "down"
	}
	return state, nil
}

func (s *reviewService) Delete(ctx context.Context, id primitive.ObjectID) *ServiceError {
	review, err := s.reviews.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return errNotFound("Review not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch review", zap.Error(err))
		return errInternal("Failed to delete review")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		s.logger.Error("review deletion failed", zap.Error(err))
		return errInternal("Failed to delete review")
	}

	s.recomputeRating(ctx, review.ProductID)
	return nil
}

func (s *reviewService) List(ctx context.Context, page, limit int64) ([]models.Review, int64, *ServiceError) {
	reviews, total, err := s.reviews.List(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to list reviews", zap.Error(err))
		return nil, 0, errInternal("Failed to fetch reviews")
	}
	return reviews, total, nil
}

func (s *reviewService) Votes(ctx context.Context, id primitive.ObjectID) (*models.Review, *ServiceError) {
	review, err := s.reviews.FindByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errNotFound("Review not found")
	}
	if err != nil {
		s.logger.Error("failed to fetch review", zap.Error(err))
		return nil, errInternal("Failed to fetch review")
	}
	return review, nil
}
