package service

import (
	"context"

	"lemuel/reviews-service/internal/app/reviews/entity"
)

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, userID string, req *entity.CreateReviewRequest) (*entity.Review, error)
	GetProductReviews(ctx context.Context, productID string) (*entity.ProductReviewsResponse, error)
	GetReview(ctx context.Context, reviewID string) (*entity.Review, error)
	UpdateReview(ctx context.Context, reviewID string, userID string, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID string, userID string) error
	GetUserReviews(ctx context.Context, userID string) ([]entity.Review, error)
}
