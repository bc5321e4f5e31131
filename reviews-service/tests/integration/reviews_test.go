//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"lemuel/reviews-service/internal/app/reviews/entity"
	"lemuel/reviews-service/internal/app/reviews/repository"
	"lemuel/reviews-service/internal/app/reviews/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockKafkaProducer struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockKafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	return nil
}

func (m *MockKafkaProducer) Close() error { return nil }

// ReviewsIntegrationTestSuite гоняет сервис отзывов против настоящего MongoDB.
// Перед каждым тестом коллекция reviews пересоздается вместе с индексами.
type ReviewsIntegrationTestSuite struct {
	suite.Suite
	client        *mongo.Client
	db            *mongo.Database
	reviewService *service.ReviewService
	kafkaProducer *MockKafkaProducer
}

func TestReviewsIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ReviewsIntegrationTestSuite))
}

func (s *ReviewsIntegrationTestSuite) SetupSuite() {
	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "reviews_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)
	s.Require().NoError(s.client.Ping(ctx, nil))

	s.db = s.client.Database(dbName)
}

func (s *ReviewsIntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = s.db.Drop(ctx)
	_ = s.client.Disconnect(ctx)
}

func (s *ReviewsIntegrationTestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.Require().NoError(s.db.Collection("reviews").Drop(ctx))

	// Репозиторий создается после очистки, чтобы индексы пересоздались
	reviewRepo := repository.NewReviewRepository(s.db)
	s.kafkaProducer = &MockKafkaProducer{Messages: make([][]byte, 0)}
	s.reviewService = service.NewReviewService(reviewRepo, s.kafkaProducer)
}

func (s *ReviewsIntegrationTestSuite) createReview(userID, productID string, rating int, content string) *entity.Review {
	review, err := s.reviewService.CreateReview(context.Background(), userID, &entity.CreateReviewRequest{
		ProductID: productID,
		Rating:    rating,
		Content:   content,
	})
	s.Require().NoError(err)
	return review
}

// ===================== Create Tests =====================

func (s *ReviewsIntegrationTestSuite) TestCreateReview_PersistsAndPublishes() {
	userID := uuid.NewString()
	productID := uuid.NewString()

	review := s.createReview(userID, productID, 5, "Great product, works perfectly!")

	s.False(review.ID.IsZero())
	s.Equal(userID, review.UserID)
	s.WithinDuration(time.Now(), review.CreatedAt, 5*time.Second)
	s.Len(s.kafkaProducer.Messages, 1)

	stored, err := s.reviewService.GetReview(context.Background(), review.ID.Hex())
	s.Require().NoError(err)
	s.Equal(5, stored.Rating)
	s.Equal("Great product, works perfectly!", stored.Content)
}

func (s *ReviewsIntegrationTestSuite) TestCreateReview_SecondReviewSameProductRejected() {
	userID := uuid.NewString()
	productID := uuid.NewString()

	s.createReview(userID, productID, 5, "My first and only review.")

	_, err := s.reviewService.CreateReview(context.Background(), userID, &entity.CreateReviewRequest{
		ProductID: productID,
		Rating:    1,
		Content:   "Trying to post a second one.",
	})
	s.ErrorIs(err, service.ErrDuplicateReview)

	// Другой пользователь может оставить отзыв на тот же товар
	another := s.createReview(uuid.NewString(), productID, 4, "A different customer's view.")
	s.False(another.ID.IsZero())
}

// ===================== Product Listing Tests =====================

func (s *ReviewsIntegrationTestSuite) TestGetProductReviews_AverageRating() {
	productID := uuid.NewString()

	s.createReview(uuid.NewString(), productID, 5, "Absolutely love this product.")
	s.createReview(uuid.NewString(), productID, 4, "Pretty good, minor issues.")
	s.createReview(uuid.NewString(), productID, 3, "Average product, nothing special.")

	// Отзыв на другой товар в выборку не попадает
	s.createReview(uuid.NewString(), uuid.NewString(), 1, "Review for another product.")

	response, err := s.reviewService.GetProductReviews(context.Background(), productID)
	s.Require().NoError(err)

	s.Equal(3, response.Total)
	s.InDelta(4.0, response.AverageRating, 0.001)
}

func (s *ReviewsIntegrationTestSuite) TestGetProductReviews_NoReviews() {
	response, err := s.reviewService.GetProductReviews(context.Background(), uuid.NewString())
	s.Require().NoError(err)

	s.Equal(0, response.Total)
	s.Equal(0.0, response.AverageRating)
}

// ===================== Update/Delete Tests =====================

func (s *ReviewsIntegrationTestSuite) TestUpdateReview_OnlyAuthor() {
	userID := uuid.NewString()
	review := s.createReview(userID, uuid.NewString(), 3, "It was okay at first glance.")

	updated, err := s.reviewService.UpdateReview(context.Background(), review.ID.Hex(), userID, &entity.UpdateReviewRequest{
		Rating:  5,
		Content: "Changed my mind, excellent product!",
	})
	s.Require().NoError(err)
	s.Equal(5, updated.Rating)

	// Чужой пользователь получает отказ
	_, err = s.reviewService.UpdateReview(context.Background(), review.ID.Hex(), uuid.NewString(), &entity.UpdateReviewRequest{
		Rating: 1,
	})
	s.ErrorIs(err, service.ErrUnauthorized)

	stored, err := s.reviewService.GetReview(context.Background(), review.ID.Hex())
	s.Require().NoError(err)
	s.Equal(5, stored.Rating)
}

func (s *ReviewsIntegrationTestSuite) TestDeleteReview_OnlyAuthor() {
	userID := uuid.NewString()
	productID := uuid.NewString()
	review := s.createReview(userID, productID, 2, "Disappointed with the quality.")

	err := s.reviewService.DeleteReview(context.Background(), review.ID.Hex(), uuid.NewString())
	s.ErrorIs(err, service.ErrUnauthorized)

	s.Require().NoError(s.reviewService.DeleteReview(context.Background(), review.ID.Hex(), userID))

	_, err = s.reviewService.GetReview(context.Background(), review.ID.Hex())
	s.ErrorIs(err, service.ErrReviewNotFound)

	// После удаления пользователь может оставить отзыв заново
	again := s.createReview(userID, productID, 4, "Second chance after replacement.")
	s.False(again.ID.IsZero())
}

// ===================== User Reviews Tests =====================

func (s *ReviewsIntegrationTestSuite) TestGetUserReviews_SortedNewestFirst() {
	userID := uuid.NewString()

	s.createReview(userID, uuid.NewString(), 5, "First review by this user.")
	time.Sleep(10 * time.Millisecond)
	s.createReview(userID, uuid.NewString(), 2, "Second review by this user.")

	reviews, err := s.reviewService.GetUserReviews(context.Background(), userID)
	s.Require().NoError(err)

	s.Require().Len(reviews, 2)
	s.Equal("Second review by this user.", reviews[0].Content)
	s.Equal("First review by this user.", reviews[1].Content)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
