package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"
)

// SetupRoutes настраивает маршруты Reviews Service.
// Чтение отзывов по товару открыто, все остальные операции
// требуют аутентификации.
func SetupRoutes(reviewHandler *ReviewHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("reviews-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "reviews-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reviews := router.Group("/reviews")
	{
		reviews.GET("/product/:product_id", reviewHandler.GetReviewsByProduct)

		authenticated := reviews.Group("")
		authenticated.Use(authMiddleware.Authenticate())
		{
			authenticated.POST("", reviewHandler.CreateReview)
			authenticated.GET("/my", reviewHandler.GetMyReviews)
			authenticated.GET("/:review_id", reviewHandler.GetReview)
			authenticated.PATCH("/:review_id", reviewHandler.UpdateReview)
			authenticated.DELETE("/:review_id", reviewHandler.DeleteReview)
		}
	}

	return router
}
