package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"
)

// SetupRoutes настраивает все маршруты Orders Service с использованием Gin.
// Заказы и платежи доступны аутентифицированным пользователям,
// возвраты - только администраторам. Idempotency-Key обязателен для
// всех операций возврата.
func SetupRoutes(
	orderHandler *OrderHandler,
	paymentHandler *PaymentHandler,
	refundHandler *RefundHandler,
	authMiddleware *AuthMiddleware,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("orders-service"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint - публичный, без аутентификации
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "orders-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orders := router.Group("/orders")
	orders.Use(authMiddleware.Authenticate())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/user/:userId", orderHandler.GetUserOrders)
		orders.PATCH("/:id/cancel", orderHandler.CancelOrder)
	}

	payments := router.Group("/payments")
	payments.Use(authMiddleware.Authenticate())
	{
		payments.POST("", paymentHandler.CreatePayment)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.PATCH("/:id/authorize", paymentHandler.AuthorizePayment)
		payments.PATCH("/:id/capture", paymentHandler.CapturePayment)
		payments.PATCH("/:id/cancel", paymentHandler.CancelPayment)

		// Callbacks подтверждения Toss Payments
		payments.POST("/toss/confirm", paymentHandler.ConfirmTossPayment)
		payments.POST("/toss/cart/confirm", paymentHandler.ConfirmTossCartPayment)
	}

	// Возвраты проводят только администраторы
	refunds := router.Group("/refunds")
	refunds.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(entity.RoleAdmin))
	{
		refunds.POST("/:paymentId", refundHandler.CreateRefund)
		refunds.POST("/full/:paymentId", refundHandler.ProcessFullRefund)
		refunds.POST("/partial/:paymentId", refundHandler.ProcessPartialRefund)
	}

	return router
}
