package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"
)

// SetupRoutes настраивает все маршруты Catalog Service с использованием Gin.
// Чтение каталога публичное, запись только для администраторов.
func SetupRoutes(
	productHandler *ProductHandler,
	categoryHandler *CategoryHandler,
	tagHandler *TagHandler,
	authMiddleware *AuthMiddleware,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("catalog-service"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint - публичный, без аутентификации
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "catalog-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Products: чтение публичное, запись только для администраторов
		products := api.Group("/products")
		{
			products.GET("", productHandler.GetAllProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/images", productHandler.GetImages)

			adminProducts := products.Group("")
			adminProducts.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(RoleAdmin))
			{
				adminProducts.POST("", productHandler.CreateProduct)
				adminProducts.PUT("/:id", productHandler.UpdateProductInfo)
				adminProducts.PATCH("/:id/price", productHandler.UpdateProductPrice)
				adminProducts.PATCH("/:id/stock", productHandler.UpdateProductStock)
				adminProducts.POST("/:id/activate", productHandler.ActivateProduct)
				adminProducts.POST("/:id/deactivate", productHandler.DeactivateProduct)
				adminProducts.POST("/:id/discontinue", productHandler.DiscontinueProduct)

				adminProducts.POST("/:id/images", productHandler.AttachImage)
				adminProducts.PUT("/:id/images/order", productHandler.ReorderImages)
				adminProducts.DELETE("/:id/images/:imageId", productHandler.DeleteImage)

				adminProducts.POST("/:id/tags/:tagId", productHandler.AttachTag)
				adminProducts.DELETE("/:id/tags/:tagId", productHandler.DetachTag)
			}
		}

		// Categories: публичное чтение, плоский список и дерево
		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandler.GetAllCategories)
			categories.GET("/tree", categoryHandler.GetCategoryTree)
			categories.GET("/slug/:slug", categoryHandler.GetCategoryBySlug)
			categories.GET("/:id", categoryHandler.GetCategory)
		}

		// Tags: чтение публичное, запись только для администраторов
		tags := api.Group("/tags")
		{
			tags.GET("", tagHandler.GetAllTags)
			tags.GET("/:id", tagHandler.GetTag)

			adminTags := tags.Group("")
			adminTags.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(RoleAdmin))
			{
				adminTags.POST("", tagHandler.CreateTag)
				adminTags.PUT("/:id", tagHandler.UpdateTag)
				adminTags.DELETE("/:id", tagHandler.DeleteTag)
			}
		}
	}

	// Admin эндпоинты управления категориями
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.Use(authMiddleware.RequireRole(RoleAdmin))
	{
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
	}

	return router
}
