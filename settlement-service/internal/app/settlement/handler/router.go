package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"
	"lemuel/settlement-service/internal/app/settlement/entity"
)

// SetupRoutes настраивает все маршруты Settlement Service.
// Поиск и чтение доступны аутентифицированным пользователям,
// цикл утверждения, батч и расписания - только администраторам.
func SetupRoutes(
	settlementHandler *SettlementHandler,
	scheduleHandler *ScheduleHandler,
	authMiddleware *AuthMiddleware,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("settlement-service"))

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
			"service": "settlement-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	settlements := api.Group("/settlements")
	settlements.Use(authMiddleware.Authenticate())
	{
		settlements.GET("/search", settlementHandler.SearchGet)
		settlements.POST("/search", settlementHandler.SearchPost)

		// Статические маршруты до параметризованного :id
		settlements.GET("/waiting", authMiddleware.RequireRole(entity.RoleAdmin), settlementHandler.ListWaiting)
		settlements.POST("/batch", authMiddleware.RequireRole(entity.RoleAdmin), settlementHandler.RunBatch)

		settlements.GET("/:id", settlementHandler.GetSettlement)
		settlements.PATCH("/:id/submit", authMiddleware.RequireRole(entity.RoleAdmin), settlementHandler.Submit)
		settlements.PATCH("/:id/approve", authMiddleware.RequireRole(entity.RoleAdmin), settlementHandler.Approve)
		settlements.PATCH("/:id/reject", authMiddleware.RequireRole(entity.RoleAdmin), settlementHandler.Reject)
		settlements.PATCH("/:id/confirm", authMiddleware.RequireRole(entity.RoleAdmin), settlementHandler.Confirm)
	}

	// Расписания батча меняют только администраторы
	schedules := api.Group("/schedules")
	schedules.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(entity.RoleAdmin))
	{
		schedules.POST("", scheduleHandler.CreateSchedule)
		schedules.GET("", scheduleHandler.ListSchedules)
		schedules.POST("/reload", scheduleHandler.ReloadSchedules)
		schedules.GET("/:id", scheduleHandler.GetSchedule)
		schedules.PUT("/:id", scheduleHandler.UpdateSchedule)
		schedules.PATCH("/:id/toggle", scheduleHandler.ToggleSchedule)
		schedules.DELETE("/:id", scheduleHandler.DeleteSchedule)
	}

	return router
}
