package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/urbankisan/backend-go/config"
	"github.com/urbankisan/backend-go/database"
	"github.com/urbankisan/backend-go/handlers"
	"github.com/urbankisan/backend-go/logger"
	"github.com/urbankisan/backend-go/metrics"
	"github.com/urbankisan/backend-go/repository"
	"github.com/urbankisan/backend-go/routes"
	"github.com/urbankisan/backend-go/services"
)

func main() {
	config.LoadEnv()
	logger.Init()
	defer logger.Log.Sync()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.Middleware)

	if err := database.ConnectDB(); err != nil {
		logger.Log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	if err := database.ConnectRedis(); err != nil {
		logger.Log.Fatal("failed to connect to Redis", zap.Error(err))
	}

	productRepo := repository.NewProductRepository(database.DB)
	orderRepo := repository.NewOrderRepository(database.DB)
	couponRepo := repository.NewCouponRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)
	notificationRepo := repository.NewNotificationRepository(database.DB)

	notificationSvc := services.NewNotificationService(notificationRepo, logger.Log)
	couponSvc := services.NewCouponService(couponRepo, orderRepo, logger.Log)
	orderSvc := services.NewOrderService(orderRepo, productRepo, couponSvc, notificationSvc, logger.Log)
	reviewSvc := services.NewReviewService(reviewRepo, orderRepo, productRepo, logger.Log)

	routes.SetupRoutes(e, routes.Handlers{
		Orders:        handlers.NewOrderHandler(orderSvc),
		Coupons:       handlers.NewCouponHandler(couponSvc),
		Reviews:       handlers.NewReviewHandler(reviewSvc),
		Notifications: handlers.NewNotificationHandler(notificationSvc),
	})
	e.GET("/metrics", metrics.Handler())

	port := config.GetEnv("PORT", "5000")
	logger.Log.Info("server starting", zap.String("port", port))
	e.Logger.Fatal(e.Start(":" + port))
}
