package main

import (
	"time"

	"printerp-service/internal/handler"
	"printerp-service/internal/middleware"
	"printerp-service/pkg/cache"
	"printerp-service/pkg/config"
	"printerp-service/pkg/database"
	"printerp-service/pkg/jwtutil"
	"printerp-service/pkg/logger"
	"printerp-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting print ERP service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Optional Redis list cache
	cache.Init(cfg)
	if cache.Enabled() {
		log.Info("Redis cache enabled", zap.String("redis_host", cfg.Redis.Host))
	} else {
		log.Info("Redis cache disabled")
	}

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.Middleware())

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := c.Response().Status

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Supplier endpoints
	suppliers := api.Group("/suppliers")
	suppliers.POST("", handler.CreateSupplier)
	suppliers.GET("", handler.ListSuppliers)
	suppliers.GET("/:id", handler.GetSupplier)
	suppliers.PUT("/:id", handler.UpdateSupplier)
	suppliers.DELETE("/:id", handler.DeleteSupplier)

	// Client endpoints
	clients := api.Group("/clients")
	clients.POST("", handler.CreateClient)
	clients.GET("", handler.ListClients)
	clients.GET("/:id", handler.GetClient)
	clients.PUT("/:id", handler.UpdateClient)
	clients.DELETE("/:id", handler.DeleteClient)

	// Inventory endpoints
	inventory := api.Group("/inventory")
	inventory.POST("", handler.CreateInventoryItem)
	inventory.GET("", handler.ListInventoryItems)
	inventory.GET("/low-stock", handler.ListLowStockItems)
	inventory.GET("/:id", handler.GetInventoryItem)
	inventory.PUT("/:id", handler.UpdateInventoryItem)
	inventory.DELETE("/:id", handler.DeleteInventoryItem)
	inventory.POST("/:id/stock-in", handler.StockIn)
	inventory.POST("/:id/stock-out", handler.StockOut)
	inventory.GET("/:id/transactions", handler.ListInventoryTransactions)

	// Quotation request endpoints
	quotations := api.Group("/quotations")
	quotations.POST("", handler.CreateQuotation)
	quotations.GET("", handler.ListQuotations)
	quotations.GET("/:id", handler.GetQuotation)
	quotations.PUT("/:id", handler.UpdateQuotation)
	quotations.DELETE("/:id", handler.DeleteQuotation)
	quotations.PUT("/:id/status", handler.ChangeQuotationStatus)
	quotations.POST("/:id/convert", handler.ConvertQuotation)

	// Supplier order endpoints
	orders := api.Group("/orders")
	orders.POST("", handler.CreateOrder)
	orders.GET("", handler.ListOrders)
	orders.GET("/:id", handler.GetOrder)
	orders.PUT("/:id", handler.UpdateOrder)
	orders.DELETE("/:id", handler.DeleteOrder)
	orders.PUT("/:id/status", handler.ChangeOrderStatus)
	orders.POST("/:id/receive", handler.ReceiveOrderItems)
	orders.POST("/:id/payments", handler.RecordOrderPayment)
	orders.GET("/:id/payments", handler.ListOrderPayments)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
