package main

import (
	"os"

	"backend/internal/cache"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GIN_MODE") != "release" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("No configs/.env file found, relying on environment")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Msg("Connected to PostgreSQL successfully")

	// Report cache falls back to a no-op when Redis is not configured.
	var reportCache cache.ReportCache = cache.Noop{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		reportCache = cache.NewRedisCache(client)
		log.Info().Str("addr", addr).Msg("Report cache backed by Redis")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	shopRepo := repository.NewShopRepository(db)
	productRepo := repository.NewProductRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	stockRepo := repository.NewStockRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	returnRepo := repository.NewSaleReturnRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	reportRepo := repository.NewReportRepository(db)

	notifier := service.NewNotifier(wsHub, reportCache)

	shopService := service.NewShopService(shopRepo, txManager)
	productService := service.NewProductService(productRepo, stockRepo, txManager)
	supplierService := service.NewSupplierService(supplierRepo)
	stockService := service.NewStockService(stockRepo, productRepo, shopRepo, adjustmentRepo, txManager, notifier)
	purchaseService := service.NewPurchaseService(purchaseRepo, productRepo, supplierRepo, shopRepo, stockRepo, txManager, notifier)
	saleService := service.NewSaleService(saleRepo, returnRepo, productRepo, shopRepo, stockRepo, txManager, notifier)
	transferService := service.NewTransferService(transferRepo, shopRepo, productRepo, stockRepo, txManager, notifier)
	expenseService := service.NewExpenseService(expenseRepo)
	reportService := service.NewReportService(reportRepo, expenseRepo, reportCache)

	// Initialize Handlers
	shopHandler := handler.NewShopHandler(shopService)
	productHandler := handler.NewProductHandler(productService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	stockHandler := handler.NewStockHandler(stockService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	saleHandler := handler.NewSaleHandler(saleService)
	transferHandler := handler.NewTransferHandler(transferService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	reportHandler := handler.NewReportHandler(reportService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for live stock events
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	shopHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	supplierHandler.RegisterRoutes(router.Group(""))
	stockHandler.RegisterRoutes(router.Group(""))
	purchaseHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	expenseHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("Server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
