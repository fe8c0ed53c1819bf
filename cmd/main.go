package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"fabworks/internal/caching"
	"fabworks/internal/handlers"
	"fabworks/internal/jobs/background"
	"fabworks/internal/middleware"
	"fabworks/internal/repositories"
	"fabworks/internal/services"
	"fabworks/pkg/database"
)

const version = "1.0.0"

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // development only
		log.Printf("WARNING: Using generated JWT secret")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "fabworks-documents"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	attachmentSvc, err := services.NewAttachmentService(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize attachment service: %v", err)
	}
	if err := attachmentSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARNING: Could not ensure document bucket exists: %v", err)
	}

	// Repositories
	orderRepo := repositories.NewOrderRepository(pool)
	bomRepo := repositories.NewBOMRepository(pool)
	componentRepo := repositories.NewComponentRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	reservationRepo := repositories.NewReservationRepository(pool)
	issuanceRepo := repositories.NewIssuanceRepository(pool)
	supplierRepo := repositories.NewSupplierRepository(pool)
	purchaseOrderRepo := repositories.NewPurchaseOrderRepository(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Services
	requirementSvc := services.NewRequirementService(orderRepo, bomRepo, componentRepo, reservationRepo, cacheSvc)
	reservationSvc := services.NewReservationService(reservationRepo, inventoryRepo, orderRepo, requirementSvc)
	sourcingSvc := services.NewSourcingService(supplierRepo, purchaseOrderRepo, requirementSvc)
	issuanceSvc := services.NewIssuanceService(issuanceRepo, requirementSvc)

	// Handlers
	requirementHandlers := handlers.NewRequirementHandlers(requirementSvc)
	reservationHandlers := handlers.NewReservationHandlers(reservationSvc)
	sourcingHandlers := handlers.NewSourcingHandlers(sourcingSvc)
	issuanceHandlers := handlers.NewIssuanceHandlers(issuanceSvc, attachmentSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Background jobs
	jobScheduler := background.NewJobScheduler(requirementSvc, orderRepo)
	if err := jobScheduler.Start(); err != nil {
		log.Printf("WARNING: Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := jobScheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}

	v1 := e.Group("/v1")
	v1.Use(echojwt.WithConfig(jwtConfig))
	v1.Use(middleware.LoadIdentity())

	// Requirement views
	v1.GET("/orders/:id/requirements", requirementHandlers.GetRequirements)
	v1.GET("/orders/:id/requirements/flat", requirementHandlers.GetFlatRequirements)
	v1.GET("/components/:id/status", requirementHandlers.GetComponentStatus)
	v1.PUT("/preferences/coverage", requirementHandlers.SetCoveragePreference)

	// Sourcing and purchase orders
	v1.GET("/orders/:id/sourcing", sourcingHandlers.GetSourcing)
	v1.POST("/orders/:id/purchase-orders", sourcingHandlers.CreatePurchaseOrders)

	// Finished-goods reservations
	v1.GET("/orders/:id/reservations", reservationHandlers.ListReservations)
	v1.POST("/orders/:id/reservations", reservationHandlers.Reserve)
	v1.POST("/reservations/:id/release", reservationHandlers.Release)
	v1.POST("/reservations/:id/consume", reservationHandlers.Consume)

	// Stock issuance ledger
	v1.GET("/orders/:id/issuances", issuanceHandlers.GetIssuances)
	v1.POST("/orders/:id/issuances", issuanceHandlers.Issue)
	v1.POST("/issuances/:id/reverse", issuanceHandlers.Reverse)
	v1.GET("/issuances/:id/reversals", issuanceHandlers.ListReversals)
	v1.POST("/issuances/:id/documents", issuanceHandlers.UploadDocument)
	v1.GET("/issuances/:id/documents/:name/url", issuanceHandlers.GetDocumentURL)

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Fabworks server v%s starting on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
