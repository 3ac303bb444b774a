package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"frontdesk-backend/config"
	"frontdesk-backend/controllers"
	"frontdesk-backend/routes"
	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET environment variable is not set")
	}

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	db := config.DB
	logger.Info("database connection established, migrations applied")

	// Optional plan cache; planning works without it
	var cache *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, plan caching disabled", zap.Error(err))
			cache = nil
		}
	}

	// Services
	availabilityService := services.NewAvailabilityService(db, logger)
	auditService := services.NewAuditService(db, logger)
	reservationService := services.NewReservationService(db, logger, availabilityService, auditService)
	allocationService := services.NewAllocationService(db, logger, availabilityService, reservationService, cache)
	extractionService := services.NewExtractionService(
		utils.EnvOrDefault("EXTRACTION_API_URL", "http://localhost:9090"),
		os.Getenv("EXTRACTION_API_KEY"),
		logger,
	)
	roomService := services.NewRoomService(db)
	roomTypeService := services.NewRoomTypeService(db)
	reportService := services.NewReportService(db, logger)
	adminService := services.NewAdminService(db)

	// Controllers
	authController := controllers.NewAuthController(adminService, jwtSecret)
	reservationController := controllers.NewReservationController(reservationService, allocationService, extractionService, auditService, logger)
	allocationController := controllers.NewAllocationController(allocationService)
	roomController := controllers.NewRoomController(roomService)
	roomTypeController := controllers.NewRoomTypeController(roomTypeService)
	reportController := controllers.NewReportController(reportService)

	router := routes.SetupRouter(
		logger,
		jwtSecret,
		authController,
		reservationController,
		allocationController,
		roomController,
		roomTypeController,
		reportController,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}
