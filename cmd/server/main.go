package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/config"
	"github.com/tripdesk/pms-backend/internal/database"
	"github.com/tripdesk/pms-backend/internal/handlers"
	"github.com/tripdesk/pms-backend/internal/logging"
	"github.com/tripdesk/pms-backend/internal/middleware"
	"github.com/tripdesk/pms-backend/internal/services"
	"github.com/tripdesk/pms-backend/pkg/jwt"
	"github.com/tripdesk/pms-backend/pkg/media"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Server.LogLevel, cfg.Logging)
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting TripDesk PMS Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Media URL signing, cached in Redis when configured
	var signer services.URLSigner = media.NewSigner(cfg.Media.BaseURL, cfg.Media.SigningSecret, cfg.Media.URLTTL)
	if cfg.Redis.Enabled() {
		redisClient := media.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unavailable, signed URLs will not be cached until it recovers")
		}
		cancel()

		signer = media.NewCachedSigner(signer, redisClient, cfg.Media.CacheTTL, logger)
		logger.WithField("addr", cfg.Redis.Addr).Info("Signed URL cache enabled")
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	var auditRecorder services.AuditRecorder
	if cfg.Security.EnableAuditLog {
		auditRecorder = services.NewAuditService(db, logger)
	}

	uow := services.NewSQLUnitOfWork(database.NewTxManager(db))
	queryService := services.NewItineraryQueryService(uow.Repos(), signer, logger)
	itineraryService := services.NewItineraryService(uow, auditRecorder, logger)
	bookingService := services.NewBookingService(uow, queryService, auditRecorder, logger)
	dashboardService := services.NewDashboardService(database.NewDashboardRepository(db), logger)
	tripSheetService := services.NewTripSheetService(queryService.GetItinerary, logger)

	// Initialize handlers
	itineraryHandler := handlers.NewItineraryHandler(itineraryService, queryService, tripSheetService, logger)
	bookingHandler := handlers.NewBookingHandler(queryService, bookingService, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	auth := middleware.AuthMiddleware(jwtService, logger)
	adminOnly := middleware.RequireRole("ADMIN")

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		pms := v1.Group("/pms")
		{
			// Public reads
			pms.GET("", itineraryHandler.ListItineraries)
			pms.GET("/bookings", bookingHandler.ListBookings)
			pms.GET("/vehicle-bookings", bookingHandler.ListVehicleBookings)
			pms.GET("/vehicle-bookings/:id", bookingHandler.GetVehicleBooking)
			pms.GET("/:id", itineraryHandler.GetItinerary)
			pms.GET("/:id/trip-sheet", itineraryHandler.GetTripSheet)

			// Admin writes
			pms.POST("", auth, adminOnly, itineraryHandler.CreateItinerary)
			pms.PATCH("/:id", auth, adminOnly, itineraryHandler.UpdateItinerary)
			pms.DELETE("/:id", auth, adminOnly, itineraryHandler.RemoveItinerary)
			pms.GET("/bookings/:id", auth, adminOnly, bookingHandler.GetBooking)
			pms.PATCH("/bookings/:id", auth, adminOnly, bookingHandler.UpdateBooking)
			pms.POST("/vehicle-bookings/:id/cancel", auth, adminOnly, bookingHandler.CancelVehicleBooking)
		}

		v1.GET("/dashboard", auth, adminOnly, dashboardHandler.GetDashboard)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}
		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
			fields["roles"] = userCtx.Roles
		}

		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}

// gin-contrib/cors rejects AllowCredentials together with a wildcard origin
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
