package main

import (
	"fmt"
	"net/http"
	"os"

	"vaultadmin/internal/config"
	"vaultadmin/internal/database"
	"vaultadmin/internal/handlers"
	"vaultadmin/internal/logger"
	"vaultadmin/internal/middleware"
	"vaultadmin/internal/services"
	"vaultadmin/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "vaultadmin/internal/docs" // Import swagger docs
)

// @title           Vaultadmin API
// @version         1.0
// @description     Administrative console API for the vault product: audit log search, analytics, archival, saved searches, and compliance exports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	recorder := services.NewAuditRecorder(db)
	searchService := services.NewAuditSearchService(db)
	analyticsService := services.NewAnalyticsService(db)
	archiveService := services.NewArchiveService(db)
	savedSearchService := services.NewSavedSearchService(db)
	exportService := services.NewExportService(db, recorder, appConfig.ExportMaxRows)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, recorder)
	auditLogHandler := handlers.NewAuditLogHandler(searchService, exportService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	archiveHandler := handlers.NewArchiveHandler(archiveService, recorder)
	savedSearchHandler := handlers.NewSavedSearchHandler(savedSearchService, searchService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)

	// Protected routes: authenticated, tenant scope resolved once
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.Use(middleware.TenantResolver(db))

	protected.GET("/profile", authHandler.GetProfile)

	// Audit routes additionally require audit visibility
	audit := protected.Group("/")
	audit.Use(middleware.RequireAuditVisibility())

	auditLogs := audit.Group("/audit-logs")
	auditLogs.GET("", auditLogHandler.Search)
	auditLogs.POST("/search", auditLogHandler.AdvancedSearch)
	auditLogs.GET("/recent", auditLogHandler.GetRecent)
	auditLogs.GET("/stats", analyticsHandler.GetStats)
	auditLogs.GET("/trend", analyticsHandler.GetTrend)
	auditLogs.GET("/export", auditLogHandler.Export)
	auditLogs.POST("/archive", archiveHandler.ArchiveLogs)
	auditLogs.GET("/archives", archiveHandler.GetArchives)

	savedSearches := audit.Group("/saved-searches")
	savedSearches.POST("", savedSearchHandler.Create)
	savedSearches.GET("", savedSearchHandler.List)
	savedSearches.DELETE("/:id", savedSearchHandler.Delete)
	savedSearches.POST("/:id/execute", savedSearchHandler.Execute)

	log.Infof("Starting vaultadmin backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
