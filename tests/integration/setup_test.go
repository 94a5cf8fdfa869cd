package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vaultadmin/internal/config"
	"vaultadmin/internal/handlers"
	"vaultadmin/internal/logger"
	"vaultadmin/internal/middleware"
	"vaultadmin/internal/models"
	"vaultadmin/internal/services"
	"vaultadmin/internal/testutil"
	"vaultadmin/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)

	// Services
	userService := services.NewUserService(db)
	recorder := services.NewAuditRecorder(db)
	searchService := services.NewAuditSearchService(db)
	analyticsService := services.NewAnalyticsService(db)
	archiveService := services.NewArchiveService(db)
	savedSearchService := services.NewSavedSearchService(db)
	exportService := services.NewExportService(db, recorder, config.Get().ExportMaxRows)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, recorder)
	auditLogHandler := handlers.NewAuditLogHandler(searchService, exportService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	archiveHandler := handlers.NewArchiveHandler(archiveService, recorder)
	savedSearchHandler := handlers.NewSavedSearchHandler(savedSearchService, searchService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.Use(middleware.TenantResolver(db))

	protected.GET("/profile", authHandler.GetProfile)

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

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// seedOperator creates an active operator account with the given role directly
// through the user service and logs it in, returning the user and a token.
func (app *testApp) seedOperator(t *testing.T, role string, tenantID *string) (*models.User, string) {
	t.Helper()

	email := fmt.Sprintf("op%s@test.com", strings.ToLower(role))
	userService := services.NewUserService(app.DB)
	user, err := userService.CreateUser(email, "password123", "Operator", role, tenantID)
	if err != nil {
		t.Fatalf("failed to seed operator: %v", err)
	}

	body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, email)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	token, _ := result["token"].(string)
	if token == "" {
		t.Fatal("expected a token from login")
	}
	return user, token
}
