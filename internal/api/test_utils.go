package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/habitloop/habitloop-backend/internal/database"
	"github.com/habitloop/habitloop-backend/internal/middleware"
	"github.com/habitloop/habitloop-backend/internal/models"
	"github.com/habitloop/habitloop-backend/internal/service"
)

// testEnv wires the full handler stack over an in-memory database, without
// Redis and without rate limiting.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	auth   *service.AuthService
	audit  *service.AuditService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	require.NoError(t, database.AutoMigrate(db))

	authService := service.NewAuthService(db, "test-secret")
	metricsService := service.NewMetricsService(db, nil)
	planService := service.NewPlanService(db, metricsService)
	auditService := service.NewAuditService(db)
	profileService := service.NewProfileService(db, service.NewRecomputeService(db), auditService)

	router := gin.New()
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	NewAuthHandler(authService).RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	NewPlanHandler(planService).RegisterRoutes(protected, nil)
	NewMetricsHandler(metricsService).RegisterRoutes(protected)
	NewProfileHandler(profileService).RegisterRoutes(protected)

	return &testEnv{
		db:     db,
		router: router,
		auth:   authService,
		audit:  auditService,
	}
}

// registerUser creates an account through the service layer and returns its
// token and ID.
func (e *testEnv) registerUser(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	token, err := e.auth.Register(context.Background(), "Test User", email, "password123")
	require.NoError(t, err)
	claims, err := e.auth.ValidateToken(token)
	require.NoError(t, err)
	return token, claims.UserID
}

// completeOnboarding fills in the full metric profile for a registered user.
func (e *testEnv) completeOnboarding(t *testing.T, userID uuid.UUID) {
	t.Helper()
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	weight, height, target := 80.0, 180.0, 72.0
	err := e.db.Model(&models.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"date_of_birth":        dob,
			"sex":                  "male",
			"height_cm":            height,
			"weight_kg":            weight,
			"target_weight_kg":     target,
			"activity_level":       "moderately_active",
			"primary_goal":         "lose_weight",
			"onboarding_completed": true,
		}).Error
	require.NoError(t, err)
}

// doRequest performs an HTTP request against the test router. body is
// marshaled to JSON when non-nil; token, when set, goes into the
// Authorization header.
func (e *testEnv) doRequest(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}
