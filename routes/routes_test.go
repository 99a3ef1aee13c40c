package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/app"
	"github.com/agentfleet/control-plane/config"
	"github.com/agentfleet/control-plane/handlers"
	"github.com/agentfleet/control-plane/middleware"
)

func testDeps(t *testing.T) *app.Dependencies {
	t.Helper()
	logger := zap.NewNop()
	return &app.Dependencies{
		Config: &config.Config{
			Auth: config.AuthConfig{Secret: "route-test-secret"},
		},
		Logger:          logger,
		AuthMiddleware:  middleware.NewAuthMiddleware("route-test-secret", logger),
		TicketHandler:   handlers.NewTicketHandler(nil, logger),
		JobHandler:      handlers.NewJobHandler(nil, logger),
		ApprovalHandler: handlers.NewApprovalHandler(nil, logger),
		AuditHandler:    handlers.NewAuditHandler(nil, logger),
		HealthHandler:   handlers.NewHealthHandler(nil, logger),
	}
}

func TestRouteSurface(t *testing.T) {
	router := SetupRoutes(testDeps(t))

	t.Run("healthz is public", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("v1 requires authentication", func(t *testing.T) {
		for _, path := range []string{"/v1/tickets", "/v1/jobs/job_1", "/v1/approvals", "/v1/audit"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED", path)
		}
	})

	t.Run("unknown route returns json 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v2/nothing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})

	t.Run("event stream is reserved", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("route-test-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}
