package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridepool/service-trip/internal/common/auth"
)

func newRouter(jwtManager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/drivers", AuthMiddleware(jwtManager), RequireRole(auth.RoleDriver), func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := newRouter(jwtManager)

	driverID := uuid.New()
	driverToken, err := jwtManager.GenerateAccessToken(driverID, auth.RoleDriver)
	require.NoError(t, err)
	riderToken, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleRider)
	require.NoError(t, err)
	adminToken, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"invalid", "Bearer abc", http.StatusUnauthorized},
		{"driver", "Bearer " + driverToken, http.StatusOK},
		{"rider", "Bearer " + riderToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/drivers", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestAuthMiddleware_SetsUserID(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := newRouter(jwtManager)

	driverID := uuid.New()
	token, err := jwtManager.GenerateAccessToken(driverID, auth.RoleDriver)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/drivers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, driverID.String(), w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}
