package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testSecret = "auth-middleware-test-secret"

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newProtectedRouter() *gin.Engine {
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret

	r := gin.New()
	r.GET("/protected", AuthMiddleware(cfg), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "role": claims.Role})
	})
	return r
}

func mintToken(t *testing.T, role model.UserRole, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := util.GenerateJWT(42, role, "s42@campus.edu", secret, ttl)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	router := newProtectedRouter()

	tests := []struct {
		name  string
		setup func(t *testing.T, req *http.Request)
		want  int
	}{
		{
			name:  "no credentials",
			setup: func(t *testing.T, req *http.Request) {},
			want:  http.StatusUnauthorized,
		},
		{
			name: "valid bearer token",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+mintToken(t, model.Student, testSecret, time.Hour))
			},
			want: http.StatusOK,
		},
		{
			name: "token via query parameter",
			setup: func(t *testing.T, req *http.Request) {
				q := req.URL.Query()
				q.Set("token", mintToken(t, model.Student, testSecret, time.Hour))
				req.URL.RawQuery = q.Encode()
			},
			want: http.StatusOK,
		},
		{
			name: "expired token",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+mintToken(t, model.Student, testSecret, -time.Hour))
			},
			want: http.StatusUnauthorized,
		},
		{
			name: "token signed with a different secret",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+mintToken(t, model.Student, "some-other-secret-entirely", time.Hour))
			},
			want: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setup(t, req)
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	newRouter := func(claims *util.Claims, required ...model.UserRole) *gin.Engine {
		r := gin.New()
		r.GET("/teacher-only",
			func(c *gin.Context) { c.Set("user", claims) },
			RoleMiddleware(required...),
			func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	tests := []struct {
		name string
		role model.UserRole
		want int
	}{
		{"teacher allowed", model.Teacher, http.StatusOK},
		{"admin always allowed", model.Admin, http.StatusOK},
		{"student forbidden", model.Student, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&util.Claims{UserID: 7, Role: tt.role}, model.Teacher)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/teacher-only", nil)
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("role %s: expected status %d, got %d", tt.role, tt.want, w.Code)
			}
		})
	}
}
