package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/controller"
	"uni_exam_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter() *gin.Engine {
	cfg := &config.Config{}
	cfg.JWT.Secret = "route-shape-test-secret"

	a := &App{}
	c := &controllers{
		exam:    &controller.ExamController{},
		attempt: &controller.AttemptController{},
		teacher: &controller.TeacherController{},
		health:  &controller.HealthController{},
	}
	router := gin.New()
	a.registerRoutes(router, c, cfg)
	return router
}

// 历代客户端的路由形态都必须命中处理链。请求不带凭证，
// 命中的路由被鉴权拦成 401，只有未注册的路径才允许 404。
func TestHistoricalRouteShapes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"complete, current shape", http.MethodPost, "/api/exams/9/participants/42/complete", http.StatusUnauthorized},
		{"complete, legacy exam-less shape", http.MethodPost, "/api/exams/participants/42/complete", http.StatusUnauthorized},
		{"complete, flat participant shape", http.MethodPost, "/api/participants/42/complete", http.StatusUnauthorized},
		{"grade, current shape", http.MethodPost, "/api/exams/9/participants/42/questions/3/grade", http.StatusUnauthorized},
		{"grade, legacy shape", http.MethodPost, "/api/exams/9/questions/3/grade", http.StatusUnauthorized},
		{"register attempt", http.MethodPost, "/api/exams/9/register", http.StatusUnauthorized},
		{"unregistered path", http.MethodPost, "/api/exams/9/not-a-route", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, w.Code)
			}
		})
	}
}
