package app

import (
	"uni_exam_backend/docs"
	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/middleware"
	"uni_exam_backend/internal/model"

	"uni_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(authGroup *gin.RouterGroup, c *controllers) {
	exams := authGroup.Group("/exams")
	{
		exams.GET("", c.exam.ListExams)
		exams.GET("/upcoming", c.exam.UpcomingExams)
		exams.GET("/history", c.attempt.History)
		exams.GET("/:id", c.exam.GetExam)

		// attempt 生命周期
		exams.POST("/:id/register", c.attempt.Register)
		exams.POST("/:id/start", c.attempt.Start)
		exams.GET("/:id/attempts", c.attempt.AttemptsInfo)

		// 作答与监考，:id 为参与记录ID
		exams.POST("/:id/answer/:questionId", c.attempt.SubmitAnswer)
		exams.POST("/:id/fullscreen-exit", c.attempt.FullscreenExit)
		exams.POST("/:id/fullscreen-return", c.attempt.FullscreenReturn)
		exams.POST("/:id/tab-switch", c.attempt.TabSwitch)
		exams.GET("/:id/results", c.attempt.FetchResults)

		// 完成接口的三代形态并存，老客户端逐个回退尝试
		exams.POST("/:id/participants/:participantId/complete", c.attempt.CompleteByParticipant)
		exams.POST("/participants/:participantId/complete", c.attempt.CompleteByParticipant)
		exams.POST("/:id/complete", c.attempt.Complete)

		// 评分接口的两代形态
		exams.POST("/:id/participants/:participantId/questions/:questionId/grade", c.attempt.GradeAnswer)
		exams.POST("/:id/questions/:questionId/grade", c.attempt.GradeAnswer)
	}

	participants := authGroup.Group("/participants")
	{
		participants.POST("/:participantId/complete", c.attempt.CompleteByParticipant)
		participants.GET("/:participantId/answers", c.attempt.Answers)
	}
}

func (a *App) registerTeacherRoutes(authGroup *gin.RouterGroup, c *controllers) {
	teacher := authGroup.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		teacher.POST("/exams", c.teacher.CreateExam)
		teacher.GET("/exams", c.teacher.MyExams)
		teacher.PUT("/exams/:id", c.teacher.UpdateExam)
		teacher.DELETE("/exams/:id", c.teacher.DeleteExam)
		teacher.PUT("/exams/:id/retake-policy", c.teacher.SetRetakePolicy)
		teacher.POST("/exams/:id/questions", c.teacher.AddQuestion)
		teacher.GET("/exams/:id/templates", c.teacher.Templates)
		teacher.GET("/exams/:id/stats", c.teacher.Stats)
		teacher.GET("/exams/:id/participants", c.teacher.Participants)
		teacher.GET("/exams/:id/pending-review", c.teacher.PendingReview)

		teacher.PUT("/questions/:questionId", c.teacher.UpdateQuestion)
		teacher.DELETE("/questions/:questionId", c.teacher.DeleteQuestion)
		teacher.PUT("/questions/:questionId/template", c.teacher.SetTemplate)

		teacher.POST("/participants/:participantId/review", c.teacher.Review)
		teacher.GET("/participants/:participantId/events", c.teacher.ProctorEvents)
		teacher.GET("/participants/:participantId/answers", c.teacher.ParticipantAnswers)
	}
}
