package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/controller"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/service"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/database"
	"uni_exam_backend/pkg/logger"
	"uni_exam_backend/pkg/monitoring"
	"uni_exam_backend/pkg/security"
	"uni_exam_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	exam        *repository.ExamRepository
	participant *repository.ParticipantRepository
	answer      *repository.AnswerRepository
	template    *repository.TemplateRepository
}

type services struct {
	storage    *service.StorageService
	exam       *service.ExamService
	registrar  *service.RegistrarService
	proctor    *service.ProctorService
	submission *service.SubmissionService
	grading    *service.GradingService
	completion *service.CompletionService
	results    *service.ResultsService
}

type controllers struct {
	exam    *controller.ExamController
	attempt *controller.AttemptController
	teacher *controller.TeacherController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 热加载回调入口，configwatcher 侦测到配置变化后调用
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		exam:        repository.NewExamRepository(db),
		participant: repository.NewParticipantRepository(db),
		answer:      repository.NewAnswerRepository(db),
		template:    repository.NewTemplateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.exam = service.NewExamService(repos.exam, repos.template, repos.participant)
	s.registrar = service.NewRegistrarService(repos.exam, repos.participant)
	s.proctor = service.NewProctorService(repos.participant, rdb, cfg.Exam)
	s.submission = service.NewSubmissionService(repos.participant, repos.answer, repos.exam, cfg.Exam)

	gradingClient := service.NewGradingClient(cfg.Grading)
	s.grading = service.NewGradingService(repos.template, repos.exam, repos.answer, gradingClient)

	recordsClient := service.NewRecordsClient(cfg.Records)
	s.completion = service.NewCompletionService(db, repos.exam, repos.participant, repos.answer,
		s.grading, recordsClient, s.storage, cfg.Exam)
	s.results = service.NewResultsService(db, repos.exam, repos.participant, repos.answer)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		exam:    controller.NewExamController(s.exam),
		attempt: controller.NewAttemptController(s.registrar, s.submission, s.proctor, s.completion, s.grading, s.results),
		teacher: controller.NewTeacherController(s.exam, s.results, s.proctor, s.submission),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 只承担事件去重，连不上时降级运行
		logger.Log.Warn("Redis unavailable, proctor event dedup disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		_, err := tracing.InitTracer("exam-service", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/archives", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
