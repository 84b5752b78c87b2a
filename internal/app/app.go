package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz_grading_backend/internal/config"
	"quiz_grading_backend/internal/controller"
	"quiz_grading_backend/internal/repository"
	"quiz_grading_backend/internal/scoring"
	"quiz_grading_backend/internal/service"
	"quiz_grading_backend/pkg/database"
	"quiz_grading_backend/pkg/logger"
	"quiz_grading_backend/pkg/monitoring"
	"quiz_grading_backend/pkg/security"
	"quiz_grading_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services *services
	tracer   *sdktrace.TracerProvider
}

type repositories struct {
	user       *repository.UserRepository
	quiz       *repository.QuizRepository
	submission *repository.SubmissionRepository
}

type services struct {
	auth    *service.AuthService
	storage *service.StorageService
	quiz    *service.QuizService
	grading *service.GradingService
}

type controllers struct {
	auth    *controller.AuthController
	quiz    *controller.QuizController
	grading *controller.GradingController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		quiz:       repository.NewQuizRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	engine := scoring.NewEngine(scoring.WithThreshold(cfg.Grading.ShortAnswerThreshold))

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.quiz = service.NewQuizService(repos.quiz, repos.submission, rdb)
	s.grading = service.NewGradingService(repos.quiz, repos.submission, engine)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		quiz:    controller.NewQuizController(s.quiz),
		grading: controller.NewGradingController(s.grading, s.storage),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
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
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("quiz-grading", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	// 退出前把缓冲中的 span 刷到 collector
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}

// ReloadConfig 配置文件变更时热更新可在线调整项，目前是简答题相似度阈值
func (a *App) ReloadConfig(newCfg interface{}) {
	cfg, ok := newCfg.(*config.Config)
	if !ok {
		return
	}

	a.Config.Grading = cfg.Grading
	a.services.grading.SetEngine(scoring.NewEngine(scoring.WithThreshold(cfg.Grading.ShortAnswerThreshold)))
	logger.Log.Info("Config reloaded",
		zap.Float64("shortAnswerThreshold", cfg.Grading.ShortAnswerThreshold))
}
