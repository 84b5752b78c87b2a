package app

import (
	"quiz_grading_backend/docs"
	"quiz_grading_backend/internal/config"
	"quiz_grading_backend/internal/middleware"
	"quiz_grading_backend/internal/model"
	"quiz_grading_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 学生/通用 授权接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		authGroup.GET("/quizzes/published", c.quiz.GetPublishedQuiz)
		authGroup.POST("/quizzes/:id/submit", c.grading.SubmitQuiz)
		authGroup.GET("/my/submissions", c.grading.GetMySubmissions)
		authGroup.GET("/submissions/:id", c.grading.GetSubmission)
		authGroup.POST("/submissions/attachments", c.grading.UploadEssayAttachment)
	}

	// 教师相关接口
	teacher := router.Group("/api/teacher")
	teacher.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/quizzes", c.quiz.CreateQuiz)
		teacher.GET("/quizzes", c.quiz.ListQuizzes)
		teacher.GET("/quizzes/:id", c.quiz.GetQuiz)
		teacher.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		teacher.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)

		teacher.GET("/quizzes/:id/submissions", c.grading.ListSubmissions)
		teacher.GET("/submissions/pending-review", c.grading.ListPendingReview)
		teacher.POST("/submissions/:id/questions/:questionId/grade", c.grading.OverrideEssayScore)
	}
}
