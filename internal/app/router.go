package app

import (
	"ielts_edu_backend/docs"
	"ielts_edu_backend/internal/config"
	"ielts_edu_backend/internal/middleware"
	"ielts_edu_backend/internal/model"
	"ielts_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/me", c.auth.Me)

		// 试卷读取，学生/教师/管理员均可访问
		papers := authGroup.Group("/papers")
		{
			papers.GET("/reading", c.paper.ListReading)
			papers.GET("/reading/:id", c.paper.GetReading)
			papers.GET("/listening", c.paper.ListListening)
			papers.GET("/listening/:id", c.paper.GetListening)
		}
	}

	// 3. 管理员导入流水线
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin, model.Teacher))
	{
		imports := admin.Group("/import")
		{
			imports.POST("/extract", c.imports.Extract)
			imports.GET("/logs", c.imports.Logs)

			reading := imports.Group("/reading")
			{
				reading.POST("/parse", c.imports.Parse)
				reading.POST("/normalize", c.imports.Normalize)
				reading.POST("/validate", c.imports.Validate)
				reading.POST("/upload", c.imports.Upload)
				reading.POST("/upload-grid", c.imports.UploadGrid)
				reading.POST("/undo", c.imports.Undo)
				reading.POST("/export", c.imports.Export)
			}

			listening := imports.Group("/listening")
			{
				listening.POST("/parse", c.listeningImport.Parse)
				listening.POST("/validate", c.listeningImport.Validate)
				listening.POST("/upload", c.listeningImport.Upload)
				listening.POST("/undo", c.listeningImport.Undo)
				listening.POST("/:id/audio", c.listeningImport.UploadAudio)
			}
		}
	}
}
