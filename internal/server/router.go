package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/aloratech/coachcraft-backend/internal/handlers"
	"github.com/aloratech/coachcraft-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName string

	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	CourseHandler     *handlers.CourseHandler
	CurriculumHandler *handlers.CurriculumHandler

	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "coachcraft-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Courses
		protected.POST("/courses", cfg.CourseHandler.CreateCourse)
		protected.GET("/courses", cfg.CourseHandler.ListCourses)
		protected.GET("/courses/:courseID", cfg.CourseHandler.GetCourse)
		protected.PATCH("/courses/:courseID", cfg.CourseHandler.UpdateCourse)
		protected.DELETE("/courses/:courseID", cfg.CourseHandler.DeleteCourse)

		// Curriculum nodes
		protected.POST("/courses/:courseID/nodes", cfg.CurriculumHandler.CreateNode)
		protected.PATCH("/nodes/:outlineID", cfg.CurriculumHandler.UpdateNode)
		protected.DELETE("/nodes/:outlineID", cfg.CurriculumHandler.DeleteNode)
	}

	return router
}
