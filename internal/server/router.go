package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/classbridge/classbridge-backend/internal/handlers"
	"github.com/classbridge/classbridge-backend/internal/middleware"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
)

type RouterConfig struct {
	Log               *logger.Logger
	AuthMiddleware    *middleware.AuthMiddleware
	CourseHandler     *handlers.CourseHandler
	SyllabusHandler   *handlers.SyllabusHandler
	EnrollmentHandler *handlers.EnrollmentHandler
	RosterHandler     *handlers.RosterHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("classbridge"))
	router.Use(middleware.RequestLogger(cfg.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	teacherOrAdmin := cfg.AuthMiddleware.RequireRole(requestdata.RoleTeacher)
	adminOnly := cfg.AuthMiddleware.RequireRole()

	// Courses
	api.POST("/courses", teacherOrAdmin, cfg.CourseHandler.CreateCourse)
	api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
	api.PATCH("/courses/:id", teacherOrAdmin, cfg.CourseHandler.UpdateCourse)
	api.DELETE("/courses/:id", teacherOrAdmin, cfg.CourseHandler.DeleteCourse)

	// Syllabus tree
	api.GET("/syllabus/courses/:courseId", cfg.SyllabusHandler.GetTree)
	syllabus := api.Group("/syllabus")
	syllabus.Use(teacherOrAdmin)
	syllabus.POST("/courses/:courseId/modules", cfg.SyllabusHandler.AddModule)
	syllabus.PUT("/courses/:courseId/modules/order", cfg.SyllabusHandler.ReorderModules)
	syllabus.PATCH("/modules/:moduleId", cfg.SyllabusHandler.UpdateModule)
	syllabus.DELETE("/modules/:moduleId", cfg.SyllabusHandler.RemoveModule)
	syllabus.POST("/modules/:moduleId/chapters", cfg.SyllabusHandler.AddChapter)
	syllabus.PUT("/modules/:moduleId/chapters/order", cfg.SyllabusHandler.ReorderChapters)
	syllabus.POST("/modules/:moduleId/items", cfg.SyllabusHandler.AddContentItem)
	syllabus.PUT("/modules/:moduleId/items/order", cfg.SyllabusHandler.ReorderContentItems)
	syllabus.PATCH("/chapters/:chapterId", cfg.SyllabusHandler.UpdateChapter)
	syllabus.DELETE("/chapters/:chapterId", cfg.SyllabusHandler.RemoveChapter)
	syllabus.POST("/chapters/:chapterId/articles", cfg.SyllabusHandler.AddArticle)
	syllabus.PATCH("/articles/:articleId", cfg.SyllabusHandler.UpdateArticle)
	syllabus.DELETE("/articles/:articleId", cfg.SyllabusHandler.RemoveArticle)
	syllabus.PUT("/items/:itemId/asset", cfg.SyllabusHandler.ReplaceContentItemAsset)
	syllabus.DELETE("/items/:itemId", cfg.SyllabusHandler.RemoveContentItem)

	// Enrollment
	api.POST("/enrollments", cfg.AuthMiddleware.RequireRole(requestdata.RoleStudent), cfg.EnrollmentHandler.EnrollSelf)

	// Roster
	api.POST("/teachers", adminOnly, cfg.RosterHandler.CreateTeacher)
	api.GET("/teachers/:id", cfg.RosterHandler.GetTeacher)
	api.PUT("/teachers/:id/codes", adminOnly, cfg.RosterHandler.SetTeacherCodes)
	api.GET("/teachers/:id/students", teacherOrAdmin, cfg.RosterHandler.ListTeacherStudents)
	api.POST("/students", adminOnly, cfg.RosterHandler.CreateStudent)
	api.GET("/students/:id", cfg.RosterHandler.GetStudent)
	api.PUT("/students/:id/codes", teacherOrAdmin, cfg.RosterHandler.SetStudentCodes)

	return router
}

func allowedOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if raw == "" {
		return []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
