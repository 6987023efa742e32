package app

import (
	"github.com/gin-gonic/gin"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/server"
)

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:               log,
		AuthMiddleware:    middleware.Auth,
		CourseHandler:     handlers.Course,
		SyllabusHandler:   handlers.Syllabus,
		EnrollmentHandler: handlers.Enrollment,
		RosterHandler:     handlers.Roster,
	})
}
