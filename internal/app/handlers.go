package app

import (
	"github.com/classbridge/classbridge-backend/internal/handlers"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
)

type Handlers struct {
	Course     *handlers.CourseHandler
	Syllabus   *handlers.SyllabusHandler
	Enrollment *handlers.EnrollmentHandler
	Roster     *handlers.RosterHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Course:     handlers.NewCourseHandler(log, services.Course),
		Syllabus:   handlers.NewSyllabusHandler(log, services.Syllabus),
		Enrollment: handlers.NewEnrollmentHandler(log, services.Enrollment),
		Roster:     handlers.NewRosterHandler(log, services.Roster),
	}
}
