package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/gcp"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/services"
)

type Services struct {
	Bucket     gcp.BucketService
	Cleanup    services.CleanupService
	File       services.FileService
	Enrollment services.EnrollmentService
	Course     services.CourseService
	Syllabus   services.SyllabusService
	Roster     services.RosterService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init bucket service: %w", err)
	}

	cleanup := services.NewCleanupService(log, bucket)
	file := services.NewFileService(log, bucket)
	enrollment := services.NewEnrollmentService(db, log, r.Teacher, r.Student, r.Course)

	course := services.NewCourseService(db, log, services.CourseServiceDeps{
		TeacherRepo: r.Teacher,
		StudentRepo: r.Student,
		CourseRepo:  r.Course,

		OutcomeRepo:      r.Outcome,
		ScheduleRepo:     r.Schedule,
		WeeklyPlanRepo:   r.WeeklyPlan,
		CreditPointsRepo: r.CreditPoints,
		AttendanceRepo:   r.Attendance,

		SyllabusRepo: r.Syllabus,
		ModuleRepo:   r.SyllabusModule,
		ChapterRepo:  r.Chapter,
		ArticleRepo:  r.Article,
		ItemRepo:     r.ContentItem,

		LectureRepo:       r.Lecture,
		AssignmentRepo:    r.Assignment,
		AnnouncementRepo:  r.Announcement,
		DiscussionRepo:    r.Discussion,
		SupplementaryRepo: r.Supplementary,

		Enrollment: enrollment,
		Cleanup:    cleanup,
	})

	syllabus := services.NewSyllabusService(
		db, log,
		r.Teacher, r.Course,
		r.Syllabus, r.SyllabusModule, r.Chapter, r.Article, r.ContentItem,
		file, cleanup,
	)

	roster := services.NewRosterService(db, log, r.Teacher, r.Student, r.Course, enrollment)

	return Services{
		Bucket:     bucket,
		Cleanup:    cleanup,
		File:       file,
		Enrollment: enrollment,
		Course:     course,
		Syllabus:   syllabus,
		Roster:     roster,
	}, nil
}
