package app

import (
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/repos"
	"github.com/classbridge/classbridge-backend/internal/types"
)

type Repos struct {
	Teacher repos.TeacherRepo
	Student repos.StudentRepo
	Course  repos.CourseRepo

	Outcome      repos.CourseScopedRepo[types.Outcome]
	Schedule     repos.CourseScopedRepo[types.Schedule]
	WeeklyPlan   repos.CourseScopedRepo[types.WeeklyPlan]
	CreditPoints repos.CourseScopedRepo[types.CreditPoints]
	Attendance   repos.CourseScopedRepo[types.Attendance]

	Syllabus       repos.SyllabusRepo
	SyllabusModule repos.SyllabusModuleRepo
	Chapter        repos.ChapterRepo
	Article        repos.ArticleRepo
	ContentItem    repos.ContentItemRepo

	Lecture       repos.CourseScopedRepo[types.Lecture]
	Assignment    repos.CourseScopedRepo[types.Assignment]
	Announcement  repos.CourseScopedRepo[types.Announcement]
	Discussion    repos.CourseScopedRepo[types.Discussion]
	Supplementary repos.CourseScopedRepo[types.SupplementaryContent]
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Teacher: repos.NewTeacherRepo(db, log),
		Student: repos.NewStudentRepo(db, log),
		Course:  repos.NewCourseRepo(db, log),

		Outcome:      repos.NewCourseScopedRepo[types.Outcome](db, log, "OutcomeRepo"),
		Schedule:     repos.NewCourseScopedRepo[types.Schedule](db, log, "ScheduleRepo"),
		WeeklyPlan:   repos.NewCourseScopedRepo[types.WeeklyPlan](db, log, "WeeklyPlanRepo"),
		CreditPoints: repos.NewCourseScopedRepo[types.CreditPoints](db, log, "CreditPointsRepo"),
		Attendance:   repos.NewCourseScopedRepo[types.Attendance](db, log, "AttendanceRepo"),

		Syllabus:       repos.NewSyllabusRepo(db, log),
		SyllabusModule: repos.NewSyllabusModuleRepo(db, log),
		Chapter:        repos.NewChapterRepo(db, log),
		Article:        repos.NewArticleRepo(db, log),
		ContentItem:    repos.NewContentItemRepo(db, log),

		Lecture:       repos.NewCourseScopedRepo[types.Lecture](db, log, "LectureRepo"),
		Assignment:    repos.NewCourseScopedRepo[types.Assignment](db, log, "AssignmentRepo"),
		Announcement:  repos.NewCourseScopedRepo[types.Announcement](db, log, "AnnouncementRepo"),
		Discussion:    repos.NewCourseScopedRepo[types.Discussion](db, log, "DiscussionRepo"),
		Supplementary: repos.NewCourseScopedRepo[types.SupplementaryContent](db, log, "SupplementaryContentRepo"),
	}
}
