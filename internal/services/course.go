package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/repos"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
	"github.com/classbridge/classbridge-backend/internal/types"
)

// CourseSpec is the create payload. Satellite sections are optional; a nil
// section means the satellite is not created yet.
type CourseSpec struct {
	CourseCode  string    `json:"course_code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Semester    string    `json:"semester"`
	TeacherID   uuid.UUID `json:"teacher_id"` // admin path only

	Outcome      datatypes.JSON `json:"outcome,omitempty"`
	Schedule     datatypes.JSON `json:"schedule,omitempty"`
	WeeklyPlan   datatypes.JSON `json:"weekly_plan,omitempty"`
	CreditPoints datatypes.JSON `json:"credit_points,omitempty"`
	Attendance   datatypes.JSON `json:"attendance,omitempty"`

	Modules []ModuleSpec `json:"modules,omitempty"`
}

type ModuleSpec struct {
	ModuleNumber int    `json:"module_number"`
	Title        string `json:"title"`
}

// CoursePatch is the update payload; nil fields are untouched.
type CoursePatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Semester    *string    `json:"semester,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	CourseCode  *string    `json:"course_code,omitempty"`
	TeacherID   *uuid.UUID `json:"teacher_id,omitempty"` // admin path: move ownership

	Outcome      datatypes.JSON `json:"outcome,omitempty"`
	Schedule     datatypes.JSON `json:"schedule,omitempty"`
	WeeklyPlan   datatypes.JSON `json:"weekly_plan,omitempty"`
	CreditPoints datatypes.JSON `json:"credit_points,omitempty"`
	Attendance   datatypes.JSON `json:"attendance,omitempty"`
}

// CourseService orchestrates the course lifecycle: each operation runs its
// repository writes inside one transaction, fans enrollment changes out
// through the enrollment engine, and hands blob keys to the cleanup service
// only after commit.
type CourseService interface {
	CreateCourse(ctx context.Context, spec CourseSpec) (*types.Course, error)
	UpdateCourse(ctx context.Context, courseID uuid.UUID, patch CoursePatch) (*types.Course, error)
	DeleteCourse(ctx context.Context, courseID uuid.UUID) (*types.DeleteManifest, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
}

type courseService struct {
	db  *gorm.DB
	log *logger.Logger

	teacherRepo repos.TeacherRepo
	studentRepo repos.StudentRepo
	courseRepo  repos.CourseRepo

	outcomeRepo      repos.CourseScopedRepo[types.Outcome]
	scheduleRepo     repos.CourseScopedRepo[types.Schedule]
	weeklyPlanRepo   repos.CourseScopedRepo[types.WeeklyPlan]
	creditPointsRepo repos.CourseScopedRepo[types.CreditPoints]
	attendanceRepo   repos.CourseScopedRepo[types.Attendance]

	syllabusRepo repos.SyllabusRepo
	moduleRepo   repos.SyllabusModuleRepo
	chapterRepo  repos.ChapterRepo
	articleRepo  repos.ArticleRepo
	itemRepo     repos.ContentItemRepo

	lectureRepo       repos.CourseScopedRepo[types.Lecture]
	assignmentRepo    repos.CourseScopedRepo[types.Assignment]
	announcementRepo  repos.CourseScopedRepo[types.Announcement]
	discussionRepo    repos.CourseScopedRepo[types.Discussion]
	supplementaryRepo repos.CourseScopedRepo[types.SupplementaryContent]

	enrollment EnrollmentService
	cleanup    CleanupService
}

type CourseServiceDeps struct {
	TeacherRepo repos.TeacherRepo
	StudentRepo repos.StudentRepo
	CourseRepo  repos.CourseRepo

	OutcomeRepo      repos.CourseScopedRepo[types.Outcome]
	ScheduleRepo     repos.CourseScopedRepo[types.Schedule]
	WeeklyPlanRepo   repos.CourseScopedRepo[types.WeeklyPlan]
	CreditPointsRepo repos.CourseScopedRepo[types.CreditPoints]
	AttendanceRepo   repos.CourseScopedRepo[types.Attendance]

	SyllabusRepo repos.SyllabusRepo
	ModuleRepo   repos.SyllabusModuleRepo
	ChapterRepo  repos.ChapterRepo
	ArticleRepo  repos.ArticleRepo
	ItemRepo     repos.ContentItemRepo

	LectureRepo       repos.CourseScopedRepo[types.Lecture]
	AssignmentRepo    repos.CourseScopedRepo[types.Assignment]
	AnnouncementRepo  repos.CourseScopedRepo[types.Announcement]
	DiscussionRepo    repos.CourseScopedRepo[types.Discussion]
	SupplementaryRepo repos.CourseScopedRepo[types.SupplementaryContent]

	Enrollment EnrollmentService
	Cleanup    CleanupService
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, deps CourseServiceDeps) CourseService {
	return &courseService{
		db:                db,
		log:               baseLog.With("service", "CourseService"),
		teacherRepo:       deps.TeacherRepo,
		studentRepo:       deps.StudentRepo,
		courseRepo:        deps.CourseRepo,
		outcomeRepo:       deps.OutcomeRepo,
		scheduleRepo:      deps.ScheduleRepo,
		weeklyPlanRepo:    deps.WeeklyPlanRepo,
		creditPointsRepo:  deps.CreditPointsRepo,
		attendanceRepo:    deps.AttendanceRepo,
		syllabusRepo:      deps.SyllabusRepo,
		moduleRepo:        deps.ModuleRepo,
		chapterRepo:       deps.ChapterRepo,
		articleRepo:       deps.ArticleRepo,
		itemRepo:          deps.ItemRepo,
		lectureRepo:       deps.LectureRepo,
		assignmentRepo:    deps.AssignmentRepo,
		announcementRepo:  deps.AnnouncementRepo,
		discussionRepo:    deps.DiscussionRepo,
		supplementaryRepo: deps.SupplementaryRepo,
		enrollment:        deps.Enrollment,
		cleanup:           deps.Cleanup,
	}
}

func (cs *courseService) CreateCourse(ctx context.Context, spec CourseSpec) (*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}

	code := types.NormalizeCourseCode(spec.CourseCode)
	if code == "" {
		return nil, apierr.Validation("course code is required")
	}
	if strings.TrimSpace(spec.Title) == "" {
		return nil, apierr.Validation("title is required")
	}
	if strings.TrimSpace(spec.Description) == "" {
		return nil, apierr.Validation("description is required")
	}
	if err := validateModuleSpecs(spec.Modules); err != nil {
		return nil, err
	}

	var course *types.Course
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teacher, err := cs.resolveTargetTeacher(ctx, tx, rd, spec.TeacherID)
		if err != nil {
			return err
		}

		if rd.IsAdmin() {
			// Admin path: the code must not be held by any active course.
			existing, err := cs.courseRepo.GetActiveByCode(ctx, tx, code)
			if err != nil {
				return fmt.Errorf("check active courses for code: %w", err)
			}
			if len(existing) > 0 {
				return apierr.Conflict(apierr.CodeDuplicateCourseCode,
					"an active course already holds code %s", code)
			}
		} else {
			// Teacher self-serve path: the code must come from the teacher's
			// own authorized set.
			if !teacher.HasCourseCode(code) {
				return apierr.Conflict(apierr.CodeDuplicateCourseCode,
					"course code %s is not in the teacher's authorized set", code)
			}
			owned, err := cs.courseRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{teacher.ID})
			if err != nil {
				return fmt.Errorf("load owned courses: %w", err)
			}
			for _, c := range owned {
				if c != nil && c.IsActive && c.CourseCode == code {
					return apierr.Conflict(apierr.CodeDuplicateCourseCode,
						"teacher already has an active course with code %s", code)
				}
			}
		}

		course = &types.Course{
			ID:          uuid.New(),
			TeacherID:   teacher.ID,
			CourseCode:  code,
			Title:       strings.TrimSpace(spec.Title),
			Description: strings.TrimSpace(spec.Description),
			Semester:    strings.TrimSpace(spec.Semester),
			IsActive:    true,
		}
		if _, err := cs.courseRepo.Create(ctx, tx, []*types.Course{course}); err != nil {
			return fmt.Errorf("create course: %w", err)
		}

		satelliteFields, err := cs.createSatellites(ctx, tx, course.ID, spec)
		if err != nil {
			return err
		}
		if len(spec.Modules) > 0 {
			syllabus := &types.Syllabus{ID: uuid.New(), CourseID: course.ID}
			if _, err := cs.syllabusRepo.Create(ctx, tx, []*types.Syllabus{syllabus}); err != nil {
				return fmt.Errorf("create syllabus: %w", err)
			}
			modules := make([]*types.SyllabusModule, 0, len(spec.Modules))
			for i, ms := range spec.Modules {
				modules = append(modules, &types.SyllabusModule{
					ID:           uuid.New(),
					SyllabusID:   syllabus.ID,
					ModuleNumber: ms.ModuleNumber,
					Title:        strings.TrimSpace(ms.Title),
					IsActive:     true,
					Order:        i + 1,
				})
			}
			if _, err := cs.moduleRepo.Create(ctx, tx, modules); err != nil {
				return fmt.Errorf("create syllabus modules: %w", err)
			}
			satelliteFields["syllabus_id"] = syllabus.ID
			course.SyllabusID = &syllabus.ID
		}
		if len(satelliteFields) > 0 {
			if err := cs.courseRepo.UpdateFields(ctx, tx, course.ID, satelliteFields); err != nil {
				return fmt.Errorf("wire satellites onto course: %w", err)
			}
		}

		// Teacher back-reference; admin-created courses also grant the code.
		teacherFields := map[string]interface{}{
			"course_ids": append(append(datatypes.JSONSlice[uuid.UUID]{}, teacher.CourseIDs...), course.ID),
		}
		if !teacher.HasCourseCode(code) {
			teacherFields["course_codes"] = append(append(datatypes.JSONSlice[string]{}, teacher.CourseCodes...), code)
		}
		if err := cs.teacherRepo.UpdateFields(ctx, tx, teacher.ID, teacherFields); err != nil {
			return fmt.Errorf("update teacher back-reference: %w", err)
		}

		granted, err := cs.enrollment.SyncOnGrant(ctx, tx, teacher.ID, code, course.ID)
		if err != nil {
			return fmt.Errorf("enrollment grant sync: %w", err)
		}
		cs.log.Info("course created", "course_id", course.ID, "course_code", code, "students_granted", granted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (cs *courseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, patch CoursePatch) (*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}

	var course *types.Course
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		course, err = cs.loadCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		requester, err := cs.authorizeCourseAccess(ctx, tx, rd, course)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if patch.Title != nil {
			if strings.TrimSpace(*patch.Title) == "" {
				return apierr.Validation("title cannot be empty")
			}
			fields["title"] = strings.TrimSpace(*patch.Title)
			course.Title = fields["title"].(string)
		}
		if patch.Description != nil {
			fields["description"] = strings.TrimSpace(*patch.Description)
			course.Description = fields["description"].(string)
		}
		if patch.Semester != nil {
			fields["semester"] = strings.TrimSpace(*patch.Semester)
			course.Semester = fields["semester"].(string)
		}
		if patch.IsActive != nil {
			fields["is_active"] = *patch.IsActive
			course.IsActive = *patch.IsActive
		}

		satelliteFields, err := cs.upsertSatellites(ctx, tx, course, patch)
		if err != nil {
			return err
		}
		for k, v := range satelliteFields {
			fields[k] = v
		}

		reassigned, err := cs.applyCodeReassignment(ctx, tx, rd, requester, course, patch, fields)
		if err != nil {
			return err
		}

		if len(fields) > 0 {
			if err := cs.courseRepo.UpdateFields(ctx, tx, course.ID, fields); err != nil {
				return fmt.Errorf("update course: %w", err)
			}
		}
		if reassigned != nil {
			// Sync order: drop the no-longer-eligible first, then add the
			// newly eligible.
			if _, err := cs.enrollment.SyncOnRevoke(ctx, tx, reassigned.oldTeacherID, reassigned.oldCode, course.ID); err != nil {
				return fmt.Errorf("enrollment revoke sync: %w", err)
			}
			if _, err := cs.enrollment.SyncOnGrant(ctx, tx, course.TeacherID, course.CourseCode, course.ID); err != nil {
				return fmt.Errorf("enrollment grant sync: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (cs *courseService) DeleteCourse(ctx context.Context, courseID uuid.UUID) (*types.DeleteManifest, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}

	manifest := types.NewDeleteManifest()
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := cs.loadCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if _, err := cs.authorizeCourseAccess(ctx, tx, rd, course); err != nil {
			return err
		}

		if err := cs.deleteSatellites(ctx, tx, course.ID, manifest); err != nil {
			return err
		}
		if err := cs.deleteSyllabusGraph(ctx, tx, course.ID, manifest); err != nil {
			return err
		}
		if err := cs.deleteCoursework(ctx, tx, course.ID, manifest); err != nil {
			return err
		}

		if err := cs.courseRepo.DeleteByIDs(ctx, tx, []uuid.UUID{course.ID}); err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		manifest.Count("courses", 1)

		// Prune back-references: the owning teacher, then every student
		// still holding the course.
		teachers, err := cs.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{course.TeacherID})
		if err != nil {
			return fmt.Errorf("load owning teacher: %w", err)
		}
		if len(teachers) > 0 && teachers[0] != nil && teachers[0].HasCourse(course.ID) {
			if err := cs.teacherRepo.UpdateFields(ctx, tx, teachers[0].ID, map[string]interface{}{
				"course_ids": removeCourseID(teachers[0].CourseIDs, course.ID),
			}); err != nil {
				return fmt.Errorf("prune teacher back-reference: %w", err)
			}
		}
		students, err := cs.studentRepo.GetReferencingCourse(ctx, tx, course.ID)
		if err != nil {
			return fmt.Errorf("load referencing students: %w", err)
		}
		for _, s := range students {
			if s == nil {
				continue
			}
			if err := cs.studentRepo.UpdateFields(ctx, tx, s.ID, map[string]interface{}{
				"course_ids": removeCourseID(s.CourseIDs, course.ID),
			}); err != nil {
				return fmt.Errorf("prune student back-reference: %w", err)
			}
		}
		manifest.Count("student_references", len(students))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Structural delete is committed; blob cleanup is best-effort from here.
	// The sweep catches keys under the course prefix that no manifest
	// covers anymore, such as leftovers from earlier failed cleanups.
	cs.cleanup.Run(ctx, manifest)
	cs.cleanup.SweepCoursePrefix(ctx, courseID)
	return manifest, nil
}

func (cs *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	return cs.loadCourse(ctx, nil, courseID)
}

// --- helpers ---

func (cs *courseService) loadCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	courses, err := cs.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, apierr.NotFound("course %s not found", courseID)
	}
	return courses[0], nil
}

// resolveTargetTeacher returns the teacher a create operates on: the admin's
// designated teacher, or the requester's own teacher row.
func (cs *courseService) resolveTargetTeacher(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, teacherID uuid.UUID) (*types.Teacher, error) {
	if rd.IsAdmin() {
		if teacherID == uuid.Nil {
			return nil, apierr.Validation("teacher_id is required on the admin path")
		}
		teachers, err := cs.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{teacherID})
		if err != nil {
			return nil, fmt.Errorf("load teacher: %w", err)
		}
		if len(teachers) == 0 || teachers[0] == nil {
			return nil, apierr.NotFound("teacher %s not found", teacherID)
		}
		return teachers[0], nil
	}
	teachers, err := cs.teacherRepo.GetByUserIDs(ctx, tx, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load requesting teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil {
		return nil, apierr.Forbidden("requester is not a teacher")
	}
	return teachers[0], nil
}

// authorizeCourseAccess enforces domain ownership: admins pass, teachers
// must own the course. Returns the requesting teacher when there is one.
func (cs *courseService) authorizeCourseAccess(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, course *types.Course) (*types.Teacher, error) {
	if rd.IsAdmin() {
		return nil, nil
	}
	teachers, err := cs.teacherRepo.GetByUserIDs(ctx, tx, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load requesting teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil || teachers[0].ID != course.TeacherID {
		return nil, apierr.Forbidden("course does not belong to the requesting teacher")
	}
	return teachers[0], nil
}

func validateModuleSpecs(specs []ModuleSpec) error {
	seen := map[int]bool{}
	for _, ms := range specs {
		if strings.TrimSpace(ms.Title) == "" {
			return apierr.Validation("module title is required")
		}
		if seen[ms.ModuleNumber] {
			return apierr.Conflict(apierr.CodeDuplicateModuleNumber,
				"module number %d appears more than once", ms.ModuleNumber)
		}
		seen[ms.ModuleNumber] = true
	}
	return nil
}

func (cs *courseService) createSatellites(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, spec CourseSpec) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if spec.Outcome != nil {
		row := &types.Outcome{ID: uuid.New(), CourseID: courseID, Data: spec.Outcome}
		if _, err := cs.outcomeRepo.Create(ctx, tx, []*types.Outcome{row}); err != nil {
			return nil, fmt.Errorf("create outcome: %w", err)
		}
		fields["outcome_id"] = row.ID
	}
	if spec.Schedule != nil {
		row := &types.Schedule{ID: uuid.New(), CourseID: courseID, Data: spec.Schedule}
		if _, err := cs.scheduleRepo.Create(ctx, tx, []*types.Schedule{row}); err != nil {
			return nil, fmt.Errorf("create schedule: %w", err)
		}
		fields["schedule_id"] = row.ID
	}
	if spec.WeeklyPlan != nil {
		row := &types.WeeklyPlan{ID: uuid.New(), CourseID: courseID, Data: spec.WeeklyPlan}
		if _, err := cs.weeklyPlanRepo.Create(ctx, tx, []*types.WeeklyPlan{row}); err != nil {
			return nil, fmt.Errorf("create weekly plan: %w", err)
		}
		fields["weekly_plan_id"] = row.ID
	}
	if spec.CreditPoints != nil {
		row := &types.CreditPoints{ID: uuid.New(), CourseID: courseID, Data: spec.CreditPoints}
		if _, err := cs.creditPointsRepo.Create(ctx, tx, []*types.CreditPoints{row}); err != nil {
			return nil, fmt.Errorf("create credit points: %w", err)
		}
		fields["credit_points_id"] = row.ID
	}
	if spec.Attendance != nil {
		row := &types.Attendance{ID: uuid.New(), CourseID: courseID, Data: spec.Attendance}
		if _, err := cs.attendanceRepo.Create(ctx, tx, []*types.Attendance{row}); err != nil {
			return nil, fmt.Errorf("create attendance: %w", err)
		}
		fields["attendance_id"] = row.ID
	}
	return fields, nil
}

// upsertSatellites creates each supplied satellite if the course has none
// yet, or patches the existing row in place.
func (cs *courseService) upsertSatellites(ctx context.Context, tx *gorm.DB, course *types.Course, patch CoursePatch) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if patch.Outcome != nil {
		id, err := upsertSatellite(ctx, tx, cs.outcomeRepo, course.OutcomeID, patch.Outcome, func(id uuid.UUID) *types.Outcome {
			return &types.Outcome{ID: id, CourseID: course.ID, Data: patch.Outcome}
		})
		if err != nil {
			return nil, fmt.Errorf("upsert outcome: %w", err)
		}
		if course.OutcomeID == nil {
			fields["outcome_id"] = id
			course.OutcomeID = &id
		}
	}
	if patch.Schedule != nil {
		id, err := upsertSatellite(ctx, tx, cs.scheduleRepo, course.ScheduleID, patch.Schedule, func(id uuid.UUID) *types.Schedule {
			return &types.Schedule{ID: id, CourseID: course.ID, Data: patch.Schedule}
		})
		if err != nil {
			return nil, fmt.Errorf("upsert schedule: %w", err)
		}
		if course.ScheduleID == nil {
			fields["schedule_id"] = id
			course.ScheduleID = &id
		}
	}
	if patch.WeeklyPlan != nil {
		id, err := upsertSatellite(ctx, tx, cs.weeklyPlanRepo, course.WeeklyPlanID, patch.WeeklyPlan, func(id uuid.UUID) *types.WeeklyPlan {
			return &types.WeeklyPlan{ID: id, CourseID: course.ID, Data: patch.WeeklyPlan}
		})
		if err != nil {
			return nil, fmt.Errorf("upsert weekly plan: %w", err)
		}
		if course.WeeklyPlanID == nil {
			fields["weekly_plan_id"] = id
			course.WeeklyPlanID = &id
		}
	}
	if patch.CreditPoints != nil {
		id, err := upsertSatellite(ctx, tx, cs.creditPointsRepo, course.CreditPointsID, patch.CreditPoints, func(id uuid.UUID) *types.CreditPoints {
			return &types.CreditPoints{ID: id, CourseID: course.ID, Data: patch.CreditPoints}
		})
		if err != nil {
			return nil, fmt.Errorf("upsert credit points: %w", err)
		}
		if course.CreditPointsID == nil {
			fields["credit_points_id"] = id
			course.CreditPointsID = &id
		}
	}
	if patch.Attendance != nil {
		id, err := upsertSatellite(ctx, tx, cs.attendanceRepo, course.AttendanceID, patch.Attendance, func(id uuid.UUID) *types.Attendance {
			return &types.Attendance{ID: id, CourseID: course.ID, Data: patch.Attendance}
		})
		if err != nil {
			return nil, fmt.Errorf("upsert attendance: %w", err)
		}
		if course.AttendanceID == nil {
			fields["attendance_id"] = id
			course.AttendanceID = &id
		}
	}
	return fields, nil
}

func upsertSatellite[T any](ctx context.Context, tx *gorm.DB, repo repos.CourseScopedRepo[T], existingID *uuid.UUID, data datatypes.JSON, build func(uuid.UUID) *T) (uuid.UUID, error) {
	if existingID != nil && *existingID != uuid.Nil {
		return *existingID, repo.UpdateFields(ctx, tx, *existingID, map[string]interface{}{"data": data})
	}
	id := uuid.New()
	_, err := repo.Create(ctx, tx, []*T{build(id)})
	return id, err
}

type codeReassignment struct {
	oldTeacherID uuid.UUID
	oldCode      string
}

// applyCodeReassignment handles course-code changes and admin teacher moves.
// It mutates course and fields in place and reports the old (teacher, code)
// pair the revoke sync must run against, or nil when nothing changed.
func (cs *courseService) applyCodeReassignment(ctx context.Context, tx *gorm.DB, rd *requestdata.RequestData, requester *types.Teacher, course *types.Course, patch CoursePatch, fields map[string]interface{}) (*codeReassignment, error) {
	newCode := course.CourseCode
	if patch.CourseCode != nil {
		newCode = types.NormalizeCourseCode(*patch.CourseCode)
		if newCode == "" {
			return nil, apierr.Validation("course code cannot be empty")
		}
	}
	movingTeacher := rd.IsAdmin() && patch.TeacherID != nil && *patch.TeacherID != course.TeacherID
	if newCode == course.CourseCode && !movingTeacher {
		return nil, nil
	}

	old := &codeReassignment{oldTeacherID: course.TeacherID, oldCode: course.CourseCode}

	// The new placement must pass the same active-holder checks as creation:
	// reassignment must not leave two active courses on one code.
	if course.IsActive {
		if rd.IsAdmin() {
			holders, err := cs.courseRepo.GetActiveByCode(ctx, tx, newCode)
			if err != nil {
				return nil, fmt.Errorf("check active courses for code: %w", err)
			}
			for _, c := range holders {
				if c != nil && c.ID != course.ID {
					return nil, apierr.Conflict(apierr.CodeDuplicateCourseCode,
						"an active course already holds code %s", newCode)
				}
			}
		} else {
			owned, err := cs.courseRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{course.TeacherID})
			if err != nil {
				return nil, fmt.Errorf("load owned courses: %w", err)
			}
			for _, c := range owned {
				if c != nil && c.ID != course.ID && c.IsActive && c.CourseCode == newCode {
					return nil, apierr.Conflict(apierr.CodeDuplicateCourseCode,
						"teacher already has an active course with code %s", newCode)
				}
			}
		}
	}

	if movingTeacher {
		newTeachers, err := cs.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{*patch.TeacherID})
		if err != nil {
			return nil, fmt.Errorf("load designated teacher: %w", err)
		}
		if len(newTeachers) == 0 || newTeachers[0] == nil {
			return nil, apierr.NotFound("teacher %s not found", *patch.TeacherID)
		}
		newTeacher := newTeachers[0]

		oldTeachers, err := cs.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{course.TeacherID})
		if err != nil {
			return nil, fmt.Errorf("load previous teacher: %w", err)
		}

		// New teacher gains the course and, if missing, the code.
		newTeacherFields := map[string]interface{}{
			"course_ids": append(append(datatypes.JSONSlice[uuid.UUID]{}, newTeacher.CourseIDs...), course.ID),
		}
		if !newTeacher.HasCourseCode(newCode) {
			newTeacherFields["course_codes"] = append(append(datatypes.JSONSlice[string]{}, newTeacher.CourseCodes...), newCode)
		}
		if err := cs.teacherRepo.UpdateFields(ctx, tx, newTeacher.ID, newTeacherFields); err != nil {
			return nil, fmt.Errorf("update designated teacher: %w", err)
		}

		// Old teacher loses the course reference; the old code is pruned
		// only when no other owned course still carries it.
		if len(oldTeachers) > 0 && oldTeachers[0] != nil {
			oldTeacher := oldTeachers[0]
			oldFields := map[string]interface{}{
				"course_ids": removeCourseID(oldTeacher.CourseIDs, course.ID),
			}
			stillOwned, err := cs.courseRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{oldTeacher.ID})
			if err != nil {
				return nil, fmt.Errorf("load previous teacher courses: %w", err)
			}
			codeStillUsed := false
			for _, c := range stillOwned {
				if c != nil && c.ID != course.ID && c.CourseCode == old.oldCode {
					codeStillUsed = true
					break
				}
			}
			if !codeStillUsed {
				oldFields["course_codes"] = removeCode(oldTeacher.CourseCodes, old.oldCode)
			}
			if err := cs.teacherRepo.UpdateFields(ctx, tx, oldTeacher.ID, oldFields); err != nil {
				return nil, fmt.Errorf("update previous teacher: %w", err)
			}
		}

		course.TeacherID = newTeacher.ID
		fields["teacher_id"] = newTeacher.ID
	} else if newCode != course.CourseCode {
		// Same owner: the new code must come from the requester's own
		// authorized set. Admins without a designated teacher validate
		// against the current owner's set.
		authorized := requester
		if authorized == nil {
			owners, err := cs.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{course.TeacherID})
			if err != nil {
				return nil, fmt.Errorf("load owning teacher: %w", err)
			}
			if len(owners) == 0 || owners[0] == nil {
				return nil, apierr.NotFound("teacher %s not found", course.TeacherID)
			}
			authorized = owners[0]
		}
		if !authorized.HasCourseCode(newCode) {
			return nil, apierr.New(http.StatusForbidden, apierr.CodeUnauthorizedCourseCode,
				fmt.Errorf("course code %s is not in the teacher's authorized set", newCode))
		}
	}

	if newCode != course.CourseCode {
		course.CourseCode = newCode
		fields["course_code"] = newCode
	}
	return old, nil
}

func (cs *courseService) deleteSatellites(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, manifest *types.DeleteManifest) error {
	ids := []uuid.UUID{courseID}
	if n, err := cs.outcomeRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete outcomes: %w", err)
	} else {
		manifest.Count("outcomes", int(n))
	}
	if n, err := cs.scheduleRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	} else {
		manifest.Count("schedules", int(n))
	}
	if n, err := cs.weeklyPlanRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete weekly plans: %w", err)
	} else {
		manifest.Count("weekly_plans", int(n))
	}
	if n, err := cs.creditPointsRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete credit points: %w", err)
	} else {
		manifest.Count("credit_points", int(n))
	}
	if n, err := cs.attendanceRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	} else {
		manifest.Count("attendance", int(n))
	}
	return nil
}

// deleteSyllabusGraph removes the whole module/chapter/article/content tree
// under the course's syllabus, collecting every nested blob key first.
func (cs *courseService) deleteSyllabusGraph(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, manifest *types.DeleteManifest) error {
	syllabi, err := cs.syllabusRepo.GetByCourseIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return fmt.Errorf("load syllabus: %w", err)
	}
	if len(syllabi) == 0 {
		return nil
	}
	syllabusIDs := make([]uuid.UUID, 0, len(syllabi))
	for _, s := range syllabi {
		if s != nil {
			syllabusIDs = append(syllabusIDs, s.ID)
		}
	}

	modules, err := cs.moduleRepo.GetBySyllabusIDs(ctx, tx, syllabusIDs)
	if err != nil {
		return fmt.Errorf("load syllabus modules: %w", err)
	}
	moduleIDs := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		if m != nil {
			moduleIDs = append(moduleIDs, m.ID)
		}
	}

	chapters, err := cs.chapterRepo.GetByModuleIDs(ctx, tx, moduleIDs)
	if err != nil {
		return fmt.Errorf("load chapters: %w", err)
	}
	chapterIDs := make([]uuid.UUID, 0, len(chapters))
	for _, c := range chapters {
		if c != nil {
			chapterIDs = append(chapterIDs, c.ID)
		}
	}

	items, err := cs.itemRepo.GetByModuleIDs(ctx, tx, moduleIDs)
	if err != nil {
		return fmt.Errorf("load content items: %w", err)
	}
	itemIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		itemIDs = append(itemIDs, it.ID)
		manifest.AddKeys(it.BlobKeys()...)
	}

	articleCount, err := cs.articleRepo.DeleteByChapterIDs(ctx, tx, chapterIDs)
	if err != nil {
		return fmt.Errorf("delete articles: %w", err)
	}
	if err := cs.itemRepo.DeleteByIDs(ctx, tx, itemIDs); err != nil {
		return fmt.Errorf("delete content items: %w", err)
	}
	if err := cs.chapterRepo.DeleteByIDs(ctx, tx, chapterIDs); err != nil {
		return fmt.Errorf("delete chapters: %w", err)
	}
	if err := cs.moduleRepo.DeleteByIDs(ctx, tx, moduleIDs); err != nil {
		return fmt.Errorf("delete syllabus modules: %w", err)
	}
	if err := cs.syllabusRepo.DeleteByIDs(ctx, tx, syllabusIDs); err != nil {
		return fmt.Errorf("delete syllabus: %w", err)
	}

	manifest.Count("syllabi", len(syllabusIDs))
	manifest.Count("modules", len(moduleIDs))
	manifest.Count("chapters", len(chapterIDs))
	manifest.Count("articles", int(articleCount))
	manifest.Count("content_items", len(itemIDs))
	return nil
}

func (cs *courseService) deleteCoursework(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, manifest *types.DeleteManifest) error {
	ids := []uuid.UUID{courseID}

	lectures, err := cs.lectureRepo.GetByCourseIDs(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("load lectures: %w", err)
	}
	for _, l := range lectures {
		if l != nil {
			manifest.AddKeys(l.BlobKeys()...)
		}
	}
	if n, err := cs.lectureRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete lectures: %w", err)
	} else {
		manifest.Count("lectures", int(n))
	}

	assignments, err := cs.assignmentRepo.GetByCourseIDs(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	for _, a := range assignments {
		if a != nil {
			manifest.AddKeys(a.BlobKeys()...)
		}
	}
	if n, err := cs.assignmentRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	} else {
		manifest.Count("assignments", int(n))
	}

	announcements, err := cs.announcementRepo.GetByCourseIDs(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("load announcements: %w", err)
	}
	for _, a := range announcements {
		if a != nil {
			manifest.AddKeys(a.BlobKeys()...)
		}
	}
	if n, err := cs.announcementRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete announcements: %w", err)
	} else {
		manifest.Count("announcements", int(n))
	}

	discussions, err := cs.discussionRepo.GetByCourseIDs(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("load discussions: %w", err)
	}
	for _, d := range discussions {
		if d != nil {
			manifest.AddKeys(d.BlobKeys()...)
		}
	}
	if n, err := cs.discussionRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete discussions: %w", err)
	} else {
		manifest.Count("discussions", int(n))
	}

	supplementary, err := cs.supplementaryRepo.GetByCourseIDs(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("load supplementary content: %w", err)
	}
	for _, sc := range supplementary {
		if sc != nil {
			manifest.AddKeys(sc.BlobKeys()...)
		}
	}
	if n, err := cs.supplementaryRepo.DeleteByCourseIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("delete supplementary content: %w", err)
	} else {
		manifest.Count("supplementary_content", int(n))
	}
	return nil
}

func removeCode(codes datatypes.JSONSlice[string], code string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, c := range codes {
		if c != code {
			out = append(out, c)
		}
	}
	return out
}
