package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/repos"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
	"github.com/classbridge/classbridge-backend/internal/types"
)

// EnrollmentService keeps Student.CourseIDs consistent with the course-code
// authorization sets. Enrollment is derived state: every mutation that can
// change eligibility must re-run the relevant sync.
type EnrollmentService interface {
	// SyncOnGrant and SyncOnRevoke run inside the caller's transaction.
	SyncOnGrant(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, courseCode string, courseID uuid.UUID) (int, error)
	SyncOnRevoke(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, courseCode string, courseID uuid.UUID) (int, error)

	EnrollSelf(ctx context.Context, courseID uuid.UUID) error
	SyncStudentCodes(ctx context.Context, studentID uuid.UUID, courseCodes []string) (*types.Student, error)
	SyncTeacherCodes(ctx context.Context, teacherID uuid.UUID, courseCodes []string) (*types.Teacher, error)
}

// ShouldReference is the eligibility predicate: a student references a course
// exactly when the course belongs to the student's assigned teacher and the
// course code is in the student's authorized set.
func ShouldReference(studentTeacherID uuid.UUID, studentCodes []string, courseTeacherID uuid.UUID, courseCode string) bool {
	if studentTeacherID != courseTeacherID {
		return false
	}
	for _, c := range studentCodes {
		if c == courseCode {
			return true
		}
	}
	return false
}

type enrollmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	teacherRepo repos.TeacherRepo
	studentRepo repos.StudentRepo
	courseRepo  repos.CourseRepo
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	teacherRepo repos.TeacherRepo,
	studentRepo repos.StudentRepo,
	courseRepo repos.CourseRepo,
) EnrollmentService {
	return &enrollmentService{
		db:          db,
		log:         baseLog.With("service", "EnrollmentService"),
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
		courseRepo:  courseRepo,
	}
}

func (es *enrollmentService) SyncOnGrant(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, courseCode string, courseID uuid.UUID) (int, error) {
	courseCode = types.NormalizeCourseCode(courseCode)
	students, err := es.studentRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{teacherID})
	if err != nil {
		return 0, fmt.Errorf("load students for grant sync: %w", err)
	}
	granted := 0
	for _, s := range students {
		if s == nil || !ShouldReference(s.TeacherID, s.CourseCodes, teacherID, courseCode) {
			continue
		}
		// Membership check before append keeps the sync idempotent.
		if s.HasCourse(courseID) {
			continue
		}
		next := append(append(datatypes.JSONSlice[uuid.UUID]{}, s.CourseIDs...), courseID)
		if err := es.studentRepo.UpdateFields(ctx, tx, s.ID, map[string]interface{}{"course_ids": next}); err != nil {
			return granted, fmt.Errorf("grant course to student %s: %w", s.ID, err)
		}
		granted++
	}
	return granted, nil
}

// SyncOnRevoke scans the given teacher's students and drops references that
// are no longer eligible. The predicate is evaluated against the course's
// current (already committed-in-tx) teacher and code, so a code reassignment
// or a teacher move both revoke correctly; a missing course revokes
// unconditionally.
func (es *enrollmentService) SyncOnRevoke(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, courseCode string, courseID uuid.UUID) (int, error) {
	courseCode = types.NormalizeCourseCode(courseCode)
	courseTeacherID := teacherID
	if courses, err := es.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID}); err != nil {
		return 0, fmt.Errorf("load course for revoke sync: %w", err)
	} else if len(courses) > 0 && courses[0] != nil {
		courseTeacherID = courses[0].TeacherID
		courseCode = courses[0].CourseCode
	} else {
		courseTeacherID = uuid.Nil
	}

	students, err := es.studentRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{teacherID})
	if err != nil {
		return 0, fmt.Errorf("load students for revoke sync: %w", err)
	}
	revoked := 0
	for _, s := range students {
		if s == nil || !s.HasCourse(courseID) {
			continue
		}
		if ShouldReference(s.TeacherID, s.CourseCodes, courseTeacherID, courseCode) {
			continue
		}
		next := removeCourseID(s.CourseIDs, courseID)
		if err := es.studentRepo.UpdateFields(ctx, tx, s.ID, map[string]interface{}{"course_ids": next}); err != nil {
			return revoked, fmt.Errorf("revoke course from student %s: %w", s.ID, err)
		}
		revoked++
	}
	return revoked, nil
}

// EnrollSelf always operates on the caller's own student row; the target
// student is never taken from the request.
func (es *enrollmentService) EnrollSelf(ctx context.Context, courseID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}
	return es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return es.enrollSelf(ctx, tx, rd.UserID, courseID)
	})
}

func (es *enrollmentService) enrollSelf(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
	students, err := es.studentRepo.GetByUserIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	if len(students) == 0 || students[0] == nil {
		return apierr.NotFound("no student record for the requesting user")
	}
	student := students[0]

	courses, err := es.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return apierr.NotFound("course %s not found", courseID)
	}
	course := courses[0]

	if student.TeacherID != course.TeacherID {
		return apierr.New(http.StatusForbidden, apierr.CodeTeacherMismatch,
			fmt.Errorf("course belongs to a different teacher"))
	}
	if !student.HasCourseCode(course.CourseCode) {
		return apierr.New(http.StatusForbidden, apierr.CodeCourseCodeNotAuthorized,
			fmt.Errorf("course code %s not in student's authorized set", course.CourseCode))
	}
	if student.HasCourse(courseID) {
		return apierr.Conflict(apierr.CodeAlreadyEnrolled, "student already references course %s", courseID)
	}

	next := append(append(datatypes.JSONSlice[uuid.UUID]{}, student.CourseIDs...), courseID)
	return es.studentRepo.UpdateFields(ctx, tx, student.ID, map[string]interface{}{"course_ids": next})
}

// SyncStudentCodes replaces a student's authorized code set and reconciles
// the student's course references against it in the same transaction.
func (es *enrollmentService) SyncStudentCodes(ctx context.Context, studentID uuid.UUID, courseCodes []string) (*types.Student, error) {
	codes := normalizeCodeSet(courseCodes)
	var out *types.Student
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students, err := es.studentRepo.GetByIDs(ctx, tx, []uuid.UUID{studentID})
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		if len(students) == 0 || students[0] == nil {
			return apierr.NotFound("student %s not found", studentID)
		}
		student := students[0]
		student.CourseCodes = codes

		teacherCourses, err := es.courseRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{student.TeacherID})
		if err != nil {
			return fmt.Errorf("load teacher courses: %w", err)
		}

		next := datatypes.JSONSlice[uuid.UUID]{}
		// Keep existing references that are still eligible.
		byID := map[uuid.UUID]*types.Course{}
		for _, c := range teacherCourses {
			if c != nil {
				byID[c.ID] = c
			}
		}
		for _, id := range student.CourseIDs {
			c := byID[id]
			if c != nil && ShouldReference(student.TeacherID, codes, c.TeacherID, c.CourseCode) {
				next = append(next, id)
			}
		}
		// Gain references the new codes make eligible.
		for _, c := range teacherCourses {
			if c == nil || !c.IsActive {
				continue
			}
			if !ShouldReference(student.TeacherID, codes, c.TeacherID, c.CourseCode) {
				continue
			}
			if !containsID(next, c.ID) {
				next = append(next, c.ID)
			}
		}

		if err := es.studentRepo.UpdateFields(ctx, tx, student.ID, map[string]interface{}{
			"course_codes": codes,
			"course_ids":   next,
		}); err != nil {
			return fmt.Errorf("update student codes: %w", err)
		}
		student.CourseIDs = next
		out = student
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SyncTeacherCodes replaces a teacher's authorized code set. A code still
// carried by one of the teacher's active courses cannot be removed, since
// that would break the course/teacher code invariant.
func (es *enrollmentService) SyncTeacherCodes(ctx context.Context, teacherID uuid.UUID, courseCodes []string) (*types.Teacher, error) {
	codes := normalizeCodeSet(courseCodes)
	var out *types.Teacher
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teachers, err := es.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{teacherID})
		if err != nil {
			return fmt.Errorf("load teacher: %w", err)
		}
		if len(teachers) == 0 || teachers[0] == nil {
			return apierr.NotFound("teacher %s not found", teacherID)
		}
		teacher := teachers[0]

		courses, err := es.courseRepo.GetByTeacherIDs(ctx, tx, []uuid.UUID{teacherID})
		if err != nil {
			return fmt.Errorf("load teacher courses: %w", err)
		}
		kept := map[string]bool{}
		for _, c := range codes {
			kept[c] = true
		}
		for _, c := range courses {
			if c != nil && c.IsActive && !kept[c.CourseCode] {
				return apierr.Conflict(apierr.CodeCourseCodeInUse,
					"course code %s is still held by active course %s", c.CourseCode, c.ID)
			}
		}

		if err := es.teacherRepo.UpdateFields(ctx, tx, teacher.ID, map[string]interface{}{
			"course_codes": codes,
		}); err != nil {
			return fmt.Errorf("update teacher codes: %w", err)
		}
		teacher.CourseCodes = codes
		out = teacher
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeCodeSet(codes []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	seen := map[string]bool{}
	for _, c := range codes {
		n := types.NormalizeCourseCode(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func containsID(ids datatypes.JSONSlice[uuid.UUID], id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeCourseID(ids datatypes.JSONSlice[uuid.UUID], id uuid.UUID) datatypes.JSONSlice[uuid.UUID] {
	out := datatypes.JSONSlice[uuid.UUID]{}
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
